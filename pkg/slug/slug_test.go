package slug_test

import (
	"regexp"
	"testing"

	"github.com/nexushq/nexus-server/pkg/slug"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Acme Inc", "acme-inc"},
		{"already clean", "acme", "acme"},
		{"punctuation runs collapse", "Acme,  Inc!!", "acme-inc"},
		{"leading and trailing junk", "  --Acme-- ", "acme"},
		{"digits kept", "Area 51 Labs", "area-51-labs"},
		{"unicode stripped", "Café Déjà Vu", "caf-d-j-vu"},
		{"only junk", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slug.Make(tt.in)
			if got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got != "" && !slugPattern.MatchString(got) {
				t.Errorf("Make(%q) = %q does not match %v", tt.in, got, slugPattern)
			}
		})
	}
}

// Deriving a slug from a slug must be a no-op.
func TestMakeIdempotent(t *testing.T) {
	for _, in := range []string{"Acme Inc", "A--B", "hello world 9", "X!Y?Z"} {
		once := slug.Make(in)
		if twice := slug.Make(once); twice != once {
			t.Errorf("Make not idempotent: Make(%q)=%q, Make(%q)=%q", in, once, once, twice)
		}
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{}
	exists := func(s string) bool { return taken[s] }

	first := slug.Unique("acme-inc", exists)
	if first != "acme-inc" {
		t.Fatalf("first slug = %q, want acme-inc", first)
	}
	taken[first] = true

	second := slug.Unique("acme-inc", exists)
	if second != "acme-inc-1" {
		t.Fatalf("second slug = %q, want acme-inc-1", second)
	}
	taken[second] = true

	third := slug.Unique("acme-inc", exists)
	if third != "acme-inc-2" {
		t.Fatalf("third slug = %q, want acme-inc-2", third)
	}

	for _, s := range []string{first, second, third} {
		if !slugPattern.MatchString(s) {
			t.Errorf("slug %q does not match %v", s, slugPattern)
		}
	}
}
