package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Subfolders provisioned for every company.
var companySubdirs = []string{"users", "tasks", "submissions", "temp"}

// Local stores blobs on the local filesystem under
// <base>/<companyID>/..., mirroring the layout a drive-style remote
// backend would use.
type Local struct {
	base string
}

// NewLocal creates a filesystem backend rooted at base.
func NewLocal(base string) *Local {
	return &Local{base: base}
}

func (l *Local) companyDir(companyID uint) string {
	return filepath.Join(l.base, strconv.FormatUint(uint64(companyID), 10))
}

func (l *Local) InitCompany(ctx context.Context, companyID uint) error {
	dir := l.companyDir(companyID)
	for _, sub := range companySubdirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("init company storage: %w", err)
		}
	}
	return nil
}

func (l *Local) Put(ctx context.Context, companyID uint, name string, content []byte, category string) (*PutResult, error) {
	// Category selects the tasks subfolder; everything else lands in temp.
	var dir string
	if category != "" {
		dir = filepath.Join(l.companyDir(companyID), "tasks", sanitizeName(category))
	} else {
		dir = filepath.Join(l.companyDir(companyID), "temp")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	storedName, err := uniqueName(name)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(dir, storedName)
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}

	return &PutResult{
		StoredName: storedName,
		Handle:     fullPath,
		Size:       int64(len(content)),
	}, nil
}

func (l *Local) Get(ctx context.Context, handle string) ([]byte, error) {
	return os.ReadFile(handle)
}

func (l *Local) Delete(ctx context.Context, handle string) error {
	err := os.Remove(handle)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// uniqueName suffixes the base name with 8 random bytes so repeated
// uploads of the same file never collide.
func uniqueName(name string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// Strip any client-supplied directory components.
	name = filepath.Base(name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return sanitizeName(base) + "_" + hex.EncodeToString(buf) + ext, nil
}

// sanitizeName lowercases and collapses non-alphanumeric runs into
// single hyphens so names are safe as path segments.
func sanitizeName(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		out = "file"
	}
	return out
}
