// Package storage is the blob backend boundary. The core only ever
// sees opaque handles produced by Put; client input never becomes a
// storage path.
package storage

import "context"

// PutResult describes a stored blob.
type PutResult struct {
	// StoredName is the uniquified file name on the backend.
	StoredName string
	// Handle is the opaque reference used for Get and Delete.
	Handle string
	// Size is the number of bytes written.
	Size int64
}

// Backend stores and retrieves blobs for a company. Implementations are
// the local filesystem today; a remote drive-style service fits the
// same contract.
type Backend interface {
	// InitCompany provisions the folder structure for a new company.
	InitCompany(ctx context.Context, companyID uint) error

	// Put writes content under the company's area and returns the
	// handle. The category, when present, selects the subfolder.
	Put(ctx context.Context, companyID uint, name string, content []byte, category string) (*PutResult, error)

	// Get reads a blob back by its handle.
	Get(ctx context.Context, handle string) ([]byte, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, handle string) error
}
