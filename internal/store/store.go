// Package store defines the two remote-provider interfaces the sync core
// consumes and the error taxonomy their clients must map onto. The stores
// own their data; the core only reads snapshots and pushes point mutations.
package store

import (
	"context"
	"errors"

	"github.com/dcervantes/facturas-sync/internal/entity"
)

var (
	// ErrNotFound marks a missing file or record.
	ErrNotFound = errors.New("not found in store")

	// ErrAuthExpired marks an expired access token. Callers recover it via
	// a single refresh-and-replay; a second failure propagates.
	ErrAuthExpired = errors.New("access token expired")
)

// FileStore is a remote file store with eventual-consistency semantics.
type FileStore interface {
	// List returns every file in folderPath as a flattened list; the
	// implementation pages internally.
	List(ctx context.Context, folderPath string) ([]entity.StoredFile, error)

	Download(ctx context.Context, path string) ([]byte, error)

	// ShareLink is idempotent: an existing link for path is returned,
	// otherwise one is created.
	ShareLink(ctx context.Context, path string) (string, error)

	Upload(ctx context.Context, content []byte, desiredName, folderPath string) (entity.StoredFile, error)
	Delete(ctx context.Context, path string) (bool, error)
	CreateFolder(ctx context.Context, path string) (bool, error)
}

// FieldPatch is a partial update of an invoice record; nil fields are
// left untouched.
type FieldPatch struct {
	Amount *float64
	Date   *string
}

// RecordStore is a remote document database holding invoice records.
type RecordStore interface {
	// ListRecords returns every record; the implementation pages internally.
	ListRecords(ctx context.Context) ([]entity.InvoiceRecord, error)

	// CreateRecord persists a new record and returns its assigned id.
	CreateRecord(ctx context.Context, rec entity.InvoiceRecord) (string, error)

	UpdateRecordURL(ctx context.Context, id, url string) error
	UpdateRecordFields(ctx context.Context, id string, patch FieldPatch) error
}
