package entity

import "time"

// StoredFile is the transient snapshot of one file-store entry.
type StoredFile struct {
	// ID is stable across renames and moves within the store.
	ID string

	// Name is the base file name including extension.
	Name string

	// Path is the current full path; it changes on move or rename.
	Path string

	ModifiedAt time.Time

	// ContentHash is the store's content fingerprint, may be empty.
	ContentHash string

	Size int64
}
