// Package recordstore holds classified records and applies bulk commits
// atomically.
package recordstore

import "errors"

var (
	// ErrDuplicateKey is returned when a commit would store a key twice.
	ErrDuplicateKey = errors.New("duplicate record key")
	// ErrConflict is returned when a reprocess pre-image no longer matches
	// the stored record.
	ErrConflict = errors.New("record changed since it was read")
	// ErrDemotion is returned when a reprocess would unclassify a record.
	ErrDemotion = errors.New("reprocess cannot unclassify a record")
	// ErrNotFound is returned when a key is not in the store.
	ErrNotFound = errors.New("record not found")
	// ErrSnapshotChanged is returned by Save when the snapshot file was
	// rewritten since this store last loaded or saved it.
	ErrSnapshotChanged = errors.New("record snapshot changed on disk")
)
