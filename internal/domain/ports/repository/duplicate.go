package repository

import "context"

// DuplicateEntry maps a content fingerprint to the locator that first stored
// those bytes, shared globally across stores and products.
type DuplicateEntry struct {
	ContentHash    string
	StorageLocator string
	TaskID         string
}

// DuplicateIndex is the only resource mutated by more than one worker at a
// time; Record must be atomic insert-if-absent so racing uploads of
// byte-identical images converge on a single winning locator.
type DuplicateIndex interface {
	// Lookup returns domain.ErrNotFound when the hash has never been stored.
	Lookup(ctx context.Context, contentHash string) (*DuplicateEntry, error)
	// Record registers locator for contentHash. The first successful writer
	// wins: the returned entry is always the winning row, and created is
	// false when another task got there first.
	Record(ctx context.Context, contentHash, locator, taskID string) (entry *DuplicateEntry, created bool, err error)
}
