package docstore

import (
	"context"
	"time"

	"github.com/roach88/jsondocs/internal/value"
)

// ReadByID is not implemented.
func (s *Store) ReadByID(ctx context.Context, id string) (Document, error) {
	return Document{}, notImplemented("read by id")
}

// ReadBatch is not implemented.
func (s *Store) ReadBatch(ctx context.Context, ids []string) ([]Document, error) {
	return nil, notImplemented("read batch")
}

// ReadChild is not implemented.
func (s *Store) ReadChild(ctx context.Context, parentID, name string, ignored []string) (Document, error) {
	return Document{}, notImplemented("read child")
}

// HasChild is not implemented.
func (s *Store) HasChild(ctx context.Context, parentID, name string, ignored []string) (bool, error) {
	return false, notImplemented("has child")
}

// QueryKeyValue is not implemented.
func (s *Store) QueryKeyValue(ctx context.Context, key string, v value.Value, ignored []string) ([]Document, error) {
	return nil, notImplemented("query key value")
}

// QueryKeyValue2 is not implemented.
func (s *Store) QueryKeyValue2(ctx context.Context, key1 string, v1 value.Value, key2 string, v2 value.Value, ignored []string) ([]Document, error) {
	return nil, notImplemented("query key value pair")
}

// QueryKeyValuePresence is not implemented.
func (s *Store) QueryKeyValuePresence(ctx context.Context, key, v string, ignored []string) (bool, error) {
	return false, notImplemented("query key value presence")
}

// QueryAndFetch is not implemented.
func (s *Store) QueryAndFetch(ctx context.Context, q Query) (PartialList, error) {
	return PartialList{TotalSize: -1}, notImplemented("query and fetch")
}

// Scroll is not implemented.
func (s *Store) Scroll(ctx context.Context, q Query, batchSize int, keepAlive time.Duration) (ScrollResult, error) {
	return ScrollResult{}, notImplemented("scroll")
}

// ScrollNext is not implemented.
func (s *Store) ScrollNext(ctx context.Context, scrollID string) (ScrollResult, error) {
	return ScrollResult{}, notImplemented("scroll next")
}

// GetLock is not implemented.
func (s *Store) GetLock(ctx context.Context, id string) (*Lock, error) {
	return nil, notImplemented("get lock")
}

// SetLock is not implemented.
func (s *Store) SetLock(ctx context.Context, id string, lock Lock) (*Lock, error) {
	return nil, notImplemented("set lock")
}

// RemoveLock is not implemented.
func (s *Store) RemoveLock(ctx context.Context, id, owner string) (*Lock, error) {
	return nil, notImplemented("remove lock")
}

// CloseLockManager is not implemented.
func (s *Store) CloseLockManager() error {
	return notImplemented("close lock manager")
}

// ClearLockManagerCaches is not implemented.
func (s *Store) ClearLockManagerCaches() error {
	return notImplemented("clear lock manager caches")
}

// MarkReferencedBinaries is not implemented.
func (s *Store) MarkReferencedBinaries(ctx context.Context) error {
	return notImplemented("mark referenced binaries")
}
