package docstore

import (
	"context"
	"time"

	"github.com/roach88/jsondocs/internal/value"
)

// Repository is the storage contract callers depend on. Store implements
// all of it; operations without behavior return ErrNotImplemented.
type Repository interface {
	GenerateID() string

	Create(ctx context.Context, docs []Document) error
	CreateOne(ctx context.Context, doc Document) error
	Update(ctx context.Context, id string, diff *value.Map, check *ChangeTokenCheck) error
	Delete(ctx context.Context, ids []string) error

	GetDescendants(ctx context.Context, ancestorID string, keys []string, limit int) (*Descendants, error)
	AllDescendants(ctx context.Context, ancestorID string, keys []string) (*Descendants, error)

	ReadByID(ctx context.Context, id string) (Document, error)
	ReadBatch(ctx context.Context, ids []string) ([]Document, error)
	ReadChild(ctx context.Context, parentID, name string, ignored []string) (Document, error)
	HasChild(ctx context.Context, parentID, name string, ignored []string) (bool, error)

	QueryKeyValue(ctx context.Context, key string, v value.Value, ignored []string) ([]Document, error)
	QueryKeyValue2(ctx context.Context, key1 string, v1 value.Value, key2 string, v2 value.Value, ignored []string) ([]Document, error)
	QueryKeyValuePresence(ctx context.Context, key, v string, ignored []string) (bool, error)
	QueryAndFetch(ctx context.Context, q Query) (PartialList, error)

	Scroll(ctx context.Context, q Query, batchSize int, keepAlive time.Duration) (ScrollResult, error)
	ScrollNext(ctx context.Context, scrollID string) (ScrollResult, error)

	GetLock(ctx context.Context, id string) (*Lock, error)
	SetLock(ctx context.Context, id string, lock Lock) (*Lock, error)
	RemoveLock(ctx context.Context, id, owner string) (*Lock, error)
	CloseLockManager() error
	ClearLockManagerCaches() error

	MarkReferencedBinaries(ctx context.Context) error

	Shutdown()
}

// Query is a filtered, ordered projection over documents.
type Query struct {
	Where     string
	OrderBy   []string
	Distinct  bool
	Limit     int
	Offset    int
	CountUpTo int
}

// PartialList is one page of projected rows plus the total match count,
// or -1 when the total is unknown.
type PartialList struct {
	Rows      []*value.Map
	TotalSize int64
}

// ScrollResult is one batch of ids from a scroll cursor.
type ScrollResult struct {
	ScrollID string
	IDs      []string
}

// HasResults reports whether the batch is non-empty.
func (r ScrollResult) HasResults() bool {
	return len(r.IDs) > 0
}

// Lock is a document lock held by Owner.
type Lock struct {
	Owner   string
	Created time.Time
}

// Compile-time check that Store satisfies Repository.
var _ Repository = (*Store)(nil)
