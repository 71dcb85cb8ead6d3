package docstore

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/jsondocs/internal/value"
)

// Descendants is a finite, one-shot sequence of id-only documents.
type Descendants struct {
	docs     []Document
	consumed bool
}

// All yields each document once. Iterating a second time yields nothing,
// even if the first iteration stopped early.
func (d *Descendants) All() iter.Seq[Document] {
	return func(yield func(Document) bool) {
		if d.consumed {
			return
		}
		d.consumed = true
		for _, doc := range d.docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// IDs drains the sequence and returns the ids in order.
func (d *Descendants) IDs() []string {
	ids := make([]string, 0, len(d.docs))
	for doc := range d.All() {
		ids = append(ids, doc.ID)
	}
	return ids
}

// AllDescendants is GetDescendants without a limit.
func (s *Store) AllDescendants(ctx context.Context, ancestorID string, keys []string) (*Descendants, error) {
	return s.GetDescendants(ctx, ancestorID, keys, 0)
}

// GetDescendants returns the documents whose ancestorIds array contains
// ancestorID, ordered by id. Only ids are returned.
//
// Projecting keys is not supported: a non-empty keys fails with
// ErrNotImplemented. A limit above zero caps the number of results.
func (s *Store) GetDescendants(ctx context.Context, ancestorID string, keys []string, limit int) (*Descendants, error) {
	if len(keys) > 0 {
		return nil, notImplemented("get descendants with projection")
	}

	want, err := value.Encode(value.Strings(ancestorID))
	if err != nil {
		return nil, fmt.Errorf("get descendants: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, s.dialect.descendantsSQL(limit), want)
	if err != nil {
		return nil, storageError("get descendants", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageError("get descendants", err)
		}
		docs = append(docs, Document{ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("get descendants", err)
	}

	return &Descendants{docs: docs}, nil
}
