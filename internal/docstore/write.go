package docstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/jsondocs/internal/value"
)

// CreateOne inserts a single document.
func (s *Store) CreateOne(ctx context.Context, doc Document) error {
	return s.Create(ctx, []Document{doc})
}

// Create inserts documents in the given order.
//
// A single document is one insert. Several documents share one prepared
// BatchSize-row insert, flushed each time BatchSize documents have been
// added; the remainder is flushed once at the end. Batches flushed before
// a failure stay written.
//
// Ids are validated before any statement runs. An encoding failure
// returns *value.UnsupportedValueTypeError (wrapped) without executing the
// pending batch; database failures return *StorageError.
func (s *Store) Create(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if err := validateID(doc.ID); err != nil {
			return fmt.Errorf("create: %w", err)
		}
	}

	switch len(docs) {
	case 0:
		return nil
	case 1:
		json, err := value.Encode(docs[0].Body)
		if err != nil {
			return fmt.Errorf("create %s: %w", docs[0].ID, err)
		}
		if _, err := s.conn.ExecContext(ctx, insertSQL(s.dialect, 1), docs[0].ID, json); err != nil {
			return storageError("create", err)
		}
		s.flushed(1)
		return nil
	}

	var full *sql.Stmt
	if len(docs) >= s.batchSize {
		stmt, err := s.conn.PrepareContext(ctx, insertSQL(s.dialect, s.batchSize))
		if err != nil {
			return storageError("create", err)
		}
		defer stmt.Close()
		full = stmt
	}

	args := make([]any, 0, 2*min(len(docs), s.batchSize))
	for _, doc := range docs {
		json, err := value.Encode(doc.Body)
		if err != nil {
			return fmt.Errorf("create %s: %w", doc.ID, err)
		}
		args = append(args, doc.ID, json)

		if len(args) == 2*s.batchSize {
			if _, err := full.ExecContext(ctx, args...); err != nil {
				return storageError("create", err)
			}
			s.flushed(s.batchSize)
			args = args[:0]
		}
	}

	if pending := len(args) / 2; pending > 0 {
		if _, err := s.conn.ExecContext(ctx, insertSQL(s.dialect, pending), args...); err != nil {
			return storageError("create", err)
		}
		s.flushed(pending)
	}
	return nil
}

func (s *Store) flushed(size int) {
	s.log.Debug("flushed insert batch", "documents", size)
	if s.onFlush != nil {
		s.onFlush(size)
	}
}

// Delete removes the documents with the given ids in one statement.
//
// Duplicate ids are ignored. An empty set returns without touching the
// database. Ids that do not exist are not an error; a count mismatch is
// only logged.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.conn.ExecContext(ctx, deleteSQL(s.dialect, len(ids)), args...)
	if err != nil {
		return storageError("delete", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return storageError("delete", err)
	}
	if count != int64(len(ids)) {
		s.log.Debug("removed fewer documents than ids", "removed", count, "ids", len(ids), "id_list", ids)
	}
	return nil
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Update applies diff to the stored body of id without rewriting it.
//
// Each non-Null diff entry sets that top-level key (a nested Map replaces
// the old value wholesale); each Null entry removes the key. Keys absent
// from diff are untouched. An empty diff runs no statement. The id key
// mirrors the primary key and cannot appear in diff.
//
// With check, the stored changeToken must equal check.Expected or the
// update fails with *ConflictError. A missing document is ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, diff *value.Map, check *ChangeTokenCheck) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	var removed []string
	set := value.NewMap()
	for k, v := range diff.All() {
		if k == KeyID {
			return fmt.Errorf("update %s: %w: %q cannot be changed", id, ErrInvalidDocument, KeyID)
		}
		if value.IsNull(v) {
			removed = append(removed, k)
			continue
		}
		set.Set(k, v)
	}
	if len(removed) == 0 && set.Len() == 0 {
		return nil
	}

	query, args, err := s.dialect.updateSQL(removed, set, id, check)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return storageError("update", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return storageError("update", err)
	}
	if count > 0 {
		return nil
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return storageError("update", err)
	}
	if !exists {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if check != nil {
		return &ConflictError{ID: id, Expected: check.Expected}
	}
	// Matched but unchanged; some drivers report zero affected rows.
	return nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, existsSQL(s.dialect), id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
