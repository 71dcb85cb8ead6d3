package docstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jsondocs/internal/datasource"
	"github.com/roach88/jsondocs/internal/value"
)

// createTestStore opens a store on a fresh SQLite file.
func createTestStore(t *testing.T, batchSize int) *Store {
	t.Helper()
	reg := newTestRegistry(t)
	s, err := Open(context.Background(), reg, Options{
		Repository: "test",
		BatchSize:  batchSize,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func newTestRegistry(t *testing.T) *datasource.Registry {
	t.Helper()
	reg := datasource.NewRegistry()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, reg.Register(datasource.NameForRepository("test"), datasource.Spec{
		Driver: datasource.DriverSQLite,
		DSN:    path,
	}))
	t.Cleanup(func() { reg.Close() })
	return reg
}

// recordFlushes captures batch sizes passed to the flush hook.
func recordFlushes(s *Store) *[]int {
	var sizes []int
	s.onFlush = func(n int) { sizes = append(sizes, n) }
	return &sizes
}

func testDoc(id string, pairs ...value.Pair) Document {
	body := value.NewMap(value.P(KeyID, value.String(id)))
	for _, p := range pairs {
		body.Set(p.Key, p.Value)
	}
	return Document{ID: id, Body: body}
}

func childDoc(id string, ancestors ...string) Document {
	return testDoc(id, value.P(KeyAncestorIDs, value.Strings(ancestors...)))
}

func readBody(t *testing.T, s *Store, id string) string {
	t.Helper()
	var body string
	err := s.conn.QueryRowContext(context.Background(),
		"SELECT doc FROM documents WHERE id = ?", id).Scan(&body)
	require.NoError(t, err)
	return body
}

// storedIDs returns ids in insertion order.
func storedIDs(t *testing.T, s *Store) []string {
	t.Helper()
	rows, err := s.conn.QueryContext(context.Background(), "SELECT id FROM documents ORDER BY rowid")
	require.NoError(t, err)
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func countDocs(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.conn.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM documents").Scan(&n))
	return n
}
