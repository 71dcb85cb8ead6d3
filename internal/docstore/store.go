package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/jsondocs/internal/datasource"
)

// Options configures a Store.
type Options struct {
	// Repository is the logical repository name. Default: "default".
	Repository string

	// BatchSize is the number of documents per insert flush.
	// Default: DefaultBatchSize. Values above MaxBatchSize are clamped.
	BatchSize int

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger

	// IDGenerator backs GenerateID. Default: UUIDv7Generator.
	IDGenerator IDGenerator
}

func (o *Options) applyDefaults() {
	if o.Repository == "" {
		o.Repository = "default"
	}
	if o.BatchSize < 1 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.IDGenerator == nil {
		o.IDGenerator = UUIDv7Generator{}
	}
}

// Store is a document repository over one database connection.
// Not safe for concurrent use.
type Store struct {
	repository string
	conn       *sql.Conn
	dialect    dialect
	batchSize  int
	log        *slog.Logger
	ids        IDGenerator

	closeOnce sync.Once

	// onFlush observes every executed insert batch. Used for testing.
	onFlush func(size int)
}

// Open acquires the repository's connection from provider, prepares the
// session and creates the documents table if needed.
//
// The returned Store owns the connection; call Shutdown to release it.
func Open(ctx context.Context, provider datasource.Provider, opts Options) (*Store, error) {
	opts.applyDefaults()
	name := datasource.NameForRepository(opts.Repository)

	driver, err := provider.Driver(name)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", opts.Repository, err)
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", opts.Repository, err)
	}

	conn, err := provider.Conn(ctx, name)
	if err != nil {
		return nil, storageError("connect", err)
	}

	s := &Store{
		repository: opts.Repository,
		conn:       conn,
		dialect:    d,
		batchSize:  opts.BatchSize,
		log:        opts.Logger.With("repository", opts.Repository),
		ids:        opts.IDGenerator,
	}

	for _, stmt := range d.sessionSQL() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			s.Shutdown()
			return nil, storageError("session setup", fmt.Errorf("%q: %w", stmt, err))
		}
	}

	if err := s.Initialize(ctx); err != nil {
		s.Shutdown()
		return nil, err
	}

	return s, nil
}

// Initialize creates the documents table when the catalog does not list
// it. The name match is exact and case-sensitive. Safe to call repeatedly.
func (s *Store) Initialize(ctx context.Context) error {
	hasTable, err := s.hasTable(ctx)
	if err != nil {
		return storageError("initialize", err)
	}
	if hasTable {
		return nil
	}

	query := s.dialect.createTableSQL()
	s.log.Debug("SQL", "query", query)
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		return storageError("initialize", err)
	}
	s.log.Info("created documents table", "driver", s.dialect.name())
	return nil
}

func (s *Store) hasTable(ctx context.Context) (bool, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.tableNamesSQL(), TableName)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == TableName {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Shutdown releases the connection. Close failures are logged, not
// returned. Calls after the first are no-ops.
func (s *Store) Shutdown() {
	s.closeOnce.Do(func() {
		if s.conn == nil {
			return
		}
		if err := s.conn.Close(); err != nil {
			s.log.Error("failed to close connection", "error", err)
		}
	})
}

// Repository returns the logical repository name.
func (s *Store) Repository() string {
	return s.repository
}

// BatchSize returns the number of documents per insert flush.
func (s *Store) BatchSize() int {
	return s.batchSize
}

// GenerateID returns a new document id no longer than MaxIDLength.
func (s *Store) GenerateID() string {
	return s.ids.Generate()
}
