// Package datasource hands out database connections by logical name.
//
// A Registry holds one *sql.DB pool per registered data source and gives
// each caller a dedicated *sql.Conn from it. Pool sizing and lifetime
// belong here; callers only own the connection they were given.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names accepted by Register.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// ErrUnknownDataSource is returned when a name was never registered.
var ErrUnknownDataSource = errors.New("datasource: unknown data source")

// Provider hands out a live connection for a named data source.
// The caller must Close the returned connection.
type Provider interface {
	Conn(ctx context.Context, name string) (*sql.Conn, error)
	Driver(name string) (string, error)
}

// Spec describes how to open one data source.
type Spec struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Registry is a Provider backed by lazily opened *sql.DB pools.
// Safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	specs map[string]Spec
	pools map[string]*sql.DB
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]Spec),
		pools: make(map[string]*sql.DB),
	}
}

// NameForRepository returns the data source name used by a repository.
// The form is "repository_<name>".
func NameForRepository(repository string) string {
	return "repository_" + repository
}

// Register adds or replaces a data source. An already opened pool for the
// name is left untouched until Close.
func (r *Registry) Register(name string, spec Spec) error {
	switch spec.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("register %s: unsupported driver %q", name, spec.Driver)
	}
	if spec.DSN == "" {
		return fmt.Errorf("register %s: empty dsn", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[name] = spec
	return nil
}

// Names returns registered data source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Driver returns the driver name of a registered data source.
func (r *Registry) Driver(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.specs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDataSource, name)
	}
	return spec.Driver, nil
}

// Conn returns a dedicated connection from the named pool, opening and
// pinging the pool on first use.
func (r *Registry) Conn(ctx context.Context, name string) (*sql.Conn, error) {
	db, err := r.pool(ctx, name)
	if err != nil {
		return nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection %s: %w", name, err)
	}
	return conn, nil
}

func (r *Registry) pool(ctx context.Context, name string) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.pools[name]; ok {
		return db, nil
	}
	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataSource, name)
	}

	db, err := sql.Open(spec.Driver, spec.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	if spec.MaxOpenConns > 0 {
		db.SetMaxOpenConns(spec.MaxOpenConns)
		db.SetMaxIdleConns(spec.MaxOpenConns)
	}

	r.pools[name] = db
	return db, nil
}

// Close closes every opened pool. Connections handed out earlier should be
// closed by their owners first.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, db := range r.pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(r.pools, name)
	}
	return errors.Join(errs...)
}
