// Package docstore persists schema-less documents into a relational table
// with a JSON column.
//
// One table holds every document:
//
//	documents(id varchar(36) PRIMARY KEY, doc jsonb)
//
// PostgreSQL stores the body as jsonb; SQLite stores JSON text checked by
// json_valid and queried through the JSON1 functions.
//
// # Connection
//
// A Store asks its datasource.Provider for the connection named
// "repository_<name>" when opened and keeps that single connection until
// Shutdown. Operations run on it synchronously, so a Store must not be
// used from several goroutines at once. The store never begins or ends
// transactions; autocommit and transaction scope belong to the provider.
//
// # Writes
//
// Create inserts documents in order, flushing a multi-row insert every
// BatchSize documents and once more for the remainder. Delete issues a
// single statement for the whole id set. Update applies a key-level diff
// inside the database, optionally guarded by the stored change token.
//
// # Contract stubs
//
// Reads by id, child lookups, key/value queries, scrolling and locking are
// part of Repository but return ErrNotImplemented.
package docstore
