package docstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/jsondocs/internal/datasource"
	"github.com/roach88/jsondocs/internal/value"
)

// dialect isolates the SQL that differs between backends. Statements are
// written with ? placeholders and passed through rebind before execution.
type dialect interface {
	name() string
	rebind(query string) string
	sessionSQL() []string
	tableNamesSQL() string
	createTableSQL() string
	jsonParam() string
	descendantsSQL(limit int) string
	updateSQL(removed []string, set *value.Map, id string, check *ChangeTokenCheck) (string, []any, error)
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case datasource.DriverPostgres:
		return postgresDialect{}, nil
	case datasource.DriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("no dialect for driver %q", driver)
	}
}

// insertSQL builds a multi-row insert for rows documents.
func insertSQL(d dialect, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO " + TableName + "(" + IDColumn + ", " + JSONColumn + ") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, " + d.jsonParam() + ")")
	}
	return d.rebind(b.String())
}

// deleteSQL builds a delete for n ids: "= ?" for one, "IN (?, ?, ...)" for more.
func deleteSQL(d dialect, n int) string {
	sql := "DELETE FROM " + TableName + " WHERE " + IDColumn + " "
	if n == 1 {
		sql += "= ?"
	} else {
		var b strings.Builder
		b.Grow(3 + 3*n)
		b.WriteString("IN (")
		for i := 0; i < n; i++ {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteByte('?')
		}
		b.WriteByte(')')
		sql += b.String()
	}
	return d.rebind(sql)
}

func existsSQL(d dialect) string {
	return d.rebind("SELECT 1 FROM " + TableName + " WHERE " + IDColumn + " = ?")
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}

// postgresDialect targets PostgreSQL jsonb through lib/pq.
type postgresDialect struct{}

func (postgresDialect) name() string { return datasource.DriverPostgres }

// rebind rewrites ? placeholders to $1, $2, ...
func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (postgresDialect) sessionSQL() []string {
	return []string{"SET application_name TO '" + ApplicationName + "'"}
}

func (d postgresDialect) tableNamesSQL() string {
	return d.rebind(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' AND table_name = ?`)
}

func (postgresDialect) createTableSQL() string {
	return "CREATE TABLE " + TableName + " (" + IDColumn + " varchar(36) PRIMARY KEY, " + JSONColumn + " jsonb)"
}

func (postgresDialect) jsonParam() string { return "?::jsonb" }

func (d postgresDialect) descendantsSQL(limit int) string {
	return d.rebind("SELECT " + IDColumn + " FROM " + TableName +
		" WHERE " + JSONColumn + "->'" + KeyAncestorIDs + "' @> ?::jsonb" +
		" ORDER BY " + IDColumn + limitClause(limit))
}

func (d postgresDialect) updateSQL(removed []string, set *value.Map, id string, check *ChangeTokenCheck) (string, []any, error) {
	patch, err := value.Encode(set)
	if err != nil {
		return "", nil, err
	}
	if removed == nil {
		removed = []string{}
	}

	sql := "UPDATE " + TableName + " SET " + JSONColumn + " = (" + JSONColumn + " - ?::text[]) || ?::jsonb" +
		" WHERE " + IDColumn + " = ?"
	args := []any{pq.Array(removed), patch, id}
	if check != nil {
		sql += " AND (" + JSONColumn + "->'" + KeyChangeToken + "') = to_jsonb(?::bigint)"
		args = append(args, check.Expected)
	}
	return d.rebind(sql), args, nil
}

// sqliteDialect targets SQLite JSON1 functions on a TEXT column.
type sqliteDialect struct{}

func (sqliteDialect) name() string { return datasource.DriverSQLite }

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) sessionSQL() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (sqliteDialect) tableNamesSQL() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (sqliteDialect) createTableSQL() string {
	return "CREATE TABLE " + TableName + " (" + IDColumn + " VARCHAR(36) PRIMARY KEY, " +
		JSONColumn + " TEXT NOT NULL CHECK (json_valid(" + JSONColumn + ")))"
}

func (sqliteDialect) jsonParam() string { return "?" }

// descendantsSQL matches rows whose ancestor array holds every element of
// the bound JSON array.
func (sqliteDialect) descendantsSQL(limit int) string {
	return "SELECT " + IDColumn + " FROM " + TableName +
		" WHERE json_type(" + TableName + "." + JSONColumn + ", '$." + KeyAncestorIDs + "') = 'array'" +
		" AND NOT EXISTS (SELECT 1 FROM json_each(?) AS want WHERE want.value NOT IN (" +
		"SELECT value FROM json_each(" + TableName + "." + JSONColumn + ", '$." + KeyAncestorIDs + "') WHERE value IS NOT NULL))" +
		" ORDER BY " + IDColumn + limitClause(limit)
}

func (sqliteDialect) updateSQL(removed []string, set *value.Map, id string, check *ChangeTokenCheck) (string, []any, error) {
	args := make([]any, 0, len(removed)+2*set.Len()+2)

	remove := "json_remove(" + JSONColumn
	for _, k := range removed {
		remove += ", ?"
		args = append(args, jsonPath(k))
	}
	remove += ")"

	expr := "json_set(" + remove
	for k, v := range set.All() {
		text, err := value.Encode(v)
		if err != nil {
			return "", nil, fmt.Errorf("key %q: %w", k, err)
		}
		expr += ", ?, json(?)"
		args = append(args, jsonPath(k), text)
	}
	expr += ")"

	sql := "UPDATE " + TableName + " SET " + JSONColumn + " = " + expr + " WHERE " + IDColumn + " = ?"
	args = append(args, id)
	if check != nil {
		sql += " AND json_extract(" + JSONColumn + ", '$." + KeyChangeToken + "') = ?"
		args = append(args, check.Expected)
	}
	return sql, args, nil
}

// jsonPath quotes a top-level key as a JSON1 path. The label is read as
// JSON string text, so backslashes and quotes are escaped.
func jsonPath(key string) string {
	path, _ := value.AppendJSON([]byte("$."), value.String(key))
	return string(path)
}
