package main

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// dialect is the SQL flavour of the stats database.
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// openStatsDB opens a postgres database for postgres:// DSNs and a sqlite
// file otherwise. The sqlite driver is chosen by the cgo_sqlite build tag.
func openStatsDB(dsn string) (*sql.DB, dialect, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("postgres", dsn)
		return db, dialectPostgres, err
	}
	db, err := openSQLite(dsn)
	return db, dialectSQLite, err
}

// rebind rewrites ? placeholders to $n for postgres. Queries must not carry
// literal question marks.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
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
