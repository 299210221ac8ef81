package repositories

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL driver and the few syntax differences between the
// supported databases. Queries are written with '?' placeholders.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql", "":
		return MySQL, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

// DriverName is the database/sql driver registered for d.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

func (d Dialect) String() string { return d.DriverName() }

// Rebind rewrites '?' placeholders to $1, $2, ... for Postgres.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
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

func (d Dialect) timestampType() string {
	switch d {
	case Postgres:
		return "TIMESTAMPTZ"
	case SQLite:
		return "DATETIME"
	default:
		return "DATETIME(6)"
	}
}
