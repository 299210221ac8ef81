package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// OpenDB opens and pings the database for driver.
func OpenDB(ctx context.Context, driverName, dsn string) (*sql.DB, Dialect, error) {
	d, err := DialectFor(driverName)
	if err != nil {
		return nil, 0, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", d, err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, 0, fmt.Errorf("ping %s: %w", d, err)
	}
	if d == SQLite {
		// One writer at a time; in-memory databases are per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(35)
	}
	return db, d, nil
}

// isDuplicateKeyError reports unique constraint violations on every
// supported driver.
func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullTime scans timestamps from drivers that return time.Time, text or bytes.
type nullTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func (t *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *nullTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = ts, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

func (t nullTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
