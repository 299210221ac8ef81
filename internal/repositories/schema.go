package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	refresh_token VARCHAR(64) NOT NULL PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL,
	expires_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS seller_profiles (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	phone VARCHAR(32) NOT NULL DEFAULT '',
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_sales INTEGER NOT NULL DEFAULT 0,
	response_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	avatar_url VARCHAR(1024) NULL,
	device_token VARCHAR(512) NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS listings (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	seller_id VARCHAR(36) NOT NULL,
	title VARCHAR(255) NULL,
	description TEXT NULL,
	price DOUBLE PRECISION NULL,
	category VARCHAR(64) NULL,
	location VARCHAR(255) NULL,
	image VARCHAR(1024) NULL,
	item_condition VARCHAR(32) NULL,
	features TEXT NULL,
	images TEXT NULL,
	is_sold BOOLEAN NOT NULL DEFAULT FALSE,
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NULL
)`

var indexes = []struct{ name, table, column string }{
	{"idx_sessions_user", "sessions", "user_id"},
	{"idx_listings_seller", "listings", "seller_id"},
	{"idx_listings_created", "listings", "created_at"},
	{"idx_listings_category", "listings", "category"},
}

// Migrate creates every table and index that does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	schema := strings.ReplaceAll(schemaTemplate, "{{ts}}", d.timestampType())
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, ix := range indexes {
		// MySQL has no CREATE INDEX IF NOT EXISTS.
		if d == MySQL {
			_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE INDEX %s ON %s (%s)", ix.name, ix.table, ix.column))
			var mysqlErr *mysql.MySQLError
			if err != nil && !(errors.As(err, &mysqlErr) && mysqlErr.Number == 1061) {
				return fmt.Errorf("migrate index %s: %w", ix.name, err)
			}
			continue
		}
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", ix.name, ix.table, ix.column)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate index %s: %w", ix.name, err)
		}
	}
	return nil
}
