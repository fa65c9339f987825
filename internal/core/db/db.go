// Package db stores form definitions and API keys.
//
// SQLite serves single-node and test deployments, PostgreSQL shared ones.
// Named queries live in embedded .sql files loaded with dotsql; schema
// changes run through a checksum-verified migration runner over embedded
// SQL files.
package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Source is a database URL resolved to a driver and its DSN.
type Source struct {
	Driver string
	DSN    string
}

// sqliteDefaults are added to SQLite DSNs unless the URL sets them.
var sqliteDefaults = map[string]string{
	"_foreign_keys": "on",
	"_busy_timeout": "5000",
}

// ParseURL resolves sqlite://, postgres:// and postgresql:// URLs.
// sqlite://data/formrel.db is relative, sqlite:///var/lib/formrel.db
// absolute; query parameters pass through to the driver.
func ParseURL(dbURL string) (Source, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid database URL: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		path := u.Host + u.Path
		if path == "" {
			return Source{}, fmt.Errorf("sqlite URL %q has no path", dbURL)
		}
		q := u.Query()
		for k, v := range sqliteDefaults {
			if !q.Has(k) {
				q.Set(k, v)
			}
		}
		return Source{Driver: "sqlite3", DSN: path + "?" + q.Encode()}, nil
	case "postgres", "postgresql":
		return Source{Driver: "postgres", DSN: dbURL}, nil
	default:
		return Source{}, fmt.Errorf("unsupported database scheme %q (expected sqlite or postgres)", u.Scheme)
	}
}

// Open connects to dbURL and verifies the connection.
func Open(ctx context.Context, dbURL string) (*sqlx.DB, error) {
	src, err := ParseURL(dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(src.Driver, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", src.Driver, err)
	}

	if src.Driver == "sqlite3" {
		// One writer at a time; a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(16)
		conn.SetMaxIdleConns(4)
		conn.SetConnMaxIdleTime(5 * time.Minute)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", src.Driver, err)
	}
	return conn, nil
}
