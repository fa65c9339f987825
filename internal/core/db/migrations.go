package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	embeddedmigrations "github.com/solatis/formrel/migrations"
)

// MigrationStatus is one embedded migration and whether it has run.
// AppliedAt is empty for pending migrations.
type MigrationStatus struct {
	ID          string `db:"migration_id"`
	Checksum    string `db:"checksum"`
	Applied     bool   `db:"-"`
	AppliedAt   string `db:"applied_at"`
	ExecutionMs int64  `db:"execution_ms"`
}

type migration struct {
	id       string
	checksum string
	sql      string
}

// Migrator applies the embedded schema for one connection's driver.
type Migrator struct {
	db         *sqlx.DB
	migrations []migration
	now        func() time.Time
}

// NewMigrator reads the embedded migrations matching db's driver.
func NewMigrator(db *sqlx.DB) (*Migrator, error) {
	var (
		fsys fs.FS
		dir  string
	)
	switch db.DriverName() {
	case "sqlite3":
		fsys, dir = embeddedmigrations.SqliteMigrations, "sqlite"
	case "postgres":
		fsys, dir = embeddedmigrations.PostgresMigrations, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}

	migrations, err := readMigrations(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	return &Migrator{
		db:         db,
		migrations: migrations,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// readMigrations returns dir's .sql files in filename order, which is
// also apply order.
func readMigrations(fsys fs.FS, dir string) ([]migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, migration{
			id:       path.Base(name),
			checksum: hex.EncodeToString(sum[:]),
			sql:      string(content),
		})
	}
	return migrations, nil
}

// MigrateUp applies pending migrations; see Migrator.Up.
func MigrateUp(ctx context.Context, db *sqlx.DB) ([]string, error) {
	m, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.Up(ctx)
}

// MigrateStatus reports every embedded migration; see Migrator.Status.
func MigrateStatus(ctx context.Context, db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	return m.Status(ctx)
}

// Up runs pending migrations, each in its own transaction together with
// its tracking row, and returns the ids applied. Recorded checksums are
// verified first; any mismatch aborts before anything runs.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	recorded, err := m.recorded(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.verify(recorded); err != nil {
		return nil, fmt.Errorf("migration checksum validation failed: %w", err)
	}

	var ran []string
	for _, mig := range m.migrations {
		if _, ok := recorded[mig.id]; ok {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return ran, fmt.Errorf("migration %s: %w", mig.id, err)
		}
		ran = append(ran, mig.id)
	}
	return ran, nil
}

// Status lists embedded migrations in apply order.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	recorded, err := m.recorded(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		if s, ok := recorded[mig.id]; ok {
			s.Applied = true
			statuses = append(statuses, s)
			continue
		}
		statuses = append(statuses, MigrationStatus{ID: mig.id, Checksum: mig.checksum})
	}
	return statuses, nil
}

// recorded creates the tracking table when missing and returns its rows
// keyed by migration id.
func (m *Migrator) recorded(ctx context.Context) (map[string]MigrationStatus, error) {
	if _, err := m.db.ExecContext(ctx, m.trackingTable()); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var rows []MigrationStatus
	err := m.db.SelectContext(ctx, &rows,
		"SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}

	byID := make(map[string]MigrationStatus, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	return byID, nil
}

// trackingTable must match the migrations table in 001_initial_schema.sql.
func (m *Migrator) trackingTable() string {
	if m.db.DriverName() == "sqlite3" {
		return `CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL,
			CHECK (applied_at LIKE '____-__-__T__:__:__Z')
		)`
	}
	return `CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
		execution_ms INTEGER NOT NULL
	)`
}

func (m *Migrator) verify(recorded map[string]MigrationStatus) error {
	embedded := make(map[string]string, len(m.migrations))
	for _, mig := range m.migrations {
		embedded[mig.id] = mig.checksum
	}
	for id, r := range recorded {
		want, ok := embedded[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if r.Checksum != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, r.Checksum)
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig migration) (err error) {
	start := time.Now()
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// lib/pq runs one statement per Exec
	for _, stmt := range splitStatements(mig.sql) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}

	var appliedAt any = m.now()
	if m.db.DriverName() == "sqlite3" {
		appliedAt = m.now().Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx, m.db.Rebind(
		"INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		mig.id, mig.checksum, appliedAt, time.Since(start).Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

// splitStatements splits on semicolons and drops "--" comment lines.
func splitStatements(sql string) []string {
	var statements []string
	for _, chunk := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
