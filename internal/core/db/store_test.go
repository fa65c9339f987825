package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/solatis/formrel/internal/formdef"
	"github.com/solatis/formrel/internal/types"
)

const sampleDefinition = `{"id": "contact", "name": "Contact", "fields": [
	{"id": "email", "type": "input", "validators": {"email": true}},
	{"id": "phone", "type": "input",
	 "relation": [{"action": "HIDDEN", "when": [{"id": "email", "status": "VALID"}]}]}
]}`

func sampleDocument(t *testing.T) *formdef.Document {
	t.Helper()
	doc, err := formdef.Parse([]byte(sampleDefinition), formdef.FormatJSON)
	require.NoError(t, err)
	return doc
}

func newMockStore(t *testing.T) (*FormStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	queries, err := LoadQueries(sqlx.NewDb(mockDB, "sqlite3"))
	require.NoError(t, err)
	return NewFormStore(queries), mock
}

func TestFormStore_SaveMock(t *testing.T) {
	store, mock := newMockStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO forms")).
		WithArgs(sqlmock.AnyArg(), "tenant-1", "contact", "Contact", sqlmock.AnyArg(), fixed, fixed).
		WillReturnRows(sqlmock.NewRows([]string{"form_id"}).AddRow("0190a000-0000-7000-8000-000000000001"))

	id, err := store.Save(context.Background(), "tenant-1", sampleDocument(t))
	require.NoError(t, err)
	require.Equal(t, types.FormID("0190a000-0000-7000-8000-000000000001"), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormStore_GetMissingMock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM forms")).
		WithArgs("tenant-1", "nope").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "tenant-1", "nope")
	require.ErrorIs(t, err, types.ErrFormNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormStore_DeleteMock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms")).
		WithArgs("tenant-1", "contact").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms")).
		WithArgs("tenant-1", "contact").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "tenant-1", "contact"))
	require.ErrorIs(t, store.Delete(context.Background(), "tenant-1", "contact"), types.ErrFormNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueries_UnknownName(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	queries, err := LoadQueries(sqlx.NewDb(mockDB, "sqlite3"))
	require.NoError(t, err)

	_, err = queries.ExecContext(context.Background(), "no-such-query")
	require.EqualError(t, err, "query not found: no-such-query")
}

func TestQueries_RebindPostgres(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	queries, err := LoadQueries(sqlx.NewDb(mockDB, "postgres"))
	require.NoError(t, err)

	for _, name := range requiredQueries {
		require.Contains(t, queries.byName, name)
	}
	getForm := queries.byName["get-form"]
	require.Contains(t, getForm, "tenant_id = $1 AND slug = $2")
	require.NotContains(t, getForm, "?")
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url    string
		driver string
		dsn    string
	}{
		{"sqlite://data/formrel.db", "sqlite3", "data/formrel.db?_busy_timeout=5000&_foreign_keys=on"},
		{"sqlite:///var/lib/formrel.db", "sqlite3", "/var/lib/formrel.db?_busy_timeout=5000&_foreign_keys=on"},
		{"sqlite://f.db?_foreign_keys=off", "sqlite3", "f.db?_busy_timeout=5000&_foreign_keys=off"},
		{"postgres://u:p@db:5432/formrel?sslmode=disable", "postgres", "postgres://u:p@db:5432/formrel?sslmode=disable"},
		{"postgresql://db/formrel", "postgres", "postgresql://db/formrel"},
	}
	for _, tt := range tests {
		src, err := ParseURL(tt.url)
		require.NoError(t, err, tt.url)
		require.Equal(t, Source{Driver: tt.driver, DSN: tt.dsn}, src)
	}

	for _, bad := range []string{"mysql://db/formrel", "sqlite://", "::"} {
		_, err := ParseURL(bad)
		require.Error(t, err, bad)
	}
}

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	conn, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "formrel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = MigrateUp(ctx, conn)
	require.NoError(t, err)
	return conn
}

func TestMigrateUp_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "formrel.db"))
	require.NoError(t, err)
	defer conn.Close()

	m, err := NewMigrator(conn)
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	pending, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.False(t, pending[0].Applied)
	require.Empty(t, pending[0].AppliedAt)
	require.Len(t, pending[0].Checksum, 64)

	ran, err := m.Up(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"001_initial_schema.sql"}, ran)

	ran, err = MigrateUp(ctx, conn)
	require.NoError(t, err)
	require.Empty(t, ran)

	statuses, err := MigrateStatus(ctx, conn)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Applied)
	require.Equal(t, "2026-03-04T05:06:07Z", statuses[0].AppliedAt)
	require.Equal(t, pending[0].Checksum, statuses[0].Checksum)

	_, err = conn.ExecContext(ctx, "UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)
	_, err = MigrateUp(ctx, conn)
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestSplitStatements(t *testing.T) {
	script := "-- header\nCREATE TABLE a (x INT);\n\n-- note\nCREATE INDEX i ON a (x);\n"
	require.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}, splitStatements(script))
}

func TestFormStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	queries, err := LoadQueries(openSQLite(t))
	require.NoError(t, err)
	store := NewFormStore(queries)

	doc := sampleDocument(t)
	id, err := store.Save(ctx, "tenant-1", doc)
	require.NoError(t, err)
	_, err = types.ParseFormID(string(id))
	require.NoError(t, err)

	doc.Name = "Contact us"
	again, err := store.Save(ctx, "tenant-1", doc)
	require.NoError(t, err)
	require.Equal(t, id, again, "replacing keeps the row id")

	rec, err := store.Get(ctx, "tenant-1", "contact")
	require.NoError(t, err)
	require.Equal(t, "Contact us", rec.Name)
	loaded, err := rec.Document()
	require.NoError(t, err)
	require.Equal(t, doc, loaded)

	_, err = store.Get(ctx, "tenant-2", "contact")
	require.ErrorIs(t, err, types.ErrFormNotFound)

	_, err = store.Save(ctx, "tenant-1", &formdef.Document{ID: "another", Fields: []formdef.FieldDef{}})
	require.NoError(t, err)
	list, err := store.List(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "another", list[0].Slug)
	require.Equal(t, "contact", list[1].Slug)
	require.Empty(t, list[1].Definition)

	require.NoError(t, store.Delete(ctx, "tenant-1", "another"))
	list, err = store.List(ctx, "tenant-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestKeyStore_SQLite(t *testing.T) {
	ctx := context.Background()
	queries, err := LoadQueries(openSQLite(t))
	require.NoError(t, err)
	keys := NewKeyStore(queries)

	key, err := keys.Insert(ctx, APIKey{
		ID:       "key-1",
		TenantID: "tenant-1",
		Name:     "ci",
		SecretID: "0123456789abcdef0123456789abcdef",
	}, []byte("hash"))
	require.NoError(t, err)
	require.False(t, key.CreatedAt.IsZero())

	var row struct {
		TenantID  string       `db:"tenant_id"`
		RevokedAt sql.NullTime `db:"revoked_at"`
		APIKeyID  string       `db:"api_key_id"`
		LastUsed  sql.NullTime `db:"last_used_at"`
	}
	require.NoError(t, queries.GetContext(ctx, "get-api-key-by-hash", &row, []byte("hash")))
	require.Equal(t, "tenant-1", row.TenantID)
	require.False(t, row.RevokedAt.Valid)

	require.NoError(t, keys.Revoke(ctx, "key-1"))
	require.ErrorIs(t, keys.Revoke(ctx, "key-1"), sql.ErrNoRows)
}
