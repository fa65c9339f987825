package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/formrel/internal/formdef"
	"github.com/solatis/formrel/internal/types"
)

// FormRecord is a stored definition row.
type FormRecord struct {
	FormID     types.FormID `db:"form_id"`
	TenantID   string       `db:"tenant_id"`
	Slug       string       `db:"slug"`
	Name       string       `db:"name"`
	Definition string       `db:"definition"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

// Document parses the stored definition.
func (r *FormRecord) Document() (*formdef.Document, error) {
	return formdef.Parse([]byte(r.Definition), formdef.FormatJSON)
}

// FormStore persists form definitions per tenant. A form is addressed by
// its document id (the slug); saving the same slug again replaces it.
type FormStore struct {
	queries *Queries
	now     func() time.Time
}

// NewFormStore creates a store over loaded queries.
func NewFormStore(queries *Queries) *FormStore {
	return &FormStore{
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts or replaces a definition and returns its row id. The id of
// an existing row is kept on replace.
func (s *FormStore) Save(ctx context.Context, tenantID string, doc *formdef.Document) (types.FormID, error) {
	definition, err := doc.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode definition: %w", err)
	}

	now := s.now()
	var id types.FormID
	err = s.queries.GetContext(ctx, "insert-form", &id,
		types.NewFormID(), tenantID, doc.ID, doc.Name, string(definition), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to save form %s: %w", doc.ID, err)
	}
	return id, nil
}

// Get loads one definition. Missing rows return types.ErrFormNotFound.
func (s *FormStore) Get(ctx context.Context, tenantID, slug string) (*FormRecord, error) {
	var rec FormRecord
	err := s.queries.GetContext(ctx, "get-form", &rec, tenantID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrFormNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load form %s: %w", slug, err)
	}
	return &rec, nil
}

// List returns the tenant's forms ordered by slug, without definitions.
func (s *FormStore) List(ctx context.Context, tenantID string) ([]FormRecord, error) {
	var recs []FormRecord
	if err := s.queries.SelectContext(ctx, "list-forms", &recs, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return recs, nil
}

// Delete removes a definition. Missing rows return types.ErrFormNotFound.
func (s *FormStore) Delete(ctx context.Context, tenantID, slug string) error {
	res, err := s.queries.ExecContext(ctx, "delete-form", tenantID, slug)
	if err != nil {
		return fmt.Errorf("failed to delete form %s: %w", slug, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", types.ErrFormNotFound, slug)
	}
	return nil
}

// APIKey is the metadata of a newly stored key. The plaintext key itself
// is never persisted.
type APIKey struct {
	ID        string
	TenantID  string
	Name      string
	SecretID  string
	CreatedAt time.Time
}

// KeyStore records API key hashes.
type KeyStore struct {
	queries *Queries
	now     func() time.Time
}

// NewKeyStore creates a key store over loaded queries.
func NewKeyStore(queries *Queries) *KeyStore {
	return &KeyStore{
		queries: queries,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores the HMAC hash of a key.
func (s *KeyStore) Insert(ctx context.Context, key APIKey, hash []byte) (APIKey, error) {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = s.now()
	}
	_, err := s.queries.ExecContext(ctx, "insert-api-key",
		key.ID, key.TenantID, key.Name, hash, key.SecretID, key.CreatedAt)
	if err != nil {
		return APIKey{}, fmt.Errorf("failed to insert api key: %w", err)
	}
	return key, nil
}

// Revoke marks a key revoked. Unknown or already revoked keys return sql.ErrNoRows.
func (s *KeyStore) Revoke(ctx context.Context, id string) error {
	res, err := s.queries.ExecContext(ctx, "revoke-api-key", s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
