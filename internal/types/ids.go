package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FormID is the store-assigned row id of a form definition (UUIDv7).
// The document's own id is the slug; FormID survives slug replacement.
type FormID string

// NewFormID returns a fresh time-ordered id.
func NewFormID() FormID {
	return FormID(newV7())
}

// NewKeyID returns a fresh time-ordered API key id.
func NewKeyID() string {
	return newV7()
}

func newV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseFormID rejects anything that is not a UUID.
func ParseFormID(s string) (FormID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid form id %q: %w", s, err)
	}
	return FormID(s), nil
}

// CreatedAt is the creation time embedded in the id, or the zero time when
// the id is not a UUID.
func (id FormID) CreatedAt() time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	return time.Unix(u.Time().UnixTime())
}
