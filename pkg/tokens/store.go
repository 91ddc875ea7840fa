package tokens

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshRecord is the server-side state of one refresh token. Only
// the token's SHA-256 hash is used as the key; the raw token never
// touches storage.
type RefreshRecord struct {
	AccountID uuid.UUID `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshStore persists refresh records keyed by token hash.
//
// Rotate must consume atomically: fetch and delete in one step, so
// that two concurrent refreshes with the same token leave exactly one
// winner and the loser gets ErrRefreshNotFound.
type RefreshStore interface {
	Save(ctx context.Context, hash string, record RefreshRecord) error
	Rotate(ctx context.Context, hash string) (RefreshRecord, error)
	Delete(ctx context.Context, hash string) error
}
