package tokens

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/identity"
	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Config holds issuer settings, loadable from the environment.
type Config struct {
	SigningKey string        `env:"AUTH_JWT_SIGNING_KEY,required"`
	Issuer     string        `env:"AUTH_JWT_ISSUER" envDefault:"authkit"`
	AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"720h"`
}

// AccessClaims are the claims embedded in an access token. Role and
// EmailVerified ride along so resource servers can authorize without
// a store round-trip.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// AccountID returns the subject claim as a UUID.
func (c AccessClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// AccountSource loads accounts by id. Refresh reloads the account so
// rotated access tokens always carry current role and verification
// state.
type AccountSource interface {
	AccountByID(ctx context.Context, id uuid.UUID) (identity.Account, error)
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerLogger sets the logger. Defaults to a no-op logger.
func WithIssuerLogger(log *slog.Logger) IssuerOption {
	return func(i *Issuer) {
		if log != nil {
			i.log = log
		}
	}
}

// withClock overrides time for tests.
func withClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// Issuer mints, rotates and revokes session token pairs. Access tokens
// are HS256 JWTs verified locally; refresh tokens are opaque random
// values stored hashed and consumed exactly once.
type Issuer struct {
	cfg      Config
	key      []byte
	store    RefreshStore
	accounts AccountSource
	log      *slog.Logger
	now      func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(cfg Config, store RefreshStore, accounts AccountSource, opts ...IssuerOption) (*Issuer, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 720 * time.Hour
	}

	i := &Issuer{
		cfg:      cfg,
		key:      []byte(cfg.SigningKey),
		store:    store,
		accounts: accounts,
		log:      logger.Noop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints a fresh pair for the account and registers the refresh
// token.
func (i *Issuer) Issue(ctx context.Context, account identity.Account) (Pair, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.cfg.AccessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return Pair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	record := RefreshRecord{
		AccountID: account.ID,
		ExpiresAt: now.Add(i.cfg.RefreshTTL),
	}
	if err := i.store.Save(ctx, hashToken(refresh), record); err != nil {
		return Pair{}, fmt.Errorf("save refresh token: %w", err)
	}

	return Pair{
		AccessToken:     access,
		RefreshToken:    refresh,
		IssuedAt:        now,
		AccessExpiresAt: expiresAt,
	}, nil
}

// Refresh consumes the refresh token and mints a new pair for the same
// account. The old token is invalid regardless of outcome; a second
// use fails with ErrRefreshInvalid.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	if refreshToken == "" {
		return Pair{}, ErrRefreshInvalid
	}

	record, err := i.store.Rotate(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return Pair{}, ErrRefreshInvalid
		}
		return Pair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if i.now().After(record.ExpiresAt) {
		return Pair{}, ErrRefreshInvalid
	}

	account, err := i.accounts.AccountByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return Pair{}, ErrRefreshInvalid
		}
		return Pair{}, fmt.Errorf("reload account: %w", err)
	}

	pair, err := i.Issue(ctx, account)
	if err != nil {
		return Pair{}, err
	}

	i.log.InfoContext(ctx, "refresh token rotated", logger.AccountID(account.ID))
	return pair, nil
}

// Revoke invalidates the refresh token. Unknown tokens are not an
// error: logout is idempotent.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := i.store.Delete(ctx, hashToken(refreshToken)); err != nil && !errors.Is(err, ErrRefreshNotFound) {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// Parse verifies an access token and returns its claims.
func (i *Issuer) Parse(accessToken string) (AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return i.key, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessClaims{}, ErrAccessExpired
		}
		return AccessClaims{}, ErrAccessInvalid
	}
	return claims, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
