package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authkit/pkg/identity"
	"github.com/dmitrymomot/authkit/pkg/pg"
)

// Constraint names from the migrations; mapErr uses them to tell the
// two uniqueness races apart.
const (
	emailConstraint   = "accounts_email_key"
	bindingConstraint = "account_bindings_pkey"
)

// Store is the PostgreSQL identity.Store. Uniqueness is enforced by
// the accounts_email_key and account_bindings_pkey constraints; their
// violations surface as identity.ErrEmailTaken and
// identity.ErrBindingTaken.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func mapErr(err error) error {
	if pg.IsDuplicateKeyError(err) {
		switch pg.ConstraintName(err) {
		case emailConstraint:
			return identity.ErrEmailTaken
		case bindingConstraint:
			return identity.ErrBindingTaken
		}
	}
	return err
}

const accountColumns = `id, COALESCE(email, ''), password_hash, nickname, avatar_url, role, email_verified, created_at`

func scanAccount(row pgx.Row) (identity.Account, error) {
	var a identity.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Nickname, &a.AvatarURL, &a.Role, &a.EmailVerified, &a.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return identity.Account{}, identity.ErrAccountNotFound
		}
		return identity.Account{}, fmt.Errorf("scan account: %w", err)
	}
	return a, nil
}

func (s *Store) loadBindings(ctx context.Context, a *identity.Account) error {
	rows, err := s.pool.Query(ctx, `
		SELECT provider, external_id, provider_email, provider_email_verified, created_at
		FROM account_bindings WHERE account_id = $1 ORDER BY created_at`, a.ID)
	if err != nil {
		return fmt.Errorf("query bindings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b identity.Binding
		if err := rows.Scan(&b.Provider, &b.ExternalID, &b.ProviderEmail, &b.ProviderEmailVerified, &b.CreatedAt); err != nil {
			return fmt.Errorf("scan binding: %w", err)
		}
		a.Bindings = append(a.Bindings, b)
	}
	return rows.Err()
}

func (s *Store) AccountByID(ctx context.Context, id uuid.UUID) (identity.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		return identity.Account{}, err
	}
	if err := s.loadBindings(ctx, &account); err != nil {
		return identity.Account{}, err
	}
	return account, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	if email == "" {
		return identity.Account{}, identity.ErrAccountNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	if err != nil {
		return identity.Account{}, err
	}
	if err := s.loadBindings(ctx, &account); err != nil {
		return identity.Account{}, err
	}
	return account, nil
}

func (s *Store) AccountByBinding(ctx context.Context, provider, externalID string) (identity.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT a.id, COALESCE(a.email, ''), a.password_hash, a.nickname, a.avatar_url, a.role, a.email_verified, a.created_at
		FROM accounts a
		JOIN account_bindings b ON b.account_id = a.id
		WHERE b.provider = $1 AND b.external_id = $2`, provider, externalID)
	account, err := scanAccount(row)
	if err != nil {
		return identity.Account{}, err
	}
	if err := s.loadBindings(ctx, &account); err != nil {
		return identity.Account{}, err
	}
	return account, nil
}

func (s *Store) CreateAccount(ctx context.Context, account identity.Account) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var email *string
	if account.Email != "" {
		email = &account.Email
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, nickname, avatar_url, role, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, email, account.PasswordHash, account.Nickname, account.AvatarURL,
		account.Role, account.EmailVerified, account.CreatedAt)
	if err != nil {
		return mapErr(err)
	}

	for _, b := range account.Bindings {
		_, err = tx.Exec(ctx, `
			INSERT INTO account_bindings (provider, external_id, account_id, provider_email, provider_email_verified, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.Provider, b.ExternalID, account.ID, b.ProviderEmail, b.ProviderEmailVerified, b.CreatedAt)
		if err != nil {
			return mapErr(err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) AddBinding(ctx context.Context, accountID uuid.UUID, binding identity.Binding) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO account_bindings (provider, external_id, account_id, provider_email, provider_email_verified, created_at)
		SELECT $1, $2, id, $4, $5, $6 FROM accounts WHERE id = $3`,
		binding.Provider, binding.ExternalID, accountID, binding.ProviderEmail, binding.ProviderEmailVerified, binding.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (s *Store) RemoveBinding(ctx context.Context, accountID uuid.UUID, provider string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock the account row so concurrent removals cannot both pass the
	// last-method check.
	var hasPassword bool
	err = tx.QueryRow(ctx, `
		SELECT password_hash IS NOT NULL FROM accounts WHERE id = $1 FOR UPDATE`, accountID).
		Scan(&hasPassword)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return identity.ErrAccountNotFound
		}
		return fmt.Errorf("lock account: %w", err)
	}

	var bindingCount int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM account_bindings WHERE account_id = $1`, accountID).
		Scan(&bindingCount); err != nil {
		return fmt.Errorf("count bindings: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM account_bindings WHERE account_id = $1 AND provider = $2`, accountID, provider)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrBindingNotFound
	}
	if !hasPassword && bindingCount-int(tag.RowsAffected()) < 1 {
		return identity.ErrLastAuthMethod
	}

	return tx.Commit(ctx)
}

func (s *Store) UpdateProfile(ctx context.Context, accountID uuid.UUID, nickname, avatarURL string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET nickname = $2, avatar_url = $3 WHERE id = $1`, accountID, nickname, avatarURL)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, accountID uuid.UUID, hash []byte) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET password_hash = $2 WHERE id = $1`, accountID, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (s *Store) SetEmailVerified(ctx context.Context, accountID uuid.UUID, verified bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET email_verified = $2 WHERE id = $1`, accountID, verified)
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}
