package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// deletedRetention is how long a soft-deleted row is kept before a
// separate reaper (out of scope here) would purge it.
const deletedRetention = 30 * 24 * time.Hour

// sqlAccount is the DTO between the accounts table and domain.Account,
// absorbing NULL handling and the JSON public-key blob.
type sqlAccount struct {
	UserID string
	Username string
	EmailHash string
	EmailCipher string
	PasswordHash string
	TotpSecret *string
	Locale string
	Flags int64
	PublicKeys []byte
	CreatedAt time.Time
	DeletedAt *time.Time
}

// PostgresRepo implements ports.AccountStore over pgx/v5.
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: pool}
}

func (r *PostgresRepo) Create(ctx context.Context, account *domain.Account) error {
	keys, err := json.Marshal(account.PublicKeys)
	if err != nil {
		return fmt.Errorf("marshal public keys: %w", err)
	}

	q := `
		INSERT INTO accounts (user_id, username, email_hash, email_cipher, password_hash,
		 totp_secret, locale, flags, public_keys, created_at, deleted_at)
		VALUES (@user_id, @username, @email_hash, @email_cipher, @password_hash,
		 @totp_secret, @locale, @flags, @public_keys, @created_at, @deleted_at)
	`
	args := pgx.NamedArgs{
		"user_id": account.UserID.String(),
		"username": account.Username,
		"email_hash": account.EmailHash.String(),
		"email_cipher": account.EmailCipher.String(),
		"password_hash": string(account.PasswordHash),
		"totp_secret": optionalCiphertext(account.TotpSecret),
		"locale": account.Locale,
		"flags": account.Flags,
		"public_keys": keys,
		"created_at": account.CreatedAt,
		"deleted_at": account.DeletedAt,
	}

	if _, err := execer(ctx, r.db).Exec(ctx, q, args); err != nil {
		return r.handleError(err)
	}
	return nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id domain.UserId) (*domain.Account, error) {
	q := `
		SELECT user_id, username, email_hash, email_cipher, password_hash, totp_secret,
		 locale, flags, public_keys, created_at, deleted_at
		FROM accounts WHERE user_id = $1
	`
	return r.queryOne(ctx, q, id.String())
}

func (r *PostgresRepo) FindByEmailHash(ctx context.Context, hash domain.EmailHash) (*domain.Account, error) {
	q := `
		SELECT user_id, username, email_hash, email_cipher, password_hash, totp_secret,
		 locale, flags, public_keys, created_at, deleted_at
		FROM accounts WHERE email_hash = $1
	`
	return r.queryOne(ctx, q, hash.String())
}

func (r *PostgresRepo) queryOne(ctx context.Context, q string, arg string) (*domain.Account, error) {
	var s sqlAccount
	row := execer(ctx, r.db).QueryRow(ctx, q, arg)
	err := row.Scan(&s.UserID, &s.Username, &s.EmailHash, &s.EmailCipher, &s.PasswordHash,
		&s.TotpSecret, &s.Locale, &s.Flags, &s.PublicKeys, &s.CreatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: find account: %w", err)
	}
	return r.toDomain(&s)
}

func (r *PostgresRepo) Update(ctx context.Context, account *domain.Account) error {
	keys, err := json.Marshal(account.PublicKeys)
	if err != nil {
		return fmt.Errorf("marshal public keys: %w", err)
	}

	q := `
		UPDATE accounts
		SET username = @username, email_hash = @email_hash, email_cipher = @email_cipher,
		 password_hash = @password_hash, totp_secret = @totp_secret, locale = @locale,
		 flags = @flags, public_keys = @public_keys
		WHERE user_id = @user_id
	`
	args := pgx.NamedArgs{
		"user_id": account.UserID.String(),
		"username": account.Username,
		"email_hash": account.EmailHash.String(),
		"email_cipher": account.EmailCipher.String(),
		"password_hash": string(account.PasswordHash),
		"totp_secret": optionalCiphertext(account.TotpSecret),
		"locale": account.Locale,
		"flags": account.Flags,
		"public_keys": keys,
	}

	tag, err := execer(ctx, r.db).Exec(ctx, q, args)
	if err != nil {
		return r.handleError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete soft-deletes by setting deleted_at to now plus the retention
// window; it does not remove the row.
func (r *PostgresRepo) Delete(ctx context.Context, id domain.UserId) error {
	q := `UPDATE accounts SET deleted_at = @deleted_at WHERE user_id = @user_id AND deleted_at IS NULL`
	purgeAt := time.Now().UTC().Add(deletedRetention)
	tag, err := execer(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"user_id": id.String(), "deleted_at": purgeAt})
	if err != nil {
		return fmt.Errorf("db: delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepo) toDomain(s *sqlAccount) (*domain.Account, error) {
	var keys []domain.PublicKey
	if len(s.PublicKeys) > 0 {
		if err := json.Unmarshal(s.PublicKeys, &keys); err != nil {
			return nil, fmt.Errorf("unmarshal public keys: %w", err)
		}
	}

	userID, err := domain.NewUserId(s.UserID)
	if err != nil {
		return nil, err
	}

	var totpSecret *domain.HexCiphertext
	if s.TotpSecret != nil {
		c := domain.HexCiphertext(*s.TotpSecret)
		totpSecret = &c
	}

	return &domain.Account{
		UserID: userID,
		Username: s.Username,
		EmailHash: domain.EmailHash(s.EmailHash),
		EmailCipher: domain.EmailCipher(s.EmailCipher),
		PasswordHash: domain.PasswordHash(s.PasswordHash),
		TotpSecret: totpSecret,
		Locale: s.Locale,
		Flags: s.Flags,
		PublicKeys: keys,
		CreatedAt: s.CreatedAt,
		DeletedAt: s.DeletedAt,
	}, nil
}

func optionalCiphertext(c *domain.HexCiphertext) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

// handleError translates PostgreSQL error codes into domain errors.
func (r *PostgresRepo) handleError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return domain.ErrUserExists
		}
	}
	return fmt.Errorf("db: %w", err)
}

var _ ports.AccountStore = (*PostgresRepo)(nil)
