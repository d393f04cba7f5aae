package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userSelectCols = `id, name, email, password_hash, created_at`

func scanUserRow(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, storageErr("scan user", err)
	}
	return u, nil
}

// Create inserts a new user. Duplicate emails map to domain.ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, u domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return storageErr("create user", err)
	}
	return nil
}

// GetByID returns the user or domain.ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userSelectCols + ` FROM users WHERE id = $1`
	return scanUserRow(s.pool.QueryRow(ctx, query, id))
}

// GetByEmail returns the user or domain.ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userSelectCols + ` FROM users WHERE email = $1`
	return scanUserRow(s.pool.QueryRow(ctx, query, strings.ToLower(email)))
}

// Update replaces the mutable fields (name, password hash) of a user.
func (s *UserStore) Update(ctx context.Context, u domain.User) error {
	const query = `UPDATE users SET name = $2, password_hash = $3 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, u.ID, u.Name, u.PasswordHash)
	if err != nil {
		return storageErr("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the user together with their holdings and transaction
// history in one database transaction.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin delete user", err)
	}
	defer dbTx.Rollback(ctx)

	if _, err := dbTx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id); err != nil {
		return storageErr("delete transactions", err)
	}
	if _, err := dbTx.Exec(ctx, `DELETE FROM holdings WHERE user_id = $1`, id); err != nil {
		return storageErr("delete holdings", err)
	}

	tag, err := dbTx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := dbTx.Commit(ctx); err != nil {
		return storageErr("commit delete user", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
