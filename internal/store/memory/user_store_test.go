package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

func testUser(id, email string) domain.User {
	return domain.User{
		ID:           id,
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(nil)

	require.NoError(t, s.Create(ctx, testUser("u1", "alice@example.com")))

	t.Run("by id", func(t *testing.T) {
		u, err := s.GetByID(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", u.Email)
	})

	t.Run("by email is case-insensitive", func(t *testing.T) {
		u, err := s.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, "u1", u.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := s.Create(ctx, testUser("u2", "Alice@Example.com"))
		require.True(t, errors.Is(err, domain.ErrEmailTaken))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.GetByID(ctx, "nope")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.GetByEmail(ctx, "bob@example.com")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestUserStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(nil)
	require.NoError(t, s.Create(ctx, testUser("u1", "alice@example.com")))

	u, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	u.Name = "Renamed"
	u.PasswordHash = "newhash"
	require.NoError(t, s.Update(ctx, u))

	got, err := s.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)
	require.Equal(t, "newhash", got.PasswordHash)

	err = s.Update(ctx, testUser("ghost", "ghost@example.com"))
	require.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUserStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerStore()
	s := NewUserStore(ledger)

	require.NoError(t, s.Create(ctx, testUser("u1", "alice@example.com")))
	_, err := ledger.RecordBuy(ctx, buyTx("u1", "btc", "1", "100", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "u1"))

	_, err = s.GetByID(ctx, "u1")
	require.True(t, errors.Is(err, domain.ErrNotFound))

	rows, err := ledger.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, rows)

	// Email becomes reusable after deletion.
	require.NoError(t, s.Create(ctx, testUser("u2", "alice@example.com")))

	err = s.Delete(ctx, "ghost")
	require.True(t, errors.Is(err, domain.ErrNotFound))
}
