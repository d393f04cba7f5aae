package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/alanyoungcy/coinledger/internal/domain"
	"github.com/alanyoungcy/coinledger/internal/store/memory"
)

func newGateway(t *testing.T) (*Gateway, *memory.UserStore) {
	t.Helper()
	users := memory.NewUserStore(memory.NewLedgerStore())
	signer := NewTokenSigner("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(users, signer, logger), users
}

func TestGateway_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session", func(t *testing.T) {
		g, _ := newGateway(t)

		sess, err := g.Register(ctx, "Alice", "Alice@Example.com ", "hunter22")
		require.NoError(t, err)
		require.NotEmpty(t, sess.Token)
		require.Equal(t, "bearer", sess.TokenType)
		require.NotEmpty(t, sess.User.ID)
		require.Equal(t, "alice@example.com", sess.User.Email)

		// Stored hash verifies against the original password.
		require.NoError(t, bcrypt.CompareHashAndPassword(
			[]byte(sess.User.PasswordHash), []byte("hunter22")))
	})

	t.Run("rejects incomplete input", func(t *testing.T) {
		g, _ := newGateway(t)
		cases := []struct{ name, email, password string }{
			{"", "a@b.com", "pw"},
			{"Alice", "not-an-email", "pw"},
			{"Alice", "a@b.com", ""},
		}
		for _, c := range cases {
			_, err := g.Register(ctx, c.name, c.email, c.password)
			require.True(t, errors.Is(err, domain.ErrInvalidCredentials),
				"name=%q email=%q", c.name, c.email)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		g, _ := newGateway(t)
		_, err := g.Register(ctx, "Alice", "a@b.com", "pw")
		require.NoError(t, err)

		_, err = g.Register(ctx, "Bob", "A@B.com", "pw2")
		require.True(t, errors.Is(err, domain.ErrEmailTaken))
	})
}

func TestGateway_Login(t *testing.T) {
	ctx := context.Background()
	g, _ := newGateway(t)

	_, err := g.Register(ctx, "Alice", "a@b.com", "correct-pw")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		sess, err := g.Login(ctx, "a@b.com", "correct-pw")
		require.NoError(t, err)
		require.NotEmpty(t, sess.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := g.Login(ctx, "a@b.com", "wrong-pw")
		require.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := g.Login(ctx, "nobody@b.com", "correct-pw")
		require.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	})
}

func TestGateway_Authenticate(t *testing.T) {
	ctx := context.Background()
	g, _ := newGateway(t)

	sess, err := g.Register(ctx, "Alice", "a@b.com", "pw")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		u, err := g.Authenticate(ctx, sess.Token)
		require.NoError(t, err)
		require.Equal(t, sess.User.ID, u.ID)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := g.Authenticate(ctx, "bogus")
		require.True(t, errors.Is(err, domain.ErrInvalidToken))
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		require.NoError(t, g.Delete(ctx, sess.User.ID))

		_, err := g.Authenticate(ctx, sess.Token)
		require.True(t, errors.Is(err, domain.ErrInvalidToken))
	})
}

func TestGateway_Update(t *testing.T) {
	ctx := context.Background()
	g, _ := newGateway(t)

	sess, err := g.Register(ctx, "Alice", "a@b.com", "old-pw")
	require.NoError(t, err)

	t.Run("rename keeps password", func(t *testing.T) {
		u, err := g.Update(ctx, sess.User.ID, "Alicia", "")
		require.NoError(t, err)
		require.Equal(t, "Alicia", u.Name)

		_, err = g.Login(ctx, "a@b.com", "old-pw")
		require.NoError(t, err)
	})

	t.Run("password change", func(t *testing.T) {
		_, err := g.Update(ctx, sess.User.ID, "", "new-pw")
		require.NoError(t, err)

		_, err = g.Login(ctx, "a@b.com", "old-pw")
		require.True(t, errors.Is(err, domain.ErrInvalidCredentials))

		_, err = g.Login(ctx, "a@b.com", "new-pw")
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := g.Update(ctx, "ghost", "Name", "")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
