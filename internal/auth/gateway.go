// Package auth is the authentication gateway in front of the ledger core:
// registration, login, token verification, and account maintenance. The
// ledger itself only ever sees resolved user ids.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// Session is the result of a successful registration or login.
type Session struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	User      domain.User `json:"user"`
}

// Gateway resolves credentials and tokens against the user store.
type Gateway struct {
	users  domain.UserStore
	signer *TokenSigner
	logger *slog.Logger
	now    func() time.Time
}

// NewGateway creates a Gateway over the given user store and token signer.
func NewGateway(users domain.UserStore, signer *TokenSigner, logger *slog.Logger) *Gateway {
	return &Gateway{
		users:  users,
		signer: signer,
		logger: logger.With(slog.String("component", "auth")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with a bcrypt-hashed password and returns a fresh
// session. Duplicate emails surface domain.ErrEmailTaken.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || !strings.Contains(email, "@") || password == "" {
		return Session{}, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("auth: hash password: %w", err)
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    g.now(),
	}
	if err := g.users.Create(ctx, u); err != nil {
		return Session{}, err
	}

	g.logger.InfoContext(ctx, "user registered", slog.String("user_id", u.ID))
	return g.session(u), nil
}

// Login checks the credentials and returns a fresh session. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (g *Gateway) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}
	return g.session(u), nil
}

// Authenticate resolves a bearer token to its user. Invalid or expired
// tokens, and tokens for deleted users, map to domain.ErrInvalidToken.
func (g *Gateway) Authenticate(ctx context.Context, token string) (domain.User, error) {
	userID, err := g.signer.Verify(token, g.now())
	if err != nil {
		return domain.User{}, err
	}
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	return u, nil
}

// Update changes the user's display name and/or password. Empty arguments
// leave the corresponding field untouched.
func (g *Gateway) Update(ctx context.Context, userID, name, password string) (domain.User, error) {
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if name = strings.TrimSpace(name); name != "" {
		u.Name = name
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, fmt.Errorf("auth: hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := g.users.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Delete removes the account and everything the ledger holds for it.
func (g *Gateway) Delete(ctx context.Context, userID string) error {
	if err := g.users.Delete(ctx, userID); err != nil {
		return err
	}
	g.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))
	return nil
}

func (g *Gateway) session(u domain.User) Session {
	return Session{
		Token:     g.signer.Issue(u.ID, g.now()),
		TokenType: "bearer",
		User:      u,
	}
}
