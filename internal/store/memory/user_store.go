package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// UserStore implements domain.UserStore with in-process maps. Deleting a user
// also purges their rows from the attached LedgerStore.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> id
	ledger  *LedgerStore
}

// NewUserStore creates a UserStore. The ledger store may be nil when cascade
// deletion is not needed (some tests).
func NewUserStore(ledger *LedgerStore) *UserStore {
	return &UserStore{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		ledger:  ledger,
	}
}

// Create inserts a new user; emails are unique case-insensitively.
func (s *UserStore) Create(_ context.Context, u domain.User) error {
	email := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return domain.ErrEmailTaken
	}
	u.Email = email
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

// GetByID returns the user or domain.ErrNotFound.
func (s *UserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// GetByEmail returns the user or domain.ErrNotFound.
func (s *UserStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return s.byID[id], nil
}

// Update replaces the mutable fields (name, password hash) of a user.
func (s *UserStore) Update(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = u.Name
	cur.PasswordHash = u.PasswordHash
	s.byID[u.ID] = cur
	return nil
}

// Delete removes the user and purges their holdings and history.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	u, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	s.mu.Unlock()

	if s.ledger != nil {
		return s.ledger.PurgeUser(ctx, id)
	}
	return nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
