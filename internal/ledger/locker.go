package ledger

import (
	"context"
	"sync"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// KeyedLocker implements domain.AccountLocker with one in-process mutex per
// user. Different users never contend; the same user's writes serialize.
// Mutexes are kept for the life of the process, bounded by the number of
// distinct users seen.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLocker creates an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-user mutex, blocking until it is available, and
// returns the unlock function. In-process acquisition cannot fail.
func (l *KeyedLocker) Lock(_ context.Context, userID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// Compile-time interface check.
var _ domain.AccountLocker = (*KeyedLocker)(nil)
