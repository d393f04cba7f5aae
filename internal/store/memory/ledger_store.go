// Package memory implements the domain store interfaces with in-process maps.
// It backs the "memory" storage mode and doubles as the test fixture for
// everything above the store layer.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// LedgerStore holds holdings and the transaction log under one mutex, which
// makes the holding mutation + ledger append of a trade naturally atomic.
type LedgerStore struct {
	mu           sync.RWMutex
	holdings     map[string]map[string]decimal.Decimal // userID -> assetID -> qty
	assetOrder   map[string][]string                   // userID -> assetIDs in first-buy order
	transactions []domain.Transaction
	nextID       int64
}

// NewLedgerStore creates an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		holdings:   make(map[string]map[string]decimal.Decimal),
		assetOrder: make(map[string][]string),
		nextID:     1,
	}
}

// Quantity returns the held quantity, zero when no row exists.
func (s *LedgerStore) Quantity(_ context.Context, userID, assetID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holdings[userID][assetID], nil
}

// ListForUser returns non-zero holdings in first-buy order.
func (s *LedgerStore) ListForUser(_ context.Context, userID string) ([]domain.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Holding
	for _, assetID := range s.assetOrder[userID] {
		qty := s.holdings[userID][assetID]
		if qty.IsZero() {
			continue
		}
		out = append(out, domain.Holding{
			UserID:   userID,
			AssetID:  assetID,
			Quantity: qty,
		})
	}
	return out, nil
}

// RecordBuy credits the holding and appends the ledger row atomically.
func (s *LedgerStore) RecordBuy(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAsset, ok := s.holdings[tx.UserID]
	if !ok {
		byAsset = make(map[string]decimal.Decimal)
		s.holdings[tx.UserID] = byAsset
	}
	if _, seen := byAsset[tx.AssetID]; !seen {
		s.assetOrder[tx.UserID] = append(s.assetOrder[tx.UserID], tx.AssetID)
	}
	byAsset[tx.AssetID] = byAsset[tx.AssetID].Add(tx.Quantity)

	return s.append(tx), nil
}

// RecordSell debits the holding and appends the ledger row atomically. It
// returns ErrInsufficientHoldings, changing nothing, when the held quantity
// is smaller than tx.Quantity.
func (s *LedgerStore) RecordSell(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.holdings[tx.UserID][tx.AssetID]
	if held.LessThan(tx.Quantity) {
		return domain.Transaction{}, domain.ErrInsufficientHoldings
	}
	s.holdings[tx.UserID][tx.AssetID] = held.Sub(tx.Quantity)

	return s.append(tx), nil
}

// append assigns the next id and stores the row. Caller holds s.mu.
func (s *LedgerStore) append(tx domain.Transaction) domain.Transaction {
	tx.ID = s.nextID
	s.nextID++
	s.transactions = append(s.transactions, tx)
	return tx
}

// HistoryForUser returns the user's transactions ordered by (timestamp, id),
// newest first unless opts.Ascending is set.
func (s *LedgerStore) HistoryForUser(_ context.Context, userID string, opts domain.ListOpts) ([]domain.Transaction, error) {
	s.mu.RLock()
	var all []domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			all = append(all, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		less := a.Timestamp.Before(b.Timestamp) ||
			(a.Timestamp.Equal(b.Timestamp) && a.ID < b.ID)
		if opts.Ascending {
			return less
		}
		return !less
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(all) {
			return nil, nil
		}
		all = all[opts.Offset:]
	}
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

// PurgeUser removes the user's holdings and transactions. Used by account
// deletion.
func (s *LedgerStore) PurgeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.holdings, userID)
	delete(s.assetOrder, userID)

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept
	return nil
}

// Compile-time interface checks.
var (
	_ domain.HoldingStore     = (*LedgerStore)(nil)
	_ domain.TransactionStore = (*LedgerStore)(nil)
	_ domain.TradeStore       = (*LedgerStore)(nil)
)
