package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/storage"
)

// accountState bundles everything the store owns for one account. The mutex
// is the account's serialization point: it is held across the limit check,
// the balance write and the log append, and across statement reads.
type accountState struct {
	mu      sync.Mutex
	account domain.Account
	balance int64
	entries []domain.LedgerEntry
	nextID  int64
}

// Store is an in-process implementation of storage.Store, valid when the
// service is the single writer. Accounts are fixed at construction, so the
// map itself needs no locking after NewStore returns.
type Store struct {
	accounts map[int64]*accountState
	now      func() time.Time
}

func NewStore(accounts []domain.Account) *Store {
	s := &Store{
		accounts: make(map[int64]*accountState, len(accounts)),
		now:      time.Now,
	}
	for _, a := range accounts {
		s.accounts[a.ID] = &accountState{account: a, nextID: 1}
	}
	return s
}

// WithClock replaces the entry timestamp source. Test hook.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	state, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("GetAccount: %w", domain.ErrAccountNotFound)
	}
	a := state.account
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, state := range s.accounts {
		accounts = append(accounts, state.account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *Store) Apply(ctx context.Context, account *domain.Account, delta int64, entry *domain.LedgerEntry) (int64, error) {
	state, ok := s.accounts[account.ID]
	if !ok {
		return 0, fmt.Errorf("Apply: %w", domain.ErrAccountNotFound)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	candidate := state.balance + delta
	if delta < 0 && candidate < -state.account.Limit {
		return 0, fmt.Errorf("Apply: %w", domain.ErrLimitExceeded)
	}

	entry.ID = state.nextID
	entry.OccurredAt = s.now().UTC()
	state.nextID++
	state.balance = candidate
	state.entries = append(state.entries, *entry)
	return candidate, nil
}

func (s *Store) Statement(ctx context.Context, id int64, n int) (*domain.Statement, error) {
	state, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("Statement: %w", domain.ErrAccountNotFound)
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	st := &domain.Statement{
		Balance:     state.balance,
		Limit:       state.account.Limit,
		GeneratedAt: s.now().UTC(),
	}
	for i := len(state.entries) - 1; i >= 0 && len(st.Entries) < n; i-- {
		st.Entries = append(st.Entries, state.entries[i])
	}
	return st, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

var _ storage.Store = (*Store)(nil)
