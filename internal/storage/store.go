package storage

import (
	"context"

	"github.com/credigo/ledger/internal/domain"
)

// Store is the authoritative home of balances and the transaction log. Apply
// and Statement are the two consistency boundaries: Apply commits the balance
// change and the log entry as one atomic unit (or nothing at all), Statement
// reads balance and history as of one instant.
type Store interface {
	// GetAccount returns catalog metadata, or domain.ErrAccountNotFound.
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)

	// ListAccounts returns every provisioned account, ordered by id.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// Apply commits delta against the account's balance and appends entry to
	// its log, holding exclusive access to that account for the duration.
	// A debit that would push the balance below -account.Limit returns
	// domain.ErrLimitExceeded and leaves no trace. The store assigns the
	// entry id and timestamp inside the exclusive section and returns the
	// new balance.
	Apply(ctx context.Context, account *domain.Account, delta int64, entry *domain.LedgerEntry) (int64, error)

	// Statement returns balance, limit and the n most recent entries
	// (newest first) read under one shared consistency boundary, or
	// domain.ErrAccountNotFound.
	Statement(ctx context.Context, id int64, n int) (*domain.Statement, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
