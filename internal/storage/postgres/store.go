package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/storage"
)

const entryColumns = `id, account_id, amount, kind, description, occurred_at`

type scanner interface {
	Scan(dest ...any) error
}

// Store implements storage.Store on postgres. The per-account serialization
// point is the balances row: Apply locks it with SELECT ... FOR UPDATE, so
// concurrent operations on the same account queue on the row lock while
// operations on other accounts proceed independently.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func NewStore(db *sql.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, credit_limit FROM accounts WHERE id = $1`, id,
	)
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetAccount: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, credit_limit FROM accounts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Limit); err != nil {
			return nil, fmt.Errorf("ListAccounts: scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: rows: %w", err)
	}
	return accounts, nil
}

func (s *Store) Apply(ctx context.Context, account *domain.Account, delta int64, entry *domain.LedgerEntry) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Apply: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE account_id = $1 FOR UPDATE`, account.ID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("Apply: %w", domain.ErrAccountNotFound)
		}
		return 0, fmt.Errorf("Apply: lock balance: %w", err)
	}

	candidate := current + delta
	if delta < 0 && candidate < -account.Limit {
		return 0, fmt.Errorf("Apply: %w", domain.ErrLimitExceeded)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE balances SET amount = $1 WHERE account_id = $2`, candidate, account.ID,
	); err != nil {
		return 0, fmt.Errorf("Apply: update balance: %w", err)
	}

	// Timestamp comes from the database clock while the row lock is held,
	// so occurred_at is non-decreasing in commit order per account.
	err = tx.QueryRowContext(ctx,
		`INSERT INTO transactions (account_id, amount, kind, description, occurred_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id, occurred_at`,
		entry.AccountID, entry.Amount, entry.Kind, entry.Description,
	).Scan(&entry.ID, &entry.OccurredAt)
	if err != nil {
		return 0, fmt.Errorf("Apply: append entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Apply: commit: %w", err)
	}
	return candidate, nil
}

func (s *Store) Statement(ctx context.Context, id int64, n int) (*domain.Statement, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// Repeatable read gives the balance and entry queries one shared
	// snapshot; at read committed each would see its own, and an apply
	// committing in between could surface an entry whose effect is missing
	// from the returned balance.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("Statement: begin tx: %w", err)
	}
	defer tx.Rollback()

	st := &domain.Statement{GeneratedAt: time.Now().UTC()}
	err = tx.QueryRowContext(ctx,
		`SELECT a.credit_limit, b.amount
		 FROM accounts a JOIN balances b ON b.account_id = a.id
		 WHERE a.id = $1`, id,
	).Scan(&st.Limit, &st.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Statement: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Statement: read balance: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM transactions
		 WHERE account_id = $1 ORDER BY id DESC LIMIT $2`, id, n,
	)
	if err != nil {
		return nil, fmt.Errorf("Statement: read entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("Statement: scan: %w", err)
		}
		st.Entries = append(st.Entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Statement: rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Statement: commit: %w", err)
	}
	return st, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func scanEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Kind, &e.Description, &e.OccurredAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

var _ storage.Store = (*Store)(nil)
