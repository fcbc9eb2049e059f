package domain

import (
	"time"
	"unicode/utf8"
)

type OperationKind string

const (
	KindCredit OperationKind = "c"
	KindDebit  OperationKind = "d"
)

func (k OperationKind) IsValid() bool {
	return k == KindCredit || k == KindDebit
}

const (
	MaxDescriptionLen = 10
	StatementEntries  = 10
)

// Operation is a caller's intent to credit or debit an account. Amount is the
// unsigned magnitude in cents.
type Operation struct {
	Amount      int64
	Kind        OperationKind
	Description string
}

func (op Operation) Validate() error {
	if op.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !op.Kind.IsValid() {
		return ErrInvalidKind
	}
	// Length in characters, not bytes: the column is VARCHAR(10).
	if n := utf8.RuneCountInString(op.Description); n == 0 || n > MaxDescriptionLen {
		return ErrInvalidDescription
	}
	return nil
}

// Delta is the signed change this operation commits to the balance.
func (op Operation) Delta() int64 {
	if op.Kind == KindDebit {
		return -op.Amount
	}
	return op.Amount
}

// LedgerEntry is one immutable record of a committed operation. Entries for
// an account are totally ordered by insertion; OccurredAt is taken inside
// the exclusive section so it is non-decreasing per account.
type LedgerEntry struct {
	ID          int64
	AccountID   int64
	Amount      int64
	Kind        OperationKind
	Description string
	OccurredAt  time.Time
}

// OperationResult is what a successful apply reports back to the caller.
type OperationResult struct {
	Limit   int64
	Balance int64
}

// Statement is a snapshot of balance, limit and recent history taken at one
// consistent instant. Entries are newest first, at most StatementEntries.
type Statement struct {
	Balance     int64
	Limit       int64
	GeneratedAt time.Time
	Entries     []LedgerEntry
}
