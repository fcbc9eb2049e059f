package events

import (
	"context"
	"time"
)

// TransactionPosted is emitted after a credit or debit has committed. The
// committed store state is authoritative; publishing is best effort.
type TransactionPosted struct {
	AccountID   int64     `json:"account_id"`
	Amount      int64     `json:"amount"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Balance     int64     `json:"balance"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionPosted) error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event TransactionPosted) error {
	return nil
}
