package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/events"
	"github.com/credigo/ledger/internal/logging"
	"github.com/credigo/ledger/internal/metrics"
	"github.com/credigo/ledger/internal/storage"
)

// Ledger orchestrates the mutate-and-record protocol: validate the operation,
// gate on the account catalog, then hand the signed delta and the entry to
// the store, which commits both as one atomic unit.
type Ledger struct {
	store  storage.Store
	events events.Publisher
}

func NewLedger(store storage.Store, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Ledger{store: store, events: publisher}
}

func (s *Ledger) Apply(ctx context.Context, accountID int64, op domain.Operation) (*domain.OperationResult, error) {
	log := logging.FromContext(ctx)

	if err := op.Validate(); err != nil {
		metrics.OperationCount.WithLabelValues(kindLabel(op.Kind), metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("Apply: %w", err)
	}

	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.OperationCount.WithLabelValues(string(op.Kind), metrics.OutcomeNotFound).Inc()
		}
		return nil, fmt.Errorf("Apply: %w", err)
	}

	entry := &domain.LedgerEntry{
		AccountID:   account.ID,
		Amount:      op.Amount,
		Kind:        op.Kind,
		Description: op.Description,
	}

	balance, err := s.store.Apply(ctx, account, op.Delta(), entry)
	if err != nil {
		if errors.Is(err, domain.ErrLimitExceeded) {
			metrics.OperationCount.WithLabelValues(string(op.Kind), metrics.OutcomeLimitExceeded).Inc()
			return nil, fmt.Errorf("Apply: %w", err)
		}
		metrics.OperationCount.WithLabelValues(string(op.Kind), metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("Apply: %w", err)
	}

	metrics.OperationCount.WithLabelValues(string(op.Kind), metrics.OutcomeCommitted).Inc()
	log.Info("operation committed",
		"account_id", account.ID,
		"kind", op.Kind,
		"amount", op.Amount,
		"balance", balance,
	)

	// The commit already happened; a publish failure must not fail the call.
	if err := s.events.Publish(ctx, events.TransactionPosted{
		AccountID:   account.ID,
		Amount:      op.Amount,
		Kind:        string(op.Kind),
		Description: op.Description,
		Balance:     balance,
		OccurredAt:  entry.OccurredAt,
	}); err != nil {
		log.Error("failed to publish transaction event", "error", err)
	}

	return &domain.OperationResult{Limit: account.Limit, Balance: balance}, nil
}

// kindLabel keeps caller-supplied kinds out of the metric's label set; an
// unvalidated kind would otherwise mint one series per garbage value.
func kindLabel(kind domain.OperationKind) string {
	if kind.IsValid() {
		return string(kind)
	}
	return "invalid"
}

func (s *Ledger) Statement(ctx context.Context, accountID int64) (*domain.Statement, error) {
	st, err := s.store.Statement(ctx, accountID, domain.StatementEntries)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			metrics.StatementCount.WithLabelValues(metrics.OutcomeNotFound).Inc()
		} else {
			metrics.StatementCount.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, fmt.Errorf("Statement: %w", err)
	}
	metrics.StatementCount.WithLabelValues(metrics.OutcomeOK).Inc()
	return st, nil
}

func (s *Ledger) Accounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	return accounts, nil
}
