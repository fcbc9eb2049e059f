package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/events"
	"github.com/credigo/ledger/internal/metrics"
	"github.com/credigo/ledger/internal/service"
	"github.com/credigo/ledger/internal/storage/memory"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionPosted
	fail   bool
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.TransactionPosted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func newLedger(t *testing.T, accounts ...domain.Account) (*service.Ledger, *capturingPublisher) {
	t.Helper()
	if len(accounts) == 0 {
		accounts = []domain.Account{{ID: 1, Name: "alpha", Limit: 1000}}
	}
	pub := &capturingPublisher{}
	return service.NewLedger(memory.NewStore(accounts), pub), pub
}

func TestApply_DebitLimitCreditScenario(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	res, err := svc.Apply(ctx, 1, domain.Operation{Amount: 1000, Kind: domain.KindDebit, Description: "loan"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Limit)
	assert.Equal(t, int64(-1000), res.Balance)

	_, err = svc.Apply(ctx, 1, domain.Operation{Amount: 1, Kind: domain.KindDebit, Description: "overdraw"})
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	st, err := svc.Statement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), st.Balance)
	assert.Len(t, st.Entries, 1)

	res, err = svc.Apply(ctx, 1, domain.Operation{Amount: 500, Kind: domain.KindCredit, Description: "payback"})
	require.NoError(t, err)
	assert.Equal(t, int64(-500), res.Balance)
}

func TestApply_UnknownAccount(t *testing.T) {
	svc, pub := newLedger(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, 9999, domain.Operation{Amount: 10, Kind: domain.KindCredit, Description: "ghost"})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = svc.Statement(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	assert.Empty(t, pub.events)
}

func TestApply_ValidationShortCircuits(t *testing.T) {
	svc, pub := newLedger(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		op      domain.Operation
		wantErr error
	}{
		{
			name:    "non-positive amount",
			op:      domain.Operation{Amount: 0, Kind: domain.KindCredit, Description: "zero"},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown kind",
			op:      domain.Operation{Amount: 10, Kind: "x", Description: "bad"},
			wantErr: domain.ErrInvalidKind,
		},
		{
			name:    "eleven char description",
			op:      domain.Operation{Amount: 10, Kind: domain.KindDebit, Description: "12345678901"},
			wantErr: domain.ErrInvalidDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, 1, tt.op)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing reached the store and nothing was published.
	st, err := svc.Statement(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Balance)
	assert.Empty(t, st.Entries)
	assert.Empty(t, pub.events)
}

func TestApply_UnknownKindDoesNotMintMetricSeries(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	const rawKind = "casino"
	rawBefore := promtestutil.ToFloat64(
		metrics.OperationCount.WithLabelValues(rawKind, metrics.OutcomeRejected))
	invalidBefore := promtestutil.ToFloat64(
		metrics.OperationCount.WithLabelValues("invalid", metrics.OutcomeRejected))

	_, err := svc.Apply(ctx, 1, domain.Operation{Amount: 10, Kind: rawKind, Description: "bet"})
	require.ErrorIs(t, err, domain.ErrInvalidKind)

	rawAfter := promtestutil.ToFloat64(
		metrics.OperationCount.WithLabelValues(rawKind, metrics.OutcomeRejected))
	invalidAfter := promtestutil.ToFloat64(
		metrics.OperationCount.WithLabelValues("invalid", metrics.OutcomeRejected))

	assert.Equal(t, rawBefore, rawAfter)
	assert.Equal(t, invalidBefore+1, invalidAfter)
}

func TestApply_PublishesAfterCommit(t *testing.T) {
	svc, pub := newLedger(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, 1, domain.Operation{Amount: 250, Kind: domain.KindCredit, Description: "deposit"})
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, int64(1), ev.AccountID)
	assert.Equal(t, int64(250), ev.Amount)
	assert.Equal(t, "c", ev.Kind)
	assert.Equal(t, int64(250), ev.Balance)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestApply_PublishFailureDoesNotFailOperation(t *testing.T) {
	svc, pub := newLedger(t)
	pub.fail = true
	ctx := context.Background()

	res, err := svc.Apply(ctx, 1, domain.Operation{Amount: 250, Kind: domain.KindCredit, Description: "deposit"})
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.Balance)
}

func TestStatement_IdempotentReads(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, 1, domain.Operation{Amount: 100, Kind: domain.KindCredit, Description: "seed"})
	require.NoError(t, err)

	first, err := svc.Statement(ctx, 1)
	require.NoError(t, err)
	second, err := svc.Statement(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.Balance, second.Balance)
	assert.Equal(t, first.Limit, second.Limit)
	assert.Equal(t, first.Entries, second.Entries)
}

func TestAccounts_ListsCatalog(t *testing.T) {
	svc, _ := newLedger(t,
		domain.Account{ID: 2, Name: "beta", Limit: 200},
		domain.Account{ID: 1, Name: "alpha", Limit: 100},
	)

	accounts, err := svc.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(1), accounts[0].ID)
	assert.Equal(t, int64(2), accounts[1].ID)
}
