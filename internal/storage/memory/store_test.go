package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credigo/ledger/internal/domain"
)

func testStore() *Store {
	return NewStore([]domain.Account{
		{ID: 1, Name: "alpha", Limit: 1000},
		{ID: 2, Name: "beta", Limit: 100},
	})
}

func apply(t *testing.T, s *Store, accountID, amount int64, kind domain.OperationKind) (int64, error) {
	t.Helper()
	account, err := s.GetAccount(context.Background(), accountID)
	require.NoError(t, err)

	op := domain.Operation{Amount: amount, Kind: kind, Description: "test"}
	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Amount:      amount,
		Kind:        kind,
		Description: "test",
	}
	return s.Apply(context.Background(), account, op.Delta(), entry)
}

func TestApply_CreditAndDebit(t *testing.T) {
	s := testStore()

	balance, err := apply(t, s, 1, 500, domain.KindCredit)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	balance, err = apply(t, s, 1, 700, domain.KindDebit)
	require.NoError(t, err)
	assert.Equal(t, int64(-200), balance)
}

func TestApply_DebitToExactLimitCommits(t *testing.T) {
	s := testStore()

	balance, err := apply(t, s, 1, 1000, domain.KindDebit)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), balance)

	_, err = apply(t, s, 1, 1, domain.KindDebit)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	st, err := s.Statement(context.Background(), 1, domain.StatementEntries)
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), st.Balance)
	assert.Len(t, st.Entries, 1)
}

func TestApply_RejectionLeavesNoTrace(t *testing.T) {
	s := testStore()

	_, err := apply(t, s, 2, 101, domain.KindDebit)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)

	st, err := s.Statement(context.Background(), 2, domain.StatementEntries)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.Balance)
	assert.Empty(t, st.Entries)
}

func TestApply_UnknownAccount(t *testing.T) {
	s := testStore()

	_, err := s.Apply(context.Background(), &domain.Account{ID: 9999, Limit: 1000}, 100, &domain.LedgerEntry{AccountID: 9999})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = s.GetAccount(context.Background(), 9999)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = s.Statement(context.Background(), 9999, domain.StatementEntries)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestStatement_NewestFirstTruncatedToTen(t *testing.T) {
	s := testStore()

	for i := int64(1); i <= 15; i++ {
		_, err := apply(t, s, 1, i, domain.KindCredit)
		require.NoError(t, err)
	}

	st, err := s.Statement(context.Background(), 1, domain.StatementEntries)
	require.NoError(t, err)
	require.Len(t, st.Entries, 10)

	// Newest first: amounts 15 down to 6.
	for i, e := range st.Entries {
		assert.Equal(t, int64(15-i), e.Amount)
		assert.Equal(t, domain.KindCredit, e.Kind)
	}
	for i := 1; i < len(st.Entries); i++ {
		assert.False(t, st.Entries[i].OccurredAt.After(st.Entries[i-1].OccurredAt))
	}

	// The balance reflects the full log, not just the returned ten.
	assert.Equal(t, int64(120), st.Balance)
}

func TestStatement_EntryTimestampsFromClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testStore().WithClock(func() time.Time { return fixed })

	_, err := apply(t, s, 1, 10, domain.KindCredit)
	require.NoError(t, err)

	st, err := s.Statement(context.Background(), 1, domain.StatementEntries)
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, fixed, st.Entries[0].OccurredAt)
	assert.Equal(t, fixed, st.GeneratedAt)
}

func TestApply_ConcurrentDebitsSingleWinner(t *testing.T) {
	s := testStore()

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := apply(t, s, 2, 60, domain.KindDebit)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, limitErrs int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, domain.ErrLimitExceeded)
			limitErrs++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, limitErrs)

	st, err := s.Statement(context.Background(), 2, domain.StatementEntries)
	require.NoError(t, err)
	assert.Equal(t, int64(-60), st.Balance)
	assert.Len(t, st.Entries, 1)
}

func TestApply_BalanceEqualsFoldOfEntries(t *testing.T) {
	s := testStore()

	ops := []struct {
		amount int64
		kind   domain.OperationKind
	}{
		{300, domain.KindCredit},
		{150, domain.KindDebit},
		{42, domain.KindCredit},
		{900, domain.KindDebit},
	}
	for _, op := range ops {
		_, err := apply(t, s, 1, op.amount, op.kind)
		require.NoError(t, err)
	}

	st, err := s.Statement(context.Background(), 1, domain.StatementEntries)
	require.NoError(t, err)

	var fold int64
	for _, e := range st.Entries {
		if e.Kind == domain.KindCredit {
			fold += e.Amount
		} else {
			fold -= e.Amount
		}
	}
	assert.Equal(t, st.Balance, fold)
}
