package testutil

import (
	"database/sql"
	"testing"

	"github.com/credigo/ledger/internal/domain"
)

// SeedAccount provisions an account with the given limit and starting
// balance, on top of the five accounts the seed migration installs.
func SeedAccount(t *testing.T, db *sql.DB, id int64, name string, limit, balance int64) *domain.Account {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO accounts (id, name, credit_limit) VALUES ($1, $2, $3)`,
		id, name, limit,
	)
	if err != nil {
		t.Fatalf("seed account %d: %v", id, err)
	}
	_, err = db.Exec(
		`INSERT INTO balances (account_id, amount) VALUES ($1, $2)`,
		id, balance,
	)
	if err != nil {
		t.Fatalf("seed balance %d: %v", id, err)
	}
	return &domain.Account{ID: id, Name: name, Limit: limit}
}

func GetBalance(t *testing.T, db *sql.DB, accountID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT amount FROM balances WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %d: %v", accountID, err)
	}
	return balance
}

func CountEntries(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for account %d: %v", accountID, err)
	}
	return count
}

// SumEntries folds the full transaction log with sign, the invariant the
// balance must always equal.
func SumEntries(t *testing.T, db *sql.DB, accountID int64) int64 {
	t.Helper()

	var sum int64
	err := db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN kind = 'c' THEN amount ELSE -amount END), 0)
		 FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&sum)
	if err != nil {
		t.Fatalf("sum entries for account %d: %v", accountID, err)
	}
	return sum
}
