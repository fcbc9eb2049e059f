package domain

// Account is catalog metadata, provisioned out of band and immutable for the
// lifetime of the service. Limit is the maximum magnitude by which the
// balance may go negative, in cents.
type Account struct {
	ID    int64
	Name  string
	Limit int64
}

// Balance is the single authoritative signed value for an account, in cents.
// Mutated only through the store's atomic apply.
type Balance struct {
	AccountID int64
	Amount    int64
}
