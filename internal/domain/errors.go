package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrLimitExceeded      = errors.New("limit exceeded")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidKind        = errors.New("kind must be credit or debit")
	ErrInvalidDescription = errors.New("description must be 1 to 10 characters")
	ErrInvalidRequest     = errors.New("invalid request")
)
