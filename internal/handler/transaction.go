package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/logging"
)

type ledgerService interface {
	Apply(ctx context.Context, accountID int64, op domain.Operation) (*domain.OperationResult, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(ledger ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

type postTransactionRequest struct {
	Amount      int64  `json:"amount"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func (r postTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if !domain.OperationKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: `must be "c" or "d"`})
	}
	if n := utf8.RuneCountInString(r.Description); n == 0 || n > domain.MaxDescriptionLen {
		errs = append(errs, FieldError{
			Field:   "description",
			Message: fmt.Sprintf("must be 1 to %d characters", domain.MaxDescriptionLen),
		})
	}
	return errs
}

type postTransactionResponse struct {
	Limit   int64 `json:"limit"`
	Balance int64 `json:"balance"`
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req postTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.ledger.Apply(r.Context(), accountID, domain.Operation{
		Amount:      req.Amount,
		Kind:        domain.OperationKind(req.Kind),
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("operation rejected", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, postTransactionResponse{
		Limit:   res.Limit,
		Balance: res.Balance,
	})
}
