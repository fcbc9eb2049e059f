package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/logging"
)

type statementService interface {
	Statement(ctx context.Context, accountID int64) (*domain.Statement, error)
}

type StatementHandler struct {
	ledger statementService
}

func NewStatementHandler(ledger statementService) *StatementHandler {
	return &StatementHandler{ledger: ledger}
}

type statementBalanceDTO struct {
	Total       int64     `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
	Limit       int64     `json:"limit"`
}

type statementEntryDTO struct {
	Amount      int64     `json:"amount"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type statementDTO struct {
	Balance          statementBalanceDTO `json:"balance"`
	LastTransactions []statementEntryDTO `json:"last_transactions"`
}

func toStatementDTO(st *domain.Statement) statementDTO {
	entries := make([]statementEntryDTO, len(st.Entries))
	for i, e := range st.Entries {
		entries[i] = statementEntryDTO{
			Amount:      e.Amount,
			Kind:        string(e.Kind),
			Description: e.Description,
			OccurredAt:  e.OccurredAt,
		}
	}
	return statementDTO{
		Balance: statementBalanceDTO{
			Total:       st.Balance,
			GeneratedAt: st.GeneratedAt,
			Limit:       st.Limit,
		},
		LastTransactions: entries,
	}
}

func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	st, err := h.ledger.Statement(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("statement rejected", "account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toStatementDTO(st))
}
