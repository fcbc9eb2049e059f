package handler

import (
	"context"
	"net/http"

	"github.com/credigo/ledger/internal/domain"
	"github.com/credigo/ledger/internal/logging"
)

type accountService interface {
	Accounts(ctx context.Context) ([]domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Limit int64  `json:"limit"`
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.Accounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = accountDTO{ID: a.ID, Name: a.Name, Limit: a.Limit}
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
