package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/services"
)

// AccountHandler exposes the debit-account lifecycle and the cash
// operations: deposit and withdraw.
type AccountHandler struct {
	accounts *services.AccountService
	validate *ValidationHelper
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		validate: NewValidationHelper(),
	}
}

type cashRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Comment string          `json:"comment" validate:"max=255"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.CreateDebitAccount(r.Context(), caller)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, acc)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.GetAccount(r.Context(), caller, chi.URLParam(r, "accountNumber"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), caller)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	var req cashRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	acc, err := h.accounts.Deposit(r.Context(), chi.URLParam(r, "accountNumber"), req.Amount, req.Comment)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req cashRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	acc, err := h.accounts.Withdraw(r.Context(), caller, chi.URLParam(r, "accountNumber"), req.Amount, req.Comment)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), caller, chi.URLParam(r, "accountNumber")); err != nil {
		sendServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) BlockAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.BlockAccount(r.Context(), caller, chi.URLParam(r, "accountNumber"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) UnblockAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.UnblockAccount(r.Context(), caller, chi.URLParam(r, "accountNumber"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}
