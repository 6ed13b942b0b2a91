package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/corebank/backend/internal/services"
)

// TransactionHandler serves the read side of the ledger.
type TransactionHandler struct {
	transactions *services.TransactionService
}

func NewTransactionHandler(transactions *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	record, err := h.transactions.GetByID(r.Context(), caller, chi.URLParam(r, "txId"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	history, err := h.transactions.ListByAccount(r.Context(), caller, chi.URLParam(r, "accountNumber"))
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *TransactionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "invalid user id", http.StatusBadRequest, nil)
		return
	}

	history, err := h.transactions.ListByUser(r.Context(), caller, userID)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (h *TransactionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			SendErrorResponse(w, "invalid limit", http.StatusBadRequest, nil)
			return
		}
		limit = parsed
	}

	history, err := h.transactions.ListAll(r.Context(), caller, limit)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
