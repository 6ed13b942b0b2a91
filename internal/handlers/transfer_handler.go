package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/models"
	"github.com/corebank/backend/internal/services"
)

// TransferHandler exposes account-to-account transfers.
type TransferHandler struct {
	transfers *services.TransferService
	validate  *ValidationHelper
}

func NewTransferHandler(transfers *services.TransferService) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		validate:  NewValidationHelper(),
	}
}

type transferRequest struct {
	// FromAccount may be empty; the caller's main account is used then.
	FromAccount string          `json:"from_account" validate:"omitempty,len=10,numeric"`
	ToAccount   string          `json:"to_account" validate:"required,len=10,numeric"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Comment     string          `json:"comment" validate:"max=255"`
}

type transferResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	FromAccount *models.Account     `json:"from_account"`
}

func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	record, from, err := h.transfers.Transfer(r.Context(), caller, req.FromAccount, req.ToAccount, req.Amount, req.Comment)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transferResponse{Transaction: record, FromAccount: from})
}
