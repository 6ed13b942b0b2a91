package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/corebank/backend/internal/services"
)

// CreditHandler exposes credit-account administration: opening accounts,
// managing limits and rates, and triggering the accrual batch by hand.
type CreditHandler struct {
	credits  *services.CreditService
	validate *ValidationHelper
}

func NewCreditHandler(credits *services.CreditService) *CreditHandler {
	return &CreditHandler{
		credits:  credits,
		validate: NewValidationHelper(),
	}
}

type createCreditRequest struct {
	OwnerID         int64           `json:"owner_id"`
	CreditLimit     decimal.Decimal `json:"credit_limit" validate:"required"`
	InterestRate    decimal.Decimal `json:"interest_rate" validate:"required"`
	GracePeriodDays int             `json:"grace_period_days" validate:"gte=0"`
}

type limitRequest struct {
	NewLimit decimal.Decimal `json:"new_limit" validate:"required"`
}

type rateRequest struct {
	NewRate decimal.Decimal `json:"new_rate" validate:"required"`
}

func (h *CreditHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	ownerID := req.OwnerID
	if ownerID == 0 {
		ownerID = caller
	}

	acc, err := h.credits.CreateCreditAccount(r.Context(), caller, ownerID, req.CreditLimit, req.InterestRate, req.GracePeriodDays)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, acc)
}

func (h *CreditHandler) IncreaseLimit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req limitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	acc, err := h.credits.IncreaseCreditLimit(r.Context(), caller, chi.URLParam(r, "accountNumber"), req.NewLimit)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *CreditHandler) DecreaseLimit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req limitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	acc, err := h.credits.DecreaseCreditLimit(r.Context(), caller, chi.URLParam(r, "accountNumber"), req.NewLimit)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *CreditHandler) SetInterestRate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}

	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "validation failed", http.StatusBadRequest, err)
		return
	}

	acc, err := h.credits.SetInterestRate(r.Context(), caller, chi.URLParam(r, "accountNumber"), req.NewRate)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

// RunAccrual triggers the monthly interest batch outside its schedule.
// The scheduler calls the same service method on the first of each month.
func (h *CreditHandler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.credits.RequireAdmin(r.Context(), caller); err != nil {
		sendServiceError(w, err)
		return
	}

	charged, err := h.credits.AccrueMonthlyInterest(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"accounts_charged": charged})
}
