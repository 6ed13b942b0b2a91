package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/corebank/backend/internal/middleware"
	"github.com/corebank/backend/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// sendServiceError translates domain errors to HTTP status codes.
func sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidOperation):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrCreditLimitExceeded):
		SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
	case errors.Is(err, models.ErrAccountBlocked),
		errors.Is(err, models.ErrUserBlocked):
		SendErrorResponse(w, err.Error(), http.StatusLocked, nil)
	case errors.Is(err, models.ErrAccessDenied):
		SendErrorResponse(w, err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, models.ErrUnauthenticated):
		SendErrorResponse(w, err.Error(), http.StatusUnauthorized, nil)
	default:
		SendErrorResponse(w, "internal server error", http.StatusInternalServerError, nil)
	}
}

// callerID pulls the authenticated user out of the request context.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		SendErrorResponse(w, models.ErrUnauthenticated.Error(), http.StatusUnauthorized, nil)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		SendErrorResponse(w, "invalid request body", http.StatusBadRequest, nil)
		return false
	}
	return true
}
