package httpx

import (
	"errors"
	"net/http"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validationErr *shared.ValidationError
		stockErr      *shared.StockError
		discountErr   *shared.DiscountExceededError
		transitionErr *shared.InvalidTransitionError
		conflictErr   *shared.ConflictError
		parseErr      *shared.ParseError
		persistErr    *shared.PersistenceError
	)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.As(err, &validationErr):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &stockErr):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.As(err, &discountErr):
		Problem(w, http.StatusUnprocessableEntity, "Discount Exceeded", err.Error())
	case errors.As(err, &transitionErr):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.As(err, &conflictErr):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &parseErr):
		Problem(w, http.StatusBadRequest, "Malformed Payload", err.Error())
	case errors.As(err, &persistErr):
		Problem(w, http.StatusInternalServerError, "Storage Error", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
