package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	abstractdomain "github.com/modoocon/modoocon/internal/abstract/domain"
	eventdomain "github.com/modoocon/modoocon/internal/event/domain"
	exchangedomain "github.com/modoocon/modoocon/internal/exchange/domain"
	identitydomain "github.com/modoocon/modoocon/internal/identity/domain"
	institutiondomain "github.com/modoocon/modoocon/internal/institution/domain"
	paymentdomain "github.com/modoocon/modoocon/internal/payment/domain"
	"github.com/modoocon/modoocon/internal/payment/gateway"
	registrationdomain "github.com/modoocon/modoocon/internal/registration/domain"
	"gorm.io/gorm"
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain errors collected via c.Error into the
// stable machine-code JSON body. Handlers never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Code:    "validation_error",
			Message: vErr.Error(),
		}
	}

	var missingAnswer *registrationdomain.MissingAnswerError
	if errors.As(err, &missingAnswer) {
		return http.StatusBadRequest, errorPayload{
			Code:    "missing_answer",
			Message: missingAnswer.Error(),
		}
	}

	var mismatch *gateway.AmountMismatchError
	if errors.As(err, &mismatch) {
		return http.StatusBadRequest, errorPayload{
			Code:    "amount_mismatch",
			Message: mismatch.Error(),
		}
	}

	var transport *gateway.TransportError
	var provider *gateway.ProviderError
	if errors.As(err, &transport) || errors.As(err, &provider) {
		return http.StatusBadGateway, errorPayload{
			Code:    "gateway_error",
			Message: "payment gateway error",
		}
	}

	switch {
	case errors.Is(err, registrationdomain.ErrMissingInstitute):
		return http.StatusBadRequest, errorPayload{Code: "missing_institute", Message: "institution is required for this event"}
	case errors.Is(err, registrationdomain.ErrInvalidInstitution):
		return http.StatusBadRequest, errorPayload{Code: "invalid_institution", Message: "unknown institution"}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Code: "validation_error", Message: err.Error()}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Code: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, registrationdomain.ErrInvalidInvitationCode):
		return http.StatusForbidden, errorPayload{Code: "invalid_invitation_code", Message: "invitation code does not match"}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{Code: "forbidden", Message: "forbidden"}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Code: "not_found", Message: "not found"}
	case errors.Is(err, registrationdomain.ErrAlreadyRegistered):
		return http.StatusConflict, errorPayload{Code: "already_registered", Message: "already registered for this event"}
	case errors.Is(err, paymentdomain.ErrAlreadyPaid):
		return http.StatusConflict, errorPayload{Code: "already_paid", Message: "a completed payment already exists"}
	case errors.Is(err, registrationdomain.ErrEventFull):
		return http.StatusConflict, errorPayload{Code: "event_full", Message: "event is at capacity"}
	case errors.Is(err, registrationdomain.ErrPaymentRequired):
		return http.StatusConflict, errorPayload{Code: "payment_required_cancellation", Message: "cancel the completed payment first"}
	case errors.Is(err, paymentdomain.ErrNotCompleted):
		return http.StatusConflict, errorPayload{Code: "payment_not_completed", Message: "only completed payments can be cancelled"}
	case errors.Is(err, abstractdomain.ErrAlreadySubmitted):
		return http.StatusConflict, errorPayload{Code: "already_submitted", Message: "an abstract already exists for this event"}
	case errors.Is(err, abstractdomain.ErrVoteBudgetSpent):
		return http.StatusConflict, errorPayload{Code: "vote_budget_spent", Message: "vote budget for this event is spent"}
	case errors.Is(err, registrationdomain.ErrDeadlinePassed),
		errors.Is(err, abstractdomain.ErrDeadlinePassed):
		return http.StatusGone, errorPayload{Code: "deadline_passed", Message: "registration window is closed"}
	case errors.Is(err, exchangedomain.ErrRateUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Code: "rate_unavailable", Message: "exchange rate unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal server error"}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, identitydomain.ErrInvalidID),
		errors.Is(err, identitydomain.ErrInvalidEmail),
		errors.Is(err, identitydomain.ErrInvalidLocale),
		errors.Is(err, institutiondomain.ErrInvalidID),
		errors.Is(err, institutiondomain.ErrInvalidName),
		errors.Is(err, eventdomain.ErrInvalidID),
		errors.Is(err, eventdomain.ErrInvalidName),
		errors.Is(err, eventdomain.ErrInvalidWindow),
		errors.Is(err, eventdomain.ErrInvalidQuestionKind),
		errors.Is(err, eventdomain.ErrInvalidTemplateKind),
		errors.Is(err, registrationdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, abstractdomain.ErrInvalidID),
		errors.Is(err, abstractdomain.ErrInvalidTitle),
		errors.Is(err, abstractdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, institutiondomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, registrationdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, abstractdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger a low-cardinality error label.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Code
	case status >= http.StatusBadRequest:
		return "client_error", payload.Code
	default:
		return "", payload.Code
	}
}
