package server

import (
	"errors"
	"net/http"
	"strings"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	tablesessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/pkg/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrTooManyRequests    = errors.New("too_many_requests")
)

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
		c.Header("Content-Type", "application/json")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, employeedomain.ErrPINMismatch),
		errors.Is(err, employeedomain.ErrEmployeeRetired):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable), db.IsTransientErr(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "storage_unavailable",
			Message: "storage unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog tags request log lines with a coarse error type and
// the sentinel code, keeping expected domain failures out of the error
// level noise.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status == http.StatusConflict:
		return "conflict", err.Error()
	case status == http.StatusNotFound:
		return "not_found", "not_found"
	default:
		return "client", payload.Type
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isTableValidationError(err),
		isTariffValidationError(err),
		isShiftValidationError(err),
		isMemberValidationError(err),
		isInventoryValidationError(err),
		isBillingValidationError(err),
		isEmployeeValidationError(err):
		return true
	case errors.Is(err, tablesessiondomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

// Conflicts are state-machine refusals: the request was well formed but
// the resource is not in a state that admits it.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tablesessiondomain.ErrAlreadyOccupied),
		errors.Is(err, tabledomain.ErrTableOccupied),
		errors.Is(err, tablesessiondomain.ErrInvalidState),
		errors.Is(err, tablesessiondomain.ErrConflict),
		errors.Is(err, shiftdomain.ErrShiftAlreadyActive),
		errors.Is(err, shiftdomain.ErrShiftNotActive),
		errors.Is(err, shiftdomain.ErrRegisterBusy),
		errors.Is(err, billingdomain.ErrSessionStillOpen),
		errors.Is(err, billingdomain.ErrSessionAlreadyBilled),
		errors.Is(err, billingdomain.ErrAlreadyVoided),
		errors.Is(err, tabledomain.ErrDuplicateCode),
		errors.Is(err, memberdomain.ErrDuplicatePhone),
		errors.Is(err, inventorydomain.ErrDuplicateSKU),
		errors.Is(err, employeedomain.ErrDuplicateCode):
		return true
	default:
		return false
	}
}

// Unprocessable requests are semantically rejected: tender short of the
// total, no rate in force, item out of stock.
func isUnprocessableError(err error) bool {
	switch {
	case errors.Is(err, tariffdomain.ErrNoApplicableRate),
		errors.Is(err, billingdomain.ErrInsufficientTender),
		errors.Is(err, inventorydomain.ErrInsufficientStock),
		errors.Is(err, inventorydomain.ErrItemInactive),
		errors.Is(err, memberdomain.ErrMemberInactive),
		errors.Is(err, tablesessiondomain.ErrTableRetired):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tabledomain.ErrNotFound),
		errors.Is(err, tablesessiondomain.ErrNotFound),
		errors.Is(err, tariffdomain.ErrNotFound),
		errors.Is(err, shiftdomain.ErrNotFound),
		errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, inventorydomain.ErrNotFound),
		errors.Is(err, billingdomain.ErrNotFound),
		errors.Is(err, employeedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func isTableValidationError(err error) bool {
	switch err {
	case tabledomain.ErrInvalidCode,
		tabledomain.ErrInvalidTableType,
		tabledomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isTariffValidationError(err error) bool {
	switch err {
	case tariffdomain.ErrInvalidTableType,
		tariffdomain.ErrInvalidName,
		tariffdomain.ErrInvalidRate,
		tariffdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isShiftValidationError(err error) bool {
	switch err {
	case shiftdomain.ErrInvalidRegister,
		shiftdomain.ErrInvalidAmount,
		shiftdomain.ErrInvalidMovementType,
		shiftdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isMemberValidationError(err error) bool {
	switch err {
	case memberdomain.ErrInvalidPhone,
		memberdomain.ErrInvalidName,
		memberdomain.ErrInvalidTier,
		memberdomain.ErrInvalidMinutes,
		memberdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isInventoryValidationError(err error) bool {
	switch err {
	case inventorydomain.ErrInvalidSKU,
		inventorydomain.ErrInvalidName,
		inventorydomain.ErrInvalidPrice,
		inventorydomain.ErrInvalidQty,
		inventorydomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isBillingValidationError(err error) bool {
	switch err {
	case billingdomain.ErrInvalidPayment,
		billingdomain.ErrInvalidAmount,
		billingdomain.ErrInvalidQty,
		billingdomain.ErrEmptyBill,
		billingdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isEmployeeValidationError(err error) bool {
	switch err {
	case employeedomain.ErrInvalidCode,
		employeedomain.ErrInvalidName,
		employeedomain.ErrInvalidRole,
		employeedomain.ErrInvalidPIN,
		employeedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
