package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidAction           = errors.New("invalid maturity action")
	ErrUnauthorized            = errors.New("position does not belong to user")
	ErrCalculationFailure      = errors.New("interest calculation failed")
	ErrPersistenceFailure      = errors.New("persistence failed")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrInvalidStatusTransition = errors.New("invalid alert status transition")
	ErrCacheError              = errors.New("cache operation failed")
	ErrConflict                = errors.New("conflicting state")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodePositionNotFound        = "POSITION_NOT_FOUND"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeAlertNotFound           = "ALERT_NOT_FOUND"
	ErrCodeAccrualRunNotFound      = "ACCRUAL_RUN_NOT_FOUND"
	ErrCodeInvalidAction           = "INVALID_ACTION"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeCalculationFailure      = "CALCULATION_FAILURE"
	ErrCodePersistenceFailure      = "PERSISTENCE_FAILURE"
	ErrCodeInvalidArgument         = "INVALID_ARGUMENT"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeCacheError              = "CACHE_ERROR"
	ErrCodeAlertAlreadyActive      = "ALERT_ALREADY_ACTIVE"
	ErrCodeProductInUse            = "PRODUCT_IN_USE"
)

// Code extracts the business code from err, or "" when err carries none.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapPositionNotFound(positionID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodePositionNotFound,
		fmt.Sprintf("Position with ID %s not found", positionID),
		ErrNotFound,
	)
}

func WrapProductNotFound(productID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeProductNotFound,
		fmt.Sprintf("Deposit product details %s not found", productID),
		ErrNotFound,
	)
}

func WrapAlertNotFound(alertID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeAlertNotFound,
		fmt.Sprintf("Maturity alert with ID %s not found", alertID),
		ErrNotFound,
	)
}

func WrapAccrualRunNotFound() *BusinessError {
	return NewBusinessError(
		ErrCodeAccrualRunNotFound,
		"No daily accrual run has been recorded yet",
		ErrNotFound,
	)
}

func WrapInvalidAction(action string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAction,
		fmt.Sprintf("Action %q is not one of RENEW, TRANSFER_TO_DEMAND, WITHDRAW", action),
		ErrInvalidAction,
	)
}

func WrapUnauthorized(userID string, positionID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeUnauthorized,
		fmt.Sprintf("Position %s does not belong to user %s", positionID, userID),
		ErrUnauthorized,
	)
}

// WrapCalculationFailure keeps both the category and the underlying cause reachable
// through errors.Is.
func WrapCalculationFailure(positionID fmt.Stringer, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCalculationFailure,
		fmt.Sprintf("Interest calculation for position %s failed", positionID),
		fmt.Errorf("%w: %w", ErrCalculationFailure, err),
	)
}

func WrapPersistenceFailure(err error) *BusinessError {
	return NewBusinessError(
		ErrCodePersistenceFailure,
		"database operation failed",
		fmt.Errorf("%w: %w", ErrPersistenceFailure, err),
	)
}

func WrapInvalidArgument(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidArgument,
		message,
		ErrInvalidArgument,
	)
}

func WrapInvalidStatusTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStatusTransition,
		fmt.Sprintf("Alert cannot move from %s to %s", from, to),
		ErrInvalidStatusTransition,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		fmt.Errorf("%w: %w", ErrCacheError, err),
	)
}

func WrapAlertAlreadyActive(positionID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeAlertAlreadyActive,
		fmt.Sprintf("Position %s already has a pending or notified maturity alert", positionID),
		ErrConflict,
	)
}

func WrapProductInUse(productID fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeProductInUse,
		fmt.Sprintf("Time deposit product %s already backs a position", productID),
		ErrConflict,
	)
}
