package recur

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every error is terminal
// for the invocation that produced it: a failed operation leaves plans,
// subscriptions, and token accounts exactly as they were.
var (
	// General errors
	ErrNotFound      = errors.New("recur: not found")
	ErrAlreadyExists = errors.New("recur: already exists")
	ErrInvalidInput  = errors.New("recur: invalid input")
	ErrUnauthorized  = errors.New("recur: unauthorized")

	// Plan errors
	ErrInvalidTerms  = errors.New("recur: invalid plan terms")
	ErrDuplicatePlan = errors.New("recur: plan already exists for merchant and key")
	ErrPlanNotFound  = errors.New("recur: plan not found")
	ErrPlanInactive  = errors.New("recur: plan is not active")

	// Subscription errors
	ErrAlreadySubscribed    = errors.New("recur: subscriber already enrolled in plan")
	ErrSubscriptionNotFound = errors.New("recur: subscription not found")
	ErrSubscriptionInactive = errors.New("recur: subscription is not active")
	ErrPaymentNotDue        = errors.New("recur: payment not yet due")

	// Token ledger errors
	ErrAccountNotFound    = errors.New("recur: token account not found")
	ErrAccountMismatch    = errors.New("recur: account owner or denomination mismatch")
	ErrInsufficientFunds  = errors.New("recur: insufficient funds")
	ErrDelegationExceeded = errors.New("recur: transfer exceeds delegated allowance")
	ErrNotDelegate        = errors.New("recur: caller is not the account delegate")

	// Store errors
	ErrStoreNotReady   = errors.New("recur: store not ready")
	ErrStoreClosed     = errors.New("recur: store is closed")
	ErrMigrationFailed = errors.New("recur: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("recur: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsAuthorizationError returns true if the error indicates the caller
// lacked the right to act on the record or account.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotDelegate) ||
		errors.Is(err, ErrAccountMismatch)
}

// IsFundsError returns true if the error indicates the transfer could
// not be covered. A charge rejected for funds is retried by the next
// sweep once the subscription is due again.
func IsFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrDelegationExceeded)
}
