package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrHoldingNotFound indicates that no holding exists for an account/security pair.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSecurityNotFound indicates that no security is stored under the given ID.
	ErrSecurityNotFound = errors.New("security not found")

	// ErrSymbolNotFound indicates that the market-data provider does not know a ticker.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or constraint violations.
// These are caused by request data and are never retried.
var (
	// ErrInvalidHoldingUpdate indicates that replaying a transaction set violates a holding
	// invariant: an oversell, a transaction of another account or security, an unsupported
	// subtype, or an edit/delete against a holding that does not exist.
	ErrInvalidHoldingUpdate = errors.New("invalid holding update")

	// ErrSecurityDoesNotExist indicates that a ticker is unknown both to the store and to
	// the market-data provider.
	ErrSecurityDoesNotExist = errors.New("security does not exist")

	// ErrAmountMismatch indicates that an investment amount differs from quantity × price.
	ErrAmountMismatch = errors.New("transaction amount does not equal quantity times price")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// Validation errors for required fields
	ErrInvalidAccountID     = errors.New("account ID is required")
	ErrInvalidSecurityID    = errors.New("security ID is required")
	ErrInvalidTransactionID = errors.New("transaction ID is required")
	ErrInvalidTicker        = errors.New("ticker is required")
)

// Concurrency errors.
var (
	// ErrHoldingVersionConflict indicates that the holding changed between read and write.
	// The reconciliation is retried from a fresh read; callers only see it once retries run out.
	ErrHoldingVersionConflict = errors.New("holding was modified concurrently")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveHoldings     = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveHolding      = errors.New("failed to retrieve holding")
	ErrFailedToRebuildHolding       = errors.New("failed to rebuild holding")
	ErrFailedToValueHolding         = errors.New("failed to value holding")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToCreateTransaction    = errors.New("failed to create transaction")
	ErrFailedToUpdateTransaction    = errors.New("failed to update transaction")
	ErrFailedToDeleteTransaction    = errors.New("failed to delete transaction")
	ErrFailedToResolveSecurity      = errors.New("failed to resolve security")
	ErrFailedToRetrieveSecurity     = errors.New("failed to retrieve security")
	ErrFailedToRetrievePrice        = errors.New("failed to retrieve price")
)

// IsBusinessFailure reports whether err is an expected, client-caused failure that the API
// reports as a failure payload rather than an HTTP error.
func IsBusinessFailure(err error) bool {
	return errors.Is(err, ErrInvalidHoldingUpdate) || errors.Is(err, ErrSecurityDoesNotExist)
}
