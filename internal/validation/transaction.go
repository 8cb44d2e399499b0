package validation

import (
	"strings"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/request"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - accountId, userId: Must be valid UUIDs
//   - date: Must be in YYYY-MM-DD format
//   - transactionType, transactionSubtype, transactionCategory: Must be known values,
//     and the subtype must belong to the type
//
// Investment transactions additionally require:
//   - securityId, or ticker together with securityType
//   - quantity and pricePerShare: Must be positive
//   - transactionAmount: Must equal quantity × pricePerShare
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.AccountID); err != nil {
		errors["accountId"] = err.Error()
	}
	if err := ValidateUUID(req.UserID); err != nil {
		errors["userId"] = err.Error()
	}

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := ParseDate(req.Date); err != nil {
		errors["date"] = err.Error()
	}

	txType, typeOK := validateType(errors, req.Type)
	if typeOK {
		validateSubtype(errors, txType, req.Subtype)
	}
	validateCategory(errors, req.Category)

	if typeOK && txType == model.TransactionTypeInvestment {
		switch {
		case strings.TrimSpace(req.SecurityID) != "":
			if strings.TrimSpace(req.Ticker) != "" {
				errors["ticker"] = "provide either securityId or ticker, not both"
			}
		case strings.TrimSpace(req.Ticker) != "":
			if _, err := model.ParseSecurityType(req.SecurityType); err != nil {
				errors["securityType"] = err.Error()
			}
		default:
			errors["securityId"] = "securityId or ticker is required for investment transactions"
		}
		validateAmounts(errors, req.Amount, req.Quantity, req.PricePerShare)
	}

	if typeOK && txType == model.TransactionTypeBanking {
		if req.SecurityID != "" || req.Ticker != "" {
			errors["securityId"] = "banking transactions do not reference a security"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// All fields are optional, but if provided, they must be well formed.
// The merged transaction is checked again with ValidateTransaction.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	if req.AccountID != nil {
		if err := ValidateUUID(*req.AccountID); err != nil {
			errors["accountId"] = err.Error()
		}
	}
	if req.Date != nil {
		if strings.TrimSpace(*req.Date) == "" {
			errors["date"] = "date is required"
		} else if _, err := ParseDate(*req.Date); err != nil {
			errors["date"] = err.Error()
		}
	}
	if req.Type != nil {
		validateType(errors, *req.Type)
	}
	if req.Category != nil {
		validateCategory(errors, *req.Category)
	}
	if req.SecurityID != nil && strings.TrimSpace(*req.SecurityID) == "" {
		errors["securityId"] = "securityId cannot be empty"
	}
	if req.Quantity != nil && !req.Quantity.IsPositive() {
		errors["quantity"] = "quantity must be positive"
	}
	if req.PricePerShare != nil && !req.PricePerShare.IsPositive() {
		errors["pricePerShare"] = "pricePerShare must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateTransaction checks the cross-field rules of a complete transaction,
// such as one produced by merging an update onto a stored transaction.
func ValidateTransaction(t model.Transaction) error {
	errors := make(map[string]string)

	if _, err := model.ParseTransactionSubtype(t.Type, string(t.Subtype)); err != nil {
		errors["transactionSubtype"] = err.Error()
	}

	switch t.Type {
	case model.TransactionTypeInvestment:
		if strings.TrimSpace(t.SecurityID) == "" {
			errors["securityId"] = "securityId is required for investment transactions"
		}
		validateAmounts(errors, t.Amount, t.Quantity, t.PricePerShare)
	case model.TransactionTypeBanking:
		if t.SecurityID != "" {
			errors["securityId"] = "banking transactions do not reference a security"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

func validateType(errors map[string]string, s string) (model.TransactionType, bool) {
	if strings.TrimSpace(s) == "" {
		errors["transactionType"] = "transactionType is required"
		return "", false
	}
	t, err := model.ParseTransactionType(s)
	if err != nil {
		errors["transactionType"] = err.Error()
		return "", false
	}
	return t, true
}

func validateSubtype(errors map[string]string, t model.TransactionType, s string) {
	if strings.TrimSpace(s) == "" {
		errors["transactionSubtype"] = "transactionSubtype is required"
		return
	}
	if _, err := model.ParseTransactionSubtype(t, s); err != nil {
		errors["transactionSubtype"] = err.Error()
	}
}

func validateCategory(errors map[string]string, s string) {
	if strings.TrimSpace(s) == "" {
		errors["transactionCategory"] = "transactionCategory is required"
		return
	}
	if _, err := model.ParseTransactionCategory(s); err != nil {
		errors["transactionCategory"] = err.Error()
	}
}
