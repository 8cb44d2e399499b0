package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEnumValue is returned when a string does not name a member of a closed enumeration.
var ErrUnknownEnumValue = errors.New("unknown enum value")

// TransactionType separates ledger entries that move securities from plain cash movements.
type TransactionType string

const (
	TransactionTypeInvestment TransactionType = "INVESTMENT"
	TransactionTypeBanking    TransactionType = "BANKING"
)

var transactionTypes = []TransactionType{TransactionTypeInvestment, TransactionTypeBanking}

// TransactionSubtype is the type-dependent kind of a transaction.
type TransactionSubtype string

const (
	SubtypeBuy      TransactionSubtype = "BUY"
	SubtypeSell     TransactionSubtype = "SELL"
	SubtypeDividend TransactionSubtype = "DIVIDEND"

	SubtypeCredit   TransactionSubtype = "CREDIT"
	SubtypeDebit    TransactionSubtype = "DEBIT"
	SubtypeTransfer TransactionSubtype = "TRANSFER"
	SubtypeInterest TransactionSubtype = "INTEREST"
)

var subtypesByType = map[TransactionType][]TransactionSubtype{
	TransactionTypeInvestment: {SubtypeBuy, SubtypeSell, SubtypeDividend},
	TransactionTypeBanking:    {SubtypeCredit, SubtypeDebit, SubtypeTransfer, SubtypeInterest},
}

// TransactionCategory is used for reporting only.
type TransactionCategory string

const (
	CategoryInvestment     TransactionCategory = "INVESTMENT"
	CategoryGroceries      TransactionCategory = "GROCERIES"
	CategoryDining         TransactionCategory = "DINING"
	CategoryShopping       TransactionCategory = "SHOPPING"
	CategoryTransportation TransactionCategory = "TRANSPORTATION"
	CategoryUtilities      TransactionCategory = "UTILITIES"
	CategoryHousing        TransactionCategory = "HOUSING"
	CategoryEntertainment  TransactionCategory = "ENTERTAINMENT"
	CategoryHealthcare     TransactionCategory = "HEALTHCARE"
	CategoryIncome         TransactionCategory = "INCOME"
	CategoryTransfer       TransactionCategory = "TRANSFER"
	CategoryOther          TransactionCategory = "OTHER"
)

var transactionCategories = []TransactionCategory{
	CategoryInvestment, CategoryGroceries, CategoryDining, CategoryShopping,
	CategoryTransportation, CategoryUtilities, CategoryHousing, CategoryEntertainment,
	CategoryHealthcare, CategoryIncome, CategoryTransfer, CategoryOther,
}

// SecurityType distinguishes exchange-listed stocks from crypto assets.
type SecurityType string

const (
	SecurityTypeStock  SecurityType = "STOCK"
	SecurityTypeCrypto SecurityType = "CRYPTO"
)

var securityTypes = []SecurityType{SecurityTypeStock, SecurityTypeCrypto}

// ParseTransactionType parses s case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	return parseEnum("transaction type", s, transactionTypes)
}

// ParseTransactionSubtype parses s as a subtype valid for the given transaction type.
func ParseTransactionSubtype(t TransactionType, s string) (TransactionSubtype, error) {
	valid, ok := subtypesByType[t]
	if !ok {
		return "", fmt.Errorf("%w: transaction type %q has no subtypes", ErrUnknownEnumValue, t)
	}
	return parseEnum(strings.ToLower(string(t))+" subtype", s, valid)
}

// ParseTransactionCategory parses s case-insensitively.
func ParseTransactionCategory(s string) (TransactionCategory, error) {
	return parseEnum("transaction category", s, transactionCategories)
}

// ParseSecurityType parses s case-insensitively.
func ParseSecurityType(s string) (SecurityType, error) {
	return parseEnum("security type", s, securityTypes)
}

// parseEnum never falls back to a default member: anything outside valid is an error
// listing the accepted values.
func parseEnum[T ~string](what, s string, valid []T) (T, error) {
	candidate := T(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range valid {
		if v == candidate {
			return v, nil
		}
	}

	names := make([]string, len(valid))
	for i, v := range valid {
		names[i] = string(v)
	}
	var zero T
	return zero, fmt.Errorf("%w: invalid %s %q, expected one of %s", ErrUnknownEnumValue, what, s, strings.Join(names, ", "))
}
