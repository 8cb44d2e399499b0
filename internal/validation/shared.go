package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
)

// Error reports request validation failures per field.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// validateAmounts enforces positive quantity and price, and amount == quantity × price.
func validateAmounts(errors map[string]string, amount, quantity, price decimal.Decimal) {
	if !quantity.IsPositive() {
		errors["quantity"] = "quantity must be positive"
	}
	if !price.IsPositive() {
		errors["pricePerShare"] = "pricePerShare must be positive"
	}
	if quantity.IsPositive() && price.IsPositive() {
		if expected := quantity.Mul(price); !amount.Equal(expected) {
			errors["transactionAmount"] = fmt.Sprintf("%s: got %s, want %s", apperrors.ErrAmountMismatch, amount, expected)
		}
	}
}
