package validation

import (
	"strings"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/request"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// ValidateResolveSecurity validates a security resolution request.
func ValidateResolveSecurity(req request.ResolveSecurityRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Ticker) == "" {
		errors["ticker"] = "ticker is required"
	}
	if _, err := model.ParseSecurityType(req.SecurityType); err != nil {
		errors["securityType"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
