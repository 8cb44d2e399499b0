package request

// ResolveSecurityRequest is the body of POST /api/security/resolve.
type ResolveSecurityRequest struct {
	Ticker       string `json:"ticker"`
	SecurityType string `json:"securityType"`
}
