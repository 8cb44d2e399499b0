package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/request"
	"github.com/ndewijer/Personal-Finance-Backend/internal/api/response"
	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
	"github.com/ndewijer/Personal-Finance-Backend/internal/validation"
)

// SecurityHandler handles HTTP requests for security and price endpoints.
type SecurityHandler struct {
	securityService *service.SecurityService
	priceService    *service.PriceService
}

// NewSecurityHandler creates a new SecurityHandler with the provided service dependencies.
func NewSecurityHandler(securityService *service.SecurityService, priceService *service.PriceService) *SecurityHandler {
	return &SecurityHandler{
		securityService: securityService,
		priceService:    priceService,
	}
}

// ResolveSecurity handles POST requests to resolve a ticker to a stored security,
// creating it from provider metadata on first reference.
//
// Endpoint: POST /api/security/resolve
// Request Body: ResolveSecurityRequest (ticker, securityType)
// Response: 200 OK with Security
// Response: 200 OK with {"status":"failure"} if the provider does not know the ticker
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if the provider cannot be reached
func (h *SecurityHandler) ResolveSecurity(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ResolveSecurityRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateResolveSecurity(req); err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToResolveSecurity)
		return
	}

	securityType, err := model.ParseSecurityType(req.SecurityType)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	security, err := h.securityService.Resolve(r.Context(), req.Ticker, securityType)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToResolveSecurity)
		return
	}

	response.RespondJSON(w, http.StatusOK, security)
}

// GetSecurity handles GET requests to retrieve a stored security with its cached price.
//
// Endpoint: GET /api/security/{securityId}
// Response: 200 OK with Security
// Error: 404 Not Found if security not found
func (h *SecurityHandler) GetSecurity(w http.ResponseWriter, r *http.Request) {
	securityID := chi.URLParam(r, "securityId")

	security, err := h.securityService.GetSecurity(r.Context(), securityID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSecurity)
		return
	}

	response.RespondJSON(w, http.StatusOK, security)
}

// GetPrice handles GET requests for a security with a price that is fresh now,
// refreshing it from the provider when the cached one has expired.
//
// Endpoint: GET /api/security/{securityId}/price
// Response: 200 OK with Security
// Error: 404 Not Found if security not found
// Error: 500 Internal Server Error if the price cannot be refreshed
func (h *SecurityHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	securityID := chi.URLParam(r, "securityId")

	security, err := h.priceService.GetPrice(r.Context(), securityID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrievePrice)
		return
	}

	response.RespondJSON(w, http.StatusOK, security)
}

// RefreshPrices handles POST requests to refresh every expired price now,
// outside the background schedule.
//
// Endpoint: POST /api/security/refresh-prices
// Response: 200 OK with RefreshResult
// Error: 500 Internal Server Error if the stale securities cannot be listed
func (h *SecurityHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	result, err := h.priceService.RefreshStale(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePrice.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
