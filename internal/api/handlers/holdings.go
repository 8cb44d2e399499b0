package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/response"
	"github.com/ndewijer/Personal-Finance-Backend/internal/apperrors"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
)

// HoldingHandler handles HTTP requests for holding endpoints.
type HoldingHandler struct {
	holdingService *service.HoldingService
}

// NewHoldingHandler creates a new HoldingHandler with the provided service dependency.
func NewHoldingHandler(holdingService *service.HoldingService) *HoldingHandler {
	return &HoldingHandler{
		holdingService: holdingService,
	}
}

// RebuildResponse is the outcome of a holding rebuild. Holding is null when
// the replayed ledger leaves nothing to hold.
type RebuildResponse struct {
	Holding *model.Holding `json:"holding"`
}

// HoldingsPerAccount handles GET requests to retrieve every holding of an account.
//
// Endpoint: GET /api/holding/account/{uuid}
// Response: 200 OK with array of Holding
// Error: 400 Bad Request if account ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingHandler) HoldingsPerAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "uuid")

	holdings, err := h.holdingService.GetHoldingsForAccount(r.Context(), accountID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}

// GetHolding handles GET requests to retrieve the holding of one account/security pair.
//
// Endpoint: GET /api/holding/{accountId}/{securityId}
// Response: 200 OK with Holding
// Error: 400 Bad Request if account ID is invalid (validated by middleware)
// Error: 404 Not Found if the pair holds nothing
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingHandler) GetHolding(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	securityID := chi.URLParam(r, "securityId")

	holding, err := h.holdingService.GetHolding(r.Context(), accountID, securityID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveHolding)
		return
	}

	response.RespondJSON(w, http.StatusOK, holding)
}

// GetValuation handles GET requests to value a holding at the current security price.
// An expired cached price is refreshed from the market-data provider first.
//
// Endpoint: GET /api/holding/{accountId}/{securityId}/valuation
// Response: 200 OK with HoldingValuation
// Error: 404 Not Found if the pair holds nothing
// Error: 500 Internal Server Error if the price cannot be refreshed
func (h *HoldingHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	securityID := chi.URLParam(r, "securityId")

	valuation, err := h.holdingService.GetValuation(r.Context(), accountID, securityID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToValueHolding)
		return
	}

	response.RespondJSON(w, http.StatusOK, valuation)
}

// RebuildHolding handles POST requests to recompute a holding from its stored ledger.
//
// Endpoint: POST /api/holding/{accountId}/{securityId}/rebuild
// Response: 200 OK with RebuildResponse
// Response: 200 OK with {"status":"failure"} if the stored ledger itself is inconsistent
// Error: 500 Internal Server Error if the rebuild fails
func (h *HoldingHandler) RebuildHolding(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	securityID := chi.URLParam(r, "securityId")

	holding, err := h.holdingService.RebuildHolding(r.Context(), accountID, securityID)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRebuildHolding)
		return
	}

	response.RespondJSON(w, http.StatusOK, RebuildResponse{Holding: holding})
}
