package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/marvey11/codescape-financial-api/internal/analytics"
	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/internal/ingest"
	"github.com/marvey11/codescape-financial-api/internal/ledger"
	"github.com/marvey11/codescape-financial-api/internal/masterdata"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// QuoteHandler serves the quote ledger endpoints
// ⭐ SSOT: quote ledger API handlers live in this struct only
type QuoteHandler struct {
	ingest *ingest.Service
	ledger contracts.Ledger
	md     contracts.MasterData
	engine *analytics.Engine
	logger *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(svc *ingest.Service, l contracts.Ledger, md contracts.MasterData, engine *analytics.Engine, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		ingest: svc,
		ledger: l,
		md:     md,
		engine: engine,
		logger: log,
	}
}

// QuoteResponse is one stored quote
type QuoteResponse struct {
	Date  string          `json:"date"`
	Quote decimal.Decimal `json:"quote"`
}

// Ingest upserts a batch of quotes for one entity pair
// POST /api/quotes
func (h *QuoteHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingest.Request
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	res, err := h.ingest.Ingest(r.Context(), req)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to ingest quotes")
		return
	}

	respondData(w, http.StatusCreated, res)
}

// Query returns the quotes of one entity pair
// GET /api/quotes/{isin}/{exchange}?start=2024-01-01&end=2024-06-30
func (h *QuoteHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)

	sec, err := h.md.SecurityByISIN(ctx, vars["isin"])
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to resolve security")
		return
	}
	ex, err := masterdata.ResolveExchange(ctx, h.md, vars["exchange"])
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to resolve exchange")
		return
	}

	q := r.URL.Query()
	rng := ledger.ParseDateRange(q.Get("start"), q.Get("end"), time.Now())

	quotes, err := h.ledger.Query(ctx, sec.ISIN, ex.ID, rng)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to query quotes")
		return
	}

	result := make([]QuoteResponse, len(quotes))
	for i, qt := range quotes {
		result[i] = QuoteResponse{Date: qt.Date.Format(contracts.DateFormat), Quote: qt.Price}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"isin":     sec.ISIN,
		"exchange": ex.Name,
		"data":     result,
	})
}

// Count returns the number of stored quotes per entity pair
// GET /api/quotes/count
func (h *QuoteHandler) Count(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.QuoteCounts(r.Context())
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to count quotes")
		return
	}

	respondData(w, http.StatusOK, counts)
}
