package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/marvey11/codescape-financial-api/internal/analytics"
	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// AnalyticsHandler serves the derived analytics
type AnalyticsHandler struct {
	engine *analytics.Engine
	logger *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(engine *analytics.Engine, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		engine: engine,
		logger: log,
	}
}

// PerformanceResponse pairs the latest and the baseline quote of one pair
type PerformanceResponse struct {
	ISIN           string          `json:"isin"`
	Name           string          `json:"name"`
	InstrumentType string          `json:"instrumentType"`
	Exchange       string          `json:"exchange"`
	LatestDate     string          `json:"latestDate"`
	LatestPrice    decimal.Decimal `json:"latestPrice"`
	BaseDate       string          `json:"baseDate"`
	BasePrice      decimal.Decimal `json:"basePrice"`
}

// RSLevyResponse is one RS Levy indicator value
type RSLevyResponse struct {
	ISIN           string  `json:"isin"`
	Name           string  `json:"name"`
	InstrumentType string  `json:"instrumentType"`
	Exchange       string  `json:"exchange"`
	Date           string  `json:"date"`
	RSLValue       float64 `json:"rslValue"`
}

// Performance returns latest and baseline quotes per pair
// GET /api/analytics/performance?unit=month&count=6
func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	unit, err := contracts.ParseUnit(q.Get("unit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	count, err := strconv.Atoi(q.Get("count"))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("count must be an integer, got %q", q.Get("count")))
		return
	}

	records, err := h.engine.PerformanceQuotes(r.Context(), contracts.Interval{Count: count, Unit: unit})
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to compute performance quotes")
		return
	}

	result := make([]PerformanceResponse, len(records))
	for i, rec := range records {
		result[i] = PerformanceResponse{
			ISIN:           rec.ISIN,
			Name:           rec.Name,
			InstrumentType: rec.InstrumentType,
			Exchange:       rec.Exchange,
			LatestDate:     rec.LatestDate.Format(contracts.DateFormat),
			LatestPrice:    rec.LatestPrice,
			BaseDate:       rec.BaseDate.Format(contracts.DateFormat),
			BasePrice:      rec.BasePrice,
		}
	}

	respondData(w, http.StatusOK, result)
}

// RSLevy returns the RS Levy indicator per pair
// GET /api/analytics/rsl?algorithm=weekly
func (h *AnalyticsHandler) RSLevy(w http.ResponseWriter, r *http.Request) {
	algo, err := contracts.ParseAlgorithm(r.URL.Query().Get("algorithm"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.engine.RSLevy(r.Context(), algo)
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to compute RS Levy")
		return
	}

	result := make([]RSLevyResponse, len(records))
	for i, rec := range records {
		result[i] = RSLevyResponse{
			ISIN:           rec.ISIN,
			Name:           rec.Name,
			InstrumentType: rec.InstrumentType,
			Exchange:       rec.Exchange,
			Date:           rec.Date.Format(contracts.DateFormat),
			RSLValue:       rec.RSLValue,
		}
	}

	respondData(w, http.StatusOK, result)
}
