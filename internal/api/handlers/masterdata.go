package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// MasterDataHandler serves securities and exchanges
type MasterDataHandler struct {
	md     contracts.MasterData
	logger *logger.Logger
}

// NewMasterDataHandler creates a new master data handler
func NewMasterDataHandler(md contracts.MasterData, log *logger.Logger) *MasterDataHandler {
	return &MasterDataHandler{
		md:     md,
		logger: log,
	}
}

// ListSecurities GET /api/securities
func (h *MasterDataHandler) ListSecurities(w http.ResponseWriter, r *http.Request) {
	securities, err := h.md.ListSecurities(r.Context())
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to list securities")
		return
	}
	respondData(w, http.StatusOK, securities)
}

// GetSecurity GET /api/securities/{isin}
func (h *MasterDataHandler) GetSecurity(w http.ResponseWriter, r *http.Request) {
	sec, err := h.md.SecurityByISIN(r.Context(), mux.Vars(r)["isin"])
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to get security")
		return
	}
	respondData(w, http.StatusOK, sec)
}

// CreateSecurity POST /api/securities
func (h *MasterDataHandler) CreateSecurity(w http.ResponseWriter, r *http.Request) {
	var sec contracts.Security
	if err := decodeBody(r, &sec); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	sec.ISIN = strings.ToUpper(strings.TrimSpace(sec.ISIN))

	if err := h.md.CreateSecurity(r.Context(), sec); err != nil {
		respondFailure(w, h.logger, err, "Failed to create security")
		return
	}

	h.logger.WithField("isin", sec.ISIN).Info("Security created")
	respondData(w, http.StatusCreated, sec)
}

// ListExchanges GET /api/exchanges
func (h *MasterDataHandler) ListExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.md.ListExchanges(r.Context())
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to list exchanges")
		return
	}
	respondData(w, http.StatusOK, exchanges)
}

// CreateExchange POST /api/exchanges
func (h *MasterDataHandler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	ex, err := h.md.CreateExchange(r.Context(), strings.TrimSpace(body.Name))
	if err != nil {
		respondFailure(w, h.logger, err, "Failed to create exchange")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"id":   ex.ID,
		"name": ex.Name,
	}).Info("Exchange created")
	respondData(w, http.StatusCreated, ex)
}
