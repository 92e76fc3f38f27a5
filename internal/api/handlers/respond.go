package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marvey11/codescape-financial-api/internal/contracts"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondFailure maps the domain error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is logged and reported as a 500 with msg.
func respondFailure(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	switch {
	case errors.Is(err, contracts.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contracts.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func decodeBody(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	return nil
}
