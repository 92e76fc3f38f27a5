package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/marvey11/codescape-financial-api/internal/api/handlers"
	"github.com/marvey11/codescape-financial-api/pkg/logger"
)

// Handlers bundles the endpoint groups served by the router
type Handlers struct {
	Quotes     *handlers.QuoteHandler
	Analytics  *handlers.AnalyticsHandler
	MasterData *handlers.MasterDataHandler

	// Ping reports backing store health on /health; nil means always healthy
	Ping func(ctx context.Context) error
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routing is configured in this function only
func NewRouter(h Handlers, limiter Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(h.Ping, log)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Quote ledger
	api.HandleFunc("/quotes/count", h.Quotes.Count).Methods("GET")
	api.HandleFunc("/quotes/{isin}/{exchange}", h.Quotes.Query).Methods("GET")

	ingest := api.Path("/quotes").Subrouter()
	ingest.Use(rateLimitMiddleware(limiter, log))
	ingest.Methods("POST").HandlerFunc(h.Quotes.Ingest)

	// Analytics
	api.HandleFunc("/analytics/performance", h.Analytics.Performance).Methods("GET")
	api.HandleFunc("/analytics/rsl", h.Analytics.RSLevy).Methods("GET")

	// Master data
	api.HandleFunc("/securities", h.MasterData.ListSecurities).Methods("GET")
	api.HandleFunc("/securities", h.MasterData.CreateSecurity).Methods("POST")
	api.HandleFunc("/securities/{isin}", h.MasterData.GetSecurity).Methods("GET")
	api.HandleFunc("/exchanges", h.MasterData.ListExchanges).Methods("GET")
	api.HandleFunc("/exchanges", h.MasterData.CreateExchange).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return c.Handler(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(ping func(context.Context) error, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.WithError(err).Warn("Health check failed")
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  status,
			"service": "codescape-financial-api",
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// statusRecorder captures the status code written by the next handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
