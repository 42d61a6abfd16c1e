package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// APIPrefix префикс версионированного API
const APIPrefix = "/api/v1"

// RouterOptions параметры маршрутизатора. Нулевой RateLimitRPS отключает ограничение.
type RouterOptions struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter настраивает маршруты и middleware
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/prometheus", promhttp.Handler())

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/predict", h.PredictHandler).Methods(http.MethodPost)
	api.HandleFunc("/predict/csv", h.PredictCSVHandler).Methods(http.MethodPost)
	api.HandleFunc("/predictions/latest", h.LatestPredictionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.StatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/reset", h.ResetStatsHandler).Methods(http.MethodPost)
	api.HandleFunc("/dashboard", h.DashboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/config", h.GetConfigHandler).Methods(http.MethodGet)
	api.HandleFunc("/config", h.UpdateConfigHandler).Methods(http.MethodPost)
	api.HandleFunc("/config/history", h.ThresholdHistoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/retrain", h.RetrainHandler).Methods(http.MethodPost)
	api.HandleFunc("/retrain/status", h.RetrainStatusHandler).Methods(http.MethodGet)

	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}
	api.Use(rateLimitMiddleware(rate.NewLimiter(limit, opts.RateLimitBurst)))

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(h.logger))
	router.Use(metricsMiddleware)

	return router
}
