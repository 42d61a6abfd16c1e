// Package handlers содержит HTTP обработчики для API
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"fraud-scoring-service/internal/apperrors"
	"fraud-scoring-service/internal/cache"
	"fraud-scoring-service/internal/events"
	"fraud-scoring-service/internal/metrics"
	"fraud-scoring-service/internal/models"
	"fraud-scoring-service/internal/retrain"
	"fraud-scoring-service/internal/scoring"
	"fraud-scoring-service/internal/stats"
)

const (
	// DefaultLatestCount сколько предсказаний отдается без параметра count
	DefaultLatestCount = 50
	// MaxLatestCount верхняя граница параметра count
	MaxLatestCount = cache.MaxLatestPredictions

	maxJSONBody   = 10 << 20
	maxUploadSize = 32 << 20
)

// Deps зависимости обработчиков. Cache и Publisher необязательны.
type Deps struct {
	Aggregator *stats.Aggregator
	Gateway    *scoring.Gateway
	Retrain    *retrain.Manager
	Cache      *cache.RedisCache
	Publisher  events.Publisher
	Logger     *zap.Logger
}

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	aggregator *stats.Aggregator
	gateway    *scoring.Gateway
	retrain    *retrain.Manager
	cache      *cache.RedisCache
	publisher  events.Publisher
	validate   *validator.Validate
	logger     *zap.Logger
	startTime  time.Time
}

// NewHandler создает новый обработчик
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		aggregator: deps.Aggregator,
		gateway:    deps.Gateway,
		retrain:    deps.Retrain,
		cache:      deps.Cache,
		publisher:  deps.Publisher,
		validate:   newValidator(),
		logger:     logger.Named("http"),
		startTime:  time.Now(),
	}
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	var counters *models.PredictionCounters
	if h.cache != nil {
		redisStatus = "disconnected"
		if err := h.cache.Ping(r.Context()); err == nil {
			redisStatus = "connected"
			if c, err := h.cache.Counters(r.Context()); err == nil {
				counters = &c
			} else {
				h.logger.Warn("prediction counters", zap.Error(err))
			}
		}
	}

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Redis:     redisStatus,
		Model:     "loaded",
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),

		Predictions: counters,
	}
	if !h.gateway.Ready() {
		status.Status = "degraded"
		status.Model = "not_loaded"
	}

	h.respondJSON(w, status, http.StatusOK)
}

// LatestPredictionsHandler обрабатывает GET /predictions/latest - лента из Redis
func (h *Handler) LatestPredictionsHandler(w http.ResponseWriter, r *http.Request) {
	count := int64(DefaultLatestCount)
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		c, err := strconv.ParseInt(countStr, 10, 64)
		if err != nil || c <= 0 || c > MaxLatestCount {
			h.respondError(w, "count must be between 1 and "+strconv.Itoa(MaxLatestCount), http.StatusBadRequest)
			return
		}
		count = c
	}

	if h.cache == nil {
		h.respondError(w, "Cache not available", http.StatusServiceUnavailable)
		return
	}

	predictions, err := h.cache.GetLatestPredictions(r.Context(), count)
	if err != nil {
		h.logger.Error("latest predictions", zap.Error(err), zap.String("request_id", RequestIDFromContext(r.Context())))
		h.respondError(w, "Failed to get predictions", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, predictions, http.StatusOK)
}

// record применяет успешный пакет ко всем потребителям.
// Агрегатор обновляется ровно один раз на запрос; отклоненный им пакет
// дальше не передается.
func (h *Handler) record(ctx context.Context, results []models.ScoringResult) error {
	if err := h.aggregator.Update(results); err != nil {
		return err
	}
	metrics.ObserveResults(results)

	if h.cache != nil {
		if err := h.cache.CachePredictions(ctx, results); err != nil {
			metrics.CacheWriteErrors.Inc()
			h.logger.Warn("cache predictions", zap.Error(err))
		} else {
			metrics.CacheWrites.Inc()
		}
	}

	if h.publisher != nil {
		incidents := events.NewIncidentEvents(results, h.gateway.Threshold(), stats.Severity, time.Now())
		if len(incidents) == 0 {
			return nil
		}
		if err := h.publisher.PublishIncidents(ctx, incidents); err != nil {
			metrics.IncidentsPublished.WithLabelValues("error").Add(float64(len(incidents)))
			h.logger.Warn("publish incidents", zap.Error(err), zap.Int("count", len(incidents)))
			return nil
		}
		metrics.IncidentsPublished.WithLabelValues("ok").Add(float64(len(incidents)))
	}
	return nil
}

// respondScoringError переводит ошибку скоринга в HTTP статус
func (h *Handler) respondScoringError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperrors.IsModelUnavailable(err):
		h.respondError(w, "ML model is not loaded", http.StatusServiceUnavailable)
	case apperrors.IsInvalidArgument(err):
		h.respondError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("scoring failed", zap.Error(err), zap.String("request_id", RequestIDFromContext(r.Context())))
		h.respondError(w, "Scoring failed", http.StatusInternalServerError)
	}
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("encode response", zap.Error(err))
	}
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, map[string]string{"error": message}, status)
}
