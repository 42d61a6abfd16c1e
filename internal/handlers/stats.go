package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"fraud-scoring-service/internal/apperrors"
	"fraud-scoring-service/internal/metrics"
	"fraud-scoring-service/internal/models"
)

// StatsHandler обрабатывает GET /stats - накопительные счетчики
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.aggregator.Stats(), http.StatusOK)
}

// DashboardHandler обрабатывает GET /dashboard - данные для дашборда
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.aggregator.Dashboard(), http.StatusOK)
}

// ResetStatsHandler обрабатывает POST /stats/reset
func (h *Handler) ResetStatsHandler(w http.ResponseWriter, r *http.Request) {
	h.aggregator.Reset()
	h.logger.Info("stats reset", zap.String("request_id", RequestIDFromContext(r.Context())))
	h.respondJSON(w, map[string]string{"status": "stats reset"}, http.StatusOK)
}

// GetConfigHandler обрабатывает GET /config - текущие пороги
func (h *Handler) GetConfigHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.gateway.Config(), http.StatusOK)
}

// UpdateConfigHandler обрабатывает POST /config - смена порога блокировки.
// Журнал пополняется только при успешной смене.
func (h *Handler) UpdateConfigHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req models.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	update, err := h.gateway.SetThreshold(*req.Threshold)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.CodeInvalidArgument {
			h.respondError(w, appErr.Message, http.StatusBadRequest)
			return
		}
		h.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.aggregator.RecordThresholdChange(update.OldThreshold, update.NewThreshold)
	metrics.BlockThreshold.Set(update.NewThreshold)
	h.logger.Info("block threshold updated",
		zap.Float64("old", update.OldThreshold),
		zap.Float64("new", update.NewThreshold),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)

	h.respondJSON(w, update, http.StatusOK)
}

// ThresholdHistoryHandler обрабатывает GET /config/history - журнал изменений порога
func (h *Handler) ThresholdHistoryHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.aggregator.ThresholdHistory(), http.StatusOK)
}
