package handlers

import (
	"errors"
	"net/http"

	"fraud-scoring-service/internal/retrain"
)

// RetrainHandler обрабатывает POST /retrain - запуск имитации переобучения
func (h *Handler) RetrainHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.retrain.Start(r.Context())
	if errors.Is(err, retrain.ErrAlreadyRunning) {
		h.respondJSON(w, map[string]interface{}{
			"error":  err.Error(),
			"status": status,
		}, http.StatusConflict)
		return
	}
	if err != nil {
		h.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, status, http.StatusAccepted)
}

// RetrainStatusHandler обрабатывает GET /retrain/status
func (h *Handler) RetrainStatusHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.retrain.Status(), http.StatusOK)
}
