package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fraud-scoring-service/internal/ingestion"
	"fraud-scoring-service/internal/metrics"
	"fraud-scoring-service/internal/models"
)

// CSVPredictionResponse ответ на загрузку CSV
type CSVPredictionResponse struct {
	Results []models.ScoringResult     `json:"results"`
	Summary ingestion.Summary          `json:"summary"`
	Metrics *ingestion.AccuracyMetrics `json:"metrics,omitempty"`
}

// PredictHandler обрабатывает POST /predict - скоринг массива транзакций
func (h *Handler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var items []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		h.respondError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	txs := make([]models.Transaction, len(items))
	for i, item := range items {
		if err := decodeTransaction(item, &txs[i]); err != nil {
			h.respondError(w, fmt.Sprintf("transaction %d: %s", i, err), http.StatusBadRequest)
			return
		}
		if err := h.validate.Struct(txs[i]); err != nil {
			h.respondError(w, fmt.Sprintf("transaction %d: %s", i, validationMessage(err)), http.StatusBadRequest)
			return
		}
	}

	results, ok := h.score(w, r, txs)
	if !ok {
		return
	}
	h.respondJSON(w, results, http.StatusOK)
}

// decodeTransaction разбирает объект транзакции, требуя наличия всех признаков.
// Отсутствующий ключ иначе превратился бы в нулевое значение и прошел валидацию.
func decodeTransaction(raw json.RawMessage, tx *models.Transaction) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return errors.New("must be a JSON object")
	}
	if missing := models.MissingFields(obj); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := json.Unmarshal(raw, tx); err != nil {
		return fmt.Errorf("invalid field value: %v", err)
	}
	return nil
}

// PredictCSVHandler обрабатывает POST /predict/csv - пакетный скоринг выгрузки
func (h *Handler) PredictCSVHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.respondError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, "Missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}

	upload, err := ingestion.ParseTransactionsCSV(data)
	if err != nil {
		var missing *ingestion.MissingColumnsError
		switch {
		case errors.Is(err, ingestion.ErrEmptyFile):
			h.respondError(w, "File is empty", http.StatusBadRequest)
		case errors.As(err, &missing):
			h.respondError(w, missing.Error(), http.StatusBadRequest)
		default:
			h.respondError(w, "Invalid CSV: "+err.Error(), http.StatusBadRequest)
		}
		return
	}

	for i := range upload.Transactions {
		if err := h.validate.Struct(upload.Transactions[i]); err != nil {
			// Строка 1 занята заголовком
			h.respondError(w, fmt.Sprintf("line %d: %s", i+2, validationMessage(err)), http.StatusBadRequest)
			return
		}
	}

	results, ok := h.score(w, r, upload.Transactions)
	if !ok {
		return
	}

	response := CSVPredictionResponse{
		Results: results,
		Summary: ingestion.Summarize(results),
	}
	if upload.HasLabels() {
		m := ingestion.ComputeAccuracy(results, upload.Labels)
		response.Metrics = &m
	}
	h.respondJSON(w, response, http.StatusOK)
}

// score оценивает пакет и при успехе записывает результаты.
// При ошибке ответ уже отправлен и агрегатор не тронут.
func (h *Handler) score(w http.ResponseWriter, r *http.Request, txs []models.Transaction) ([]models.ScoringResult, bool) {
	start := time.Now()
	results, err := h.gateway.ScoreBatch(txs)
	metrics.ScoringLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		h.respondScoringError(w, r, err)
		return nil, false
	}

	if err := h.record(r.Context(), results); err != nil {
		h.respondScoringError(w, r, err)
		return nil, false
	}
	return results, true
}
