// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fraud-scoring-service/internal/models"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraud_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// TransactionsScored количество оцененных транзакций по вердикту
	TransactionsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_transactions_scored_total",
			Help: "Total number of scored transactions by verdict",
		},
		[]string{"verdict"},
	)

	// MoneySaved сумма заблокированных транзакций
	MoneySaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_money_saved_total",
			Help: "Total amount of blocked transactions",
		},
	)

	// ScoreDistribution распределение оценок модели
	ScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_score",
			Help:    "Distribution of fraud probability scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	// ScoringLatency время скоринга пакета
	ScoringLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_scoring_latency_seconds",
			Help:    "Batch scoring latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
	)

	// BlockThreshold текущий порог блокировки
	BlockThreshold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_block_threshold",
			Help: "Current block threshold",
		},
	)

	// RollingAvgScore скользящее среднее оценки
	RollingAvgScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_rolling_avg_score",
			Help: "Rolling average of recent scores",
		},
	)

	// RollingStdDevScore скользящее стандартное отклонение оценки
	RollingStdDevScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_rolling_stddev_score",
			Help: "Rolling standard deviation of recent scores",
		},
	)

	// RollingWindowSamples число оценок в окне скользящей статистики
	RollingWindowSamples = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_rolling_window_samples",
			Help: "Number of scores in the rolling statistics window",
		},
	)

	// CacheWrites успешные записи в ленту предсказаний
	CacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_cache_writes_total",
			Help: "Total number of successful prediction feed writes",
		},
	)

	// CacheWriteErrors неудачные записи в ленту предсказаний
	CacheWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_cache_errors_total",
			Help: "Total number of failed prediction feed writes",
		},
	)

	// IncidentsPublished события, поставленные в очередь Kafka
	IncidentsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_incidents_published_total",
			Help: "Total number of incident events handed to Kafka",
		},
		[]string{"result"},
	)

	// RateLimited отклоненные ограничителем запросы
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// ActiveGoroutines количество активных горутин
	ActiveGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_active_goroutines",
			Help: "Number of active goroutines",
		},
	)

	// RetrainProgress прогресс имитации переобучения
	RetrainProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraud_retrain_progress_percent",
			Help: "Progress of the current retrain job",
		},
	)
)

// ObserveResults обновляет метрики по результатам пакета
func ObserveResults(results []models.ScoringResult) {
	for _, r := range results {
		TransactionsScored.WithLabelValues(string(r.Verdict)).Inc()
		ScoreDistribution.Observe(r.Score)
		if r.IsBlocked() {
			MoneySaved.Add(r.Amount)
		}
	}
}

// UpdateDriftMetrics обновляет метрики дрейфа оценок.
// Пустое окно не затирает последние опубликованные значения.
func UpdateDriftMetrics(mean, stdDev float64, samples int) {
	RollingWindowSamples.Set(float64(samples))
	if samples == 0 {
		return
	}
	RollingAvgScore.Set(mean)
	RollingStdDevScore.Set(stdDev)
}
