package models

import "time"

// StatsSnapshot копия накопительных счетчиков агрегатора
type StatsSnapshot struct {
	TransactionsChecked   int64   `json:"transactions_checked"`
	FraudBlockedCount     int64   `json:"fraud_blocked_count"`
	TransactionsPassed    int64   `json:"transactions_passed"`
	MoneySavedTotal       float64 `json:"money_saved_total"`
	FalsePositiveEstimate int64   `json:"false_positive_estimate"`
}

// Incident заблокированная транзакция для ленты последних инцидентов
type Incident struct {
	ID       TransactionID `json:"id"`
	Amount   float64       `json:"amount"`
	Risk     float64       `json:"risk"`
	Severity string        `json:"severity"`
	Time     string        `json:"time"`
}

// ThresholdChange запись журнала изменений порога
type ThresholdChange struct {
	Timestamp time.Time `json:"timestamp"`
	OldValue  float64   `json:"old_value"`
	NewValue  float64   `json:"new_value"`
}

// KPI ключевые показатели дашборда
type KPI struct {
	MoneySaved          float64 `json:"money_saved"`
	AttacksBlocked      int64   `json:"attacks_blocked"`
	Accuracy            float64 `json:"accuracy"`
	FalsePositiveRate   float64 `json:"false_positive_rate"`
	TransactionsChecked int64   `json:"transactions_checked"`
	TransactionsPassed  int64   `json:"transactions_passed"`
}

// TimeSeriesPoint точка почасового временного ряда
type TimeSeriesPoint struct {
	Time         string `json:"time"`
	Transactions int64  `json:"transactions"`
	Blocked      int64  `json:"blocked"`
	Attacks      int64  `json:"attacks"`
}

// AmountBucket столбец гистограммы сумм заблокированных транзакций
type AmountBucket struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
	Color string `json:"color"`
}

// Dashboard синтезированное представление для дашборда
type Dashboard struct {
	KPI                KPI               `json:"kpi"`
	TimeSeries         []TimeSeriesPoint `json:"time_series"`
	AmountDistribution []AmountBucket    `json:"amount_distribution"`
	TopIncidents       []Incident        `json:"top_incidents"`
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Model     string    `json:"model"`
	Uptime    string    `json:"uptime"`

	Predictions *PredictionCounters `json:"predictions,omitempty"`
}

// PredictionCounters счетчики ленты предсказаний в Redis
type PredictionCounters struct {
	Total   int64 `json:"total"`
	Blocked int64 `json:"blocked"`
}
