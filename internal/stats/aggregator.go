// Package stats реализует агрегатор статистики скоринга.
// Накопительные счетчики, почасовые бакеты, гистограмма сумм
// и лента последних инцидентов обновляются под одним мьютексом.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/models"
)

const (
	// MaxIncidents сколько последних инцидентов хранит агрегатор
	MaxIncidents = 20
	// DashboardIncidents сколько инцидентов отдается в дашборд
	DashboardIncidents = 10
	// FalsePositiveRatio эвристическая доля ложных срабатываний среди блокировок
	FalsePositiveRatio = 0.008
	// DefaultAccuracy точность, отдаваемая до первой проверенной транзакции
	DefaultAccuracy = 99.2
	// TimeSeriesHours длина временного ряда дашборда
	TimeSeriesHours = 24

	// HighSeverityScore нижняя граница уровня high
	HighSeverityScore = 0.85
	// MediumSeverityScore нижняя граница уровня medium
	MediumSeverityScore = 0.7

	incidentTimeLayout = "15:04:05"
)

// amountRanges границы бакетов гистограммы, нижняя граница включительно
var amountRanges = []struct {
	label string
	upper float64
}{
	{"0-10K", 10000},
	{"10K-50K", 50000},
	{"50K-100K", 100000},
	{"100K-500K", 500000},
	{"500K+", math.Inf(1)},
}

// rangeColors цвета столбцов гистограммы по метке диапазона
var rangeColors = map[string]string{
	"0-10K":     "#00d26a",
	"10K-50K":   "#6c5ce7",
	"50K-100K":  "#ffa502",
	"100K-500K": "#ff6b81",
	"500K+":     "#ff4757",
}

// hourlyBucket внутреннее представление часового бакета
type hourlyBucket struct {
	transactions    int64
	blocked         int64
	attacksDetected int64
	moneySaved      decimal.Decimal
}

// aggregateState все, что сбрасывается через Reset
type aggregateState struct {
	transactionsChecked   int64
	fraudBlockedCount     int64
	transactionsPassed    int64
	moneySavedTotal       decimal.Decimal
	falsePositiveEstimate int64

	hourly             map[string]*hourlyBucket
	amountDistribution [5]int64
	topIncidents       []models.Incident
}

func newAggregateState() aggregateState {
	return aggregateState{
		hourly:       make(map[string]*hourlyBucket),
		topIncidents: make([]models.Incident, 0, MaxIncidents),
	}
}

// Aggregator потокобезопасный накопитель результатов скоринга.
// Каждый метод захватывает мьютекс на все время выполнения.
type Aggregator struct {
	mu               sync.Mutex
	state            aggregateState
	thresholdHistory []models.ThresholdChange
	now              func() time.Time
}

// Option настраивает агрегатор
type Option func(*Aggregator)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator создает агрегатор с пустым состоянием
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		state: newAggregateState(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HourKey возвращает ключ часового бакета вида "HH:00"
func HourKey(t time.Time) string {
	return t.Format("15") + ":00"
}

// Severity возвращает уровень инцидента по оценке риска
func Severity(score float64) string {
	switch {
	case score >= HighSeverityScore:
		return "high"
	case score >= MediumSeverityScore:
		return "medium"
	default:
		return "low"
	}
}

// amountBucketIndex возвращает индекс бакета гистограммы для суммы
func amountBucketIndex(amount float64) int {
	for i, r := range amountRanges {
		if amount < r.upper {
			return i
		}
	}
	return len(amountRanges) - 1
}

// ErrInvalidResult результат пакета содержит нечисловую сумму или оценку
var ErrInvalidResult = errors.New("invalid scoring result")

// Update атомарно применяет пакет результатов скоринга.
// Все элементы пакета попадают в бакет часа, в который пришел вызов.
// Пакет с нечисловыми значениями отклоняется целиком до любых изменений.
func (a *Aggregator) Update(batch []models.ScoringResult) error {
	// Суммы переводятся в decimal до захвата состояния
	amounts := make([]decimal.Decimal, len(batch))
	for i, r := range batch {
		if !isFinite(r.Amount) || !isFinite(r.Score) {
			return fmt.Errorf("%w: item %d (transaction %s) has non-finite amount or score", ErrInvalidResult, i, r.TransactionID)
		}
		if r.IsBlocked() {
			amounts[i] = decimal.NewFromFloat(r.Amount)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	bucket := a.bucketLocked(HourKey(now))

	count := int64(len(batch))
	a.state.transactionsChecked += count
	bucket.transactions += count

	for i, r := range batch {
		if !r.IsBlocked() {
			a.state.transactionsPassed++
			continue
		}

		amount := amounts[i]

		a.state.fraudBlockedCount++
		a.state.moneySavedTotal = a.state.moneySavedTotal.Add(amount)

		bucket.blocked++
		bucket.attacksDetected++
		bucket.moneySaved = bucket.moneySaved.Add(amount)

		a.state.amountDistribution[amountBucketIndex(r.Amount)]++

		a.pushIncidentLocked(models.Incident{
			ID:       r.TransactionID,
			Amount:   r.Amount,
			Risk:     r.Score,
			Severity: Severity(r.Score),
			Time:     now.Format(incidentTimeLayout),
		})
	}

	// Пересчитывается с нуля, а не накапливается
	a.state.falsePositiveEstimate = int64(math.Floor(float64(a.state.fraudBlockedCount) * FalsePositiveRatio))
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// bucketLocked возвращает бакет часа, создавая его при первом обращении
func (a *Aggregator) bucketLocked(key string) *hourlyBucket {
	b, ok := a.state.hourly[key]
	if !ok {
		b = &hourlyBucket{}
		a.state.hourly[key] = b
	}
	return b
}

// pushIncidentLocked добавляет инцидент в начало ленты и обрезает ее до MaxIncidents
func (a *Aggregator) pushIncidentLocked(inc models.Incident) {
	incidents := a.state.topIncidents
	if len(incidents) < MaxIncidents {
		incidents = append(incidents, models.Incident{})
	}
	copy(incidents[1:], incidents[:len(incidents)-1])
	incidents[0] = inc
	a.state.topIncidents = incidents
}

// Stats возвращает копию накопительных счетчиков
func (a *Aggregator) Stats() models.StatsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() models.StatsSnapshot {
	return models.StatsSnapshot{
		TransactionsChecked:   a.state.transactionsChecked,
		FraudBlockedCount:     a.state.fraudBlockedCount,
		TransactionsPassed:    a.state.transactionsPassed,
		MoneySavedTotal:       a.state.moneySavedTotal.InexactFloat64(),
		FalsePositiveEstimate: a.state.falsePositiveEstimate,
	}
}

// Dashboard синтезирует представление для дашборда.
// Состояние не изменяется: отсутствующие бакеты читаются как нулевые.
func (a *Aggregator) Dashboard() models.Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	s := a.snapshotLocked()

	accuracy := DefaultAccuracy
	if s.TransactionsChecked > 0 {
		accuracy = round2(float64(s.TransactionsChecked-s.FalsePositiveEstimate) / float64(s.TransactionsChecked) * 100)
	}
	checked := s.TransactionsChecked
	if checked < 1 {
		checked = 1
	}

	kpi := models.KPI{
		MoneySaved:          s.MoneySavedTotal,
		AttacksBlocked:      s.FraudBlockedCount,
		Accuracy:            accuracy,
		FalsePositiveRate:   round2(float64(s.FalsePositiveEstimate) / float64(checked) * 100),
		TransactionsChecked: s.TransactionsChecked,
		TransactionsPassed:  s.TransactionsPassed,
	}

	// Ключ бакета не содержит даты: бакет 24 часа назад совпадает с текущим часом
	series := make([]models.TimeSeriesPoint, 0, TimeSeriesHours)
	for i := TimeSeriesHours; i >= 1; i-- {
		key := HourKey(now.Add(-time.Duration(i) * time.Hour))
		point := models.TimeSeriesPoint{Time: key}
		if b, ok := a.state.hourly[key]; ok {
			point.Transactions = b.transactions
			point.Blocked = b.blocked
			point.Attacks = b.attacksDetected
		}
		series = append(series, point)
	}

	distribution := make([]models.AmountBucket, len(amountRanges))
	for i, r := range amountRanges {
		distribution[i] = models.AmountBucket{
			Range: r.label,
			Count: a.state.amountDistribution[i],
			Color: rangeColors[r.label],
		}
	}

	n := len(a.state.topIncidents)
	if n > DashboardIncidents {
		n = DashboardIncidents
	}
	incidents := make([]models.Incident, n)
	copy(incidents, a.state.topIncidents[:n])

	return models.Dashboard{
		KPI:                kpi,
		TimeSeries:         series,
		AmountDistribution: distribution,
		TopIncidents:       incidents,
	}
}

// Reset обнуляет всю статистику, кроме журнала изменений порога
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = newAggregateState()
}

// RecordThresholdChange добавляет запись в журнал изменений порога
func (a *Aggregator) RecordThresholdChange(oldValue, newValue float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.thresholdHistory = append(a.thresholdHistory, models.ThresholdChange{
		Timestamp: a.now(),
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

// ThresholdHistory возвращает копию журнала изменений порога
func (a *Aggregator) ThresholdHistory() []models.ThresholdChange {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := make([]models.ThresholdChange, len(a.thresholdHistory))
	copy(history, a.thresholdHistory)
	return history
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
