// Package scoring реализует шлюз скоринга: вызывает классификатор,
// сравнивает вероятность с порогом блокировки и, выше порога объяснений,
// строит ранжированное объяснение по признакам.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"fraud-scoring-service/internal/apperrors"
	"fraud-scoring-service/internal/models"
)

const (
	// DefaultBlockThreshold порог блокировки по умолчанию
	DefaultBlockThreshold = 0.85
	// DefaultShapThreshold порог расчета объяснений по умолчанию
	DefaultShapThreshold = 0.5
	// MaxExplanationFeatures сколько признаков попадает в объяснение
	MaxExplanationFeatures = 5
)

// Gateway шлюз скоринга с изменяемыми порогами
type Gateway struct {
	classifier Classifier
	explainer  Explainer

	mu            sync.RWMutex
	threshold     float64
	shapThreshold float64

	windowMu sync.Mutex
	window   *SlidingWindow
}

// NewGateway создает шлюз. classifier может быть nil: тогда скоринг
// возвращает ошибку MODEL_UNAVAILABLE, а пороги остаются управляемыми.
func NewGateway(classifier Classifier, explainer Explainer, threshold, shapThreshold float64) (*Gateway, error) {
	if err := validateThreshold("threshold", threshold); err != nil {
		return nil, err
	}
	if err := validateThreshold("shap_threshold", shapThreshold); err != nil {
		return nil, err
	}
	return &Gateway{
		classifier:    classifier,
		explainer:     explainer,
		threshold:     threshold,
		shapThreshold: shapThreshold,
		window:        NewSlidingWindow(DriftWindowSize),
	}, nil
}

func validateThreshold(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return apperrors.NewInvalidArgument(fmt.Sprintf("%s must be between 0.0 and 1.0", name))
	}
	return nil
}

// Ready сообщает, загружена ли модель
func (g *Gateway) Ready() bool {
	return g.classifier != nil
}

// Threshold возвращает текущий порог блокировки
func (g *Gateway) Threshold() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.threshold
}

// ShapThreshold возвращает текущий порог расчета объяснений
func (g *Gateway) ShapThreshold() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.shapThreshold
}

// Config возвращает оба порога одним снимком
func (g *Gateway) Config() models.ThresholdConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return models.ThresholdConfig{Threshold: g.threshold, ShapThreshold: g.shapThreshold}
}

// SetThreshold меняет порог блокировки. Значение вне [0, 1] отклоняется
// с ошибкой INVALID_ARGUMENT, текущий порог при этом не меняется.
func (g *Gateway) SetThreshold(value float64) (models.ThresholdUpdate, error) {
	if err := validateThreshold("threshold", value); err != nil {
		return models.ThresholdUpdate{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.threshold
	g.threshold = value
	return models.ThresholdUpdate{
		Status:       "updated",
		OldThreshold: old,
		NewThreshold: value,
	}, nil
}

// ScoreBatch оценивает транзакции и возвращает по результату на каждую,
// в порядке входа. Пустой вход дает пустой результат без ошибки.
func (g *Gateway) ScoreBatch(txs []models.Transaction) ([]models.ScoringResult, error) {
	if len(txs) == 0 {
		return []models.ScoringResult{}, nil
	}
	if g.classifier == nil {
		return nil, apperrors.NewModelUnavailable("ML model is not loaded")
	}

	for i, tx := range txs {
		if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
			return nil, apperrors.NewInvalidArgument(fmt.Sprintf("transaction %d: amount must be a finite number", i))
		}
	}

	// Пороги фиксируются на весь пакет
	cfg := g.Config()

	rows := make([]models.FeatureRow, len(txs))
	for i, tx := range txs {
		rows[i] = tx.Features()
	}

	probs, err := g.classifier.PredictProba(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(probs) != len(rows) {
		return nil, fmt.Errorf("predict: classifier returned %d scores for %d rows", len(probs), len(rows))
	}

	results := make([]models.ScoringResult, len(txs))
	for i, p := range probs {
		verdict := models.VerdictPass
		if p >= cfg.Threshold {
			verdict = models.VerdictBlock
		}

		var explanation []models.Explanation
		if p >= cfg.ShapThreshold && g.explainer != nil {
			explanation, err = g.explain(rows[i])
			if err != nil {
				return nil, fmt.Errorf("explain row %d: %w", i, err)
			}
		}

		results[i] = models.ScoringResult{
			TransactionID: txs[i].TransactionID,
			Amount:        txs[i].Amount,
			Score:         p,
			Verdict:       verdict,
			Explanation:   explanation,
		}
	}

	g.observe(probs)
	return results, nil
}

// explain ранжирует вклады по модулю и оставляет топ признаков
func (g *Gateway) explain(row models.FeatureRow) ([]models.Explanation, error) {
	contributions, err := g.explainer.Contributions(row)
	if err != nil {
		return nil, err
	}
	ranked := make([]models.Explanation, len(contributions))
	copy(ranked, contributions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].ShapValue) > math.Abs(ranked[j].ShapValue)
	})
	if len(ranked) > MaxExplanationFeatures {
		ranked = ranked[:MaxExplanationFeatures]
	}
	return ranked, nil
}

func (g *Gateway) observe(probs []float64) {
	g.windowMu.Lock()
	defer g.windowMu.Unlock()
	for _, p := range probs {
		g.window.Add(p)
	}
}

// DriftStats скользящая статистика последних оценок
type DriftStats struct {
	Mean    float64
	StdDev  float64
	Samples int
}

// ScoreDrift возвращает статистику по окну последних оценок
func (g *Gateway) ScoreDrift() DriftStats {
	g.windowMu.Lock()
	defer g.windowMu.Unlock()
	return DriftStats{
		Mean:    g.window.Mean(),
		StdDev:  g.window.StdDev(),
		Samples: g.window.Count(),
	}
}
