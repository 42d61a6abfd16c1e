package ingestion

import (
	"math"

	"github.com/shopspring/decimal"

	"fraud-scoring-service/internal/models"
)

// ConfusionMatrix матрица ошибок; положительным классом считается BLOCK
type ConfusionMatrix struct {
	TruePositives  int `json:"tp"`
	FalsePositives int `json:"fp"`
	TrueNegatives  int `json:"tn"`
	FalseNegatives int `json:"fn"`
}

// AccuracyMetrics метрики качества в процентах, округленные до 0.01
type AccuracyMetrics struct {
	Accuracy        float64         `json:"accuracy"`
	Precision       float64         `json:"precision"`
	Recall          float64         `json:"recall"`
	F1Score         float64         `json:"f1_score"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
}

// Summary сводка по выгрузке
type Summary struct {
	Total      int     `json:"total"`
	Blocked    int     `json:"blocked"`
	Passed     int     `json:"passed"`
	MoneySaved float64 `json:"money_saved"`
}

// ComputeAccuracy сравнивает вердикты с разметкой.
// Метрики считаются только по выгрузке и не зависят от агрегатора.
func ComputeAccuracy(results []models.ScoringResult, labels []bool) AccuracyMetrics {
	var cm ConfusionMatrix
	for i, r := range results {
		if i >= len(labels) {
			break
		}
		switch {
		case r.IsBlocked() && labels[i]:
			cm.TruePositives++
		case r.IsBlocked() && !labels[i]:
			cm.FalsePositives++
		case !r.IsBlocked() && labels[i]:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}

	total := cm.TruePositives + cm.FalsePositives + cm.TrueNegatives + cm.FalseNegatives
	precision := ratio(cm.TruePositives, cm.TruePositives+cm.FalsePositives)
	recall := ratio(cm.TruePositives, cm.TruePositives+cm.FalseNegatives)

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return AccuracyMetrics{
		Accuracy:        percent(ratio(cm.TruePositives+cm.TrueNegatives, total)),
		Precision:       percent(precision),
		Recall:          percent(recall),
		F1Score:         percent(f1),
		ConfusionMatrix: cm,
	}
}

// Summarize считает сводку по результатам скоринга
func Summarize(results []models.ScoringResult) Summary {
	s := Summary{Total: len(results)}
	saved := decimal.Zero
	for _, r := range results {
		if r.IsBlocked() {
			s.Blocked++
			saved = saved.Add(decimal.NewFromFloat(r.Amount))
		} else {
			s.Passed++
		}
	}
	s.MoneySaved = saved.InexactFloat64()
	return s
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func percent(v float64) float64 {
	return math.Round(v*100*100) / 100
}
