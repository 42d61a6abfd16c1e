package models

// Verdict итоговое решение скоринга
type Verdict string

const (
	// VerdictBlock транзакция заблокирована
	VerdictBlock Verdict = "BLOCK"
	// VerdictPass транзакция пропущена
	VerdictPass Verdict = "PASS"
)

// Explanation вклад одного признака в итоговую оценку
type Explanation struct {
	FeatureName  string  `json:"feature_name"`
	FeatureValue string  `json:"feature_value"`
	ShapValue    float64 `json:"shap_value"`
}

// ScoringResult результат скоринга одной транзакции.
// Нулевое значение допустимо: сумма 0, вердикт не BLOCK.
type ScoringResult struct {
	TransactionID TransactionID `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	Score         float64       `json:"score"`
	Verdict       Verdict       `json:"verdict"`
	Explanation   []Explanation `json:"explanation"`
}

// IsBlocked сообщает, была ли транзакция заблокирована
func (r ScoringResult) IsBlocked() bool {
	return r.Verdict == VerdictBlock
}

// ThresholdUpdate результат изменения порога блокировки
type ThresholdUpdate struct {
	Status       string  `json:"status"`
	OldThreshold float64 `json:"old_threshold"`
	NewThreshold float64 `json:"new_threshold"`
}

// ThresholdConfig текущие пороги шлюза скоринга
type ThresholdConfig struct {
	Threshold     float64 `json:"threshold"`
	ShapThreshold float64 `json:"shap_threshold"`
}

// ConfigUpdate тело запроса POST /config
type ConfigUpdate struct {
	Threshold *float64 `json:"threshold" validate:"required"`
}
