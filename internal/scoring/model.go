package scoring

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"fraud-scoring-service/internal/models"
)

// Classifier отображает векторы признаков в вероятность мошенничества
type Classifier interface {
	PredictProba(rows []models.FeatureRow) ([]float64, error)
}

// Explainer возвращает вклад каждого признака в оценку транзакции
type Explainer interface {
	Contributions(row models.FeatureRow) ([]models.Explanation, error)
}

//go:embed default_model.json
var defaultModelJSON []byte

// LinearModel логистическая модель над числовыми и категориальными признаками.
// Вклады признаков аддитивны и совпадают с SHAP-значениями линейной модели.
type LinearModel struct {
	Name        string                        `json:"name"`
	Bias        float64                       `json:"bias"`
	Weights     map[string]float64            `json:"weights"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

// DefaultModel возвращает встроенную базовую модель
func DefaultModel() (*LinearModel, error) {
	return ParseLinearModel(defaultModelJSON)
}

// LoadLinearModel загружает модель из JSON-файла
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return ParseLinearModel(data)
}

// ParseLinearModel разбирает и проверяет описание модели
func ParseLinearModel(data []byte) (*LinearModel, error) {
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	known := make(map[string]bool, len(models.FeatureNames))
	for _, name := range models.FeatureNames {
		known[name] = true
	}
	for name := range m.Weights {
		if !known[name] || models.CategoricalFeatures[name] {
			return nil, fmt.Errorf("unknown numeric feature %q", name)
		}
	}
	for name := range m.Categorical {
		if !models.CategoricalFeatures[name] {
			return nil, fmt.Errorf("unknown categorical feature %q", name)
		}
	}
	return &m, nil
}

// contribution вклад одного признака в логит
func (m *LinearModel) contribution(f models.Feature) float64 {
	if f.IsCategorical() {
		return m.Categorical[f.Name][f.Text]
	}
	return m.Weights[f.Name] * f.Number
}

// PredictProba вычисляет вероятность мошенничества для каждой строки
func (m *LinearModel) PredictProba(rows []models.FeatureRow) ([]float64, error) {
	probs := make([]float64, len(rows))
	for i, row := range rows {
		logit := m.Bias
		for _, f := range row {
			logit += m.contribution(f)
		}
		p := 1 / (1 + math.Exp(-logit))
		if math.IsNaN(p) {
			return nil, fmt.Errorf("row %d: score is not a number", i)
		}
		probs[i] = p
	}
	return probs, nil
}

// Contributions возвращает вклады всех признаков в порядке строки
func (m *LinearModel) Contributions(row models.FeatureRow) ([]models.Explanation, error) {
	out := make([]models.Explanation, 0, len(row))
	for _, f := range row {
		out = append(out, models.Explanation{
			FeatureName:  f.Name,
			FeatureValue: f.String(),
			ShapValue:    m.contribution(f),
		})
	}
	return out, nil
}
