package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fraud-scoring-service/internal/models"
)

func result(verdict models.Verdict, amount float64) models.ScoringResult {
	return models.ScoringResult{Verdict: verdict, Amount: amount}
}

func TestComputeAccuracy(t *testing.T) {
	results := []models.ScoringResult{
		result(models.VerdictBlock, 1), // tp
		result(models.VerdictBlock, 1), // tp
		result(models.VerdictBlock, 1), // fp
		result(models.VerdictPass, 1),  // fn
		result(models.VerdictPass, 1),  // tn
		result(models.VerdictPass, 1),  // tn
		result(models.VerdictPass, 1),  // tn
		result(models.VerdictPass, 1),  // tn
	}
	labels := []bool{true, true, false, true, false, false, false, false}

	m := ComputeAccuracy(results, labels)
	assert.Equal(t, ConfusionMatrix{TruePositives: 2, FalsePositives: 1, TrueNegatives: 4, FalseNegatives: 1}, m.ConfusionMatrix)
	assert.Equal(t, 75.0, m.Accuracy)
	assert.Equal(t, 66.67, m.Precision)
	assert.Equal(t, 66.67, m.Recall)
	assert.Equal(t, 66.67, m.F1Score)
}

func TestComputeAccuracy_ZeroDenominators(t *testing.T) {
	m := ComputeAccuracy([]models.ScoringResult{result(models.VerdictPass, 1)}, []bool{false})
	assert.Equal(t, 100.0, m.Accuracy)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1Score)

	empty := ComputeAccuracy(nil, nil)
	assert.Equal(t, 0.0, empty.Accuracy)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.ScoringResult{
		result(models.VerdictBlock, 100.1),
		result(models.VerdictBlock, 200.2),
		result(models.VerdictPass, 5000),
	})
	assert.Equal(t, Summary{Total: 3, Blocked: 2, Passed: 1, MoneySaved: 300.3}, s)
}
