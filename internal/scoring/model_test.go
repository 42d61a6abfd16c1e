package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-scoring-service/internal/models"
)

func TestDefaultModel_Loads(t *testing.T) {
	m, err := DefaultModel()
	require.NoError(t, err)
	assert.NotEmpty(t, m.Name)
	assert.NotEmpty(t, m.Weights)
}

func TestLinearModel_ContributionsSumToLogit(t *testing.T) {
	m, err := DefaultModel()
	require.NoError(t, err)

	row := models.Transaction{
		Amount:             250000,
		LogAmount:          math.Log(250000),
		IsNight:            1,
		MonthlyOSChanges:   2,
		IsColdStart:        1,
		Direction:          "international",
		OSFamily:           "Android",
		PhoneBrand:         "Samsung",
		LoginFrequency7d:   0.5,
		LoginsLast7Days:    3,
		LoginsLast30Days:   10,
		FreqChange7dVsMean: 1.2,
	}.Features()

	probs, err := m.PredictProba([]models.FeatureRow{row})
	require.NoError(t, err)
	require.Len(t, probs, 1)

	contributions, err := m.Contributions(row)
	require.NoError(t, err)
	require.Len(t, contributions, len(models.FeatureNames))

	logit := m.Bias
	for _, c := range contributions {
		logit += c.ShapValue
	}
	assert.InDelta(t, 1/(1+math.Exp(-logit)), probs[0], 1e-12)

	for _, c := range contributions {
		if c.FeatureName == "direction" {
			assert.Equal(t, "international", c.FeatureValue)
			assert.Equal(t, 0.9, c.ShapValue)
		}
		if c.FeatureName == "phone_brand" {
			assert.Equal(t, 0.0, c.ShapValue, "unseen category contributes nothing")
		}
	}
}

func TestLinearModel_RiskierTransactionScoresHigher(t *testing.T) {
	m, err := DefaultModel()
	require.NoError(t, err)

	calm := models.Transaction{Amount: 500, LogAmount: math.Log(500), LoginsLast7Days: 10, LoginFrequency7d: 1.4, Direction: "domestic"}
	risky := models.Transaction{
		Amount: 900000, LogAmount: math.Log(900000), IsNight: 1, IsColdStart: 1,
		MonthlyOSChanges: 3, MonthlyPhoneModelChanges: 2, BurstinessLoginInterval: 1.5,
		Direction: "international", OSFamily: "Unknown",
	}

	probs, err := m.PredictProba([]models.FeatureRow{calm.Features(), risky.Features()})
	require.NoError(t, err)
	assert.Less(t, probs[0], probs[1])
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestParseLinearModel_RejectsUnknownFeatures(t *testing.T) {
	_, err := ParseLinearModel([]byte(`{"weights": {"not_a_feature": 1}}`))
	assert.Error(t, err)

	_, err = ParseLinearModel([]byte(`{"weights": {"direction": 1}}`))
	assert.Error(t, err, "categorical feature cannot carry a numeric weight")

	_, err = ParseLinearModel([]byte(`{"categorical": {"amount": {"x": 1}}}`))
	assert.Error(t, err)

	_, err = ParseLinearModel([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadLinearModel_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"tiny","bias":0,"weights":{"is_night":2}}`), 0o600))

	m, err := LoadLinearModel(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", m.Name)

	probs, err := m.PredictProba([]models.FeatureRow{models.Transaction{IsNight: 0}.Features()})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, probs[0], 1e-12)

	_, err = LoadLinearModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
