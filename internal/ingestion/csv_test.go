package ingestion

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-scoring-service/internal/models"
)

func csvRow(values map[string]string) string {
	out := make([]string, len(models.FeatureNames))
	for i, name := range models.FeatureNames {
		v, ok := values[name]
		if !ok {
			if models.CategoricalFeatures[name] {
				v = "unknown"
			} else {
				v = "0"
			}
		}
		out[i] = v
	}
	return strings.Join(out, ",")
}

func featureHeader(extra ...string) string {
	return strings.Join(append(append([]string{}, extra...), models.FeatureNames...), ",")
}

func TestParseTransactionsCSV_Basic(t *testing.T) {
	data := featureHeader() + "\n" +
		csvRow(map[string]string{"amount": "15000.5", "is_night": "1", "direction": "international"}) + "\n" +
		csvRow(map[string]string{"amount": "20", "hour_of_day": "13.0", "os_family": " iOS"}) + "\n"

	upload, err := ParseTransactionsCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, upload.Transactions, 2)
	assert.False(t, upload.HasLabels())

	first := upload.Transactions[0]
	assert.Equal(t, models.TransactionID("1"), first.TransactionID)
	assert.Equal(t, 15000.5, first.Amount)
	assert.Equal(t, 1, first.IsNight)
	assert.Equal(t, "international", first.Direction)

	second := upload.Transactions[1]
	assert.Equal(t, models.TransactionID("2"), second.TransactionID)
	assert.Equal(t, 13, second.HourOfDay)
	assert.Equal(t, "iOS", second.OSFamily)
}

func TestParseTransactionsCSV_OptionalColumns(t *testing.T) {
	data := featureHeader("transaction_id", "is_fraud") + "\n" +
		"tx-9,1," + csvRow(map[string]string{"amount": "100"}) + "\n" +
		",0," + csvRow(map[string]string{"amount": "200"}) + "\n"

	upload, err := ParseTransactionsCSV([]byte(data))
	require.NoError(t, err)
	require.True(t, upload.HasLabels())
	assert.Equal(t, []bool{true, false}, upload.Labels)
	assert.Equal(t, models.TransactionID("tx-9"), upload.Transactions[0].TransactionID)
	assert.Equal(t, models.TransactionID("2"), upload.Transactions[1].TransactionID, "blank id falls back to row number")
}

func TestParseTransactionsCSV_MissingColumns(t *testing.T) {
	cols := make([]string, 0, len(models.FeatureNames))
	for _, name := range models.FeatureNames {
		if name == "is_night" || name == "direction" {
			continue
		}
		cols = append(cols, name)
	}
	data := strings.Join(cols, ",") + "\n"

	_, err := ParseTransactionsCSV([]byte(data))
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"is_night", "direction"}, missing.Columns)
	assert.Contains(t, err.Error(), "is_night, direction")
}

func TestParseTransactionsCSV_Empty(t *testing.T) {
	for _, data := range []string{"", "   \n", "\xef\xbb\xbf", featureHeader() + "\n"} {
		_, err := ParseTransactionsCSV([]byte(data))
		assert.ErrorIs(t, err, ErrEmptyFile, "input %q", data)
	}
}

func TestParseTransactionsCSV_BadValues(t *testing.T) {
	data := featureHeader() + "\n" + csvRow(map[string]string{"amount": "lots"}) + "\n"
	_, err := ParseTransactionsCSV([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "amount")

	labelled := featureHeader("is_fraud") + "\n" + "maybe," + csvRow(nil) + "\n"
	_, err = ParseTransactionsCSV([]byte(labelled))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_fraud")
}

func TestParseTransactionsCSV_NonFiniteNumbers(t *testing.T) {
	for _, raw := range []string{"Inf", "+Inf", "-Inf", "NaN", "1e400"} {
		data := featureHeader() + "\n" +
			csvRow(map[string]string{"amount": "500"}) + "\n" +
			csvRow(map[string]string{"amount": raw}) + "\n"
		_, err := ParseTransactionsCSV([]byte(data))
		require.Error(t, err, "amount %q", raw)
		assert.Contains(t, err.Error(), "line 3", "amount %q", raw)
		assert.Contains(t, err.Error(), "amount", "amount %q", raw)
	}

	data := featureHeader() + "\n" + csvRow(map[string]string{"login_frequency_7d": "NaN"}) + "\n"
	_, err := ParseTransactionsCSV([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "login_frequency_7d")
}

func TestParseTransactionsCSV_FractionalIntegerFeature(t *testing.T) {
	data := featureHeader() + "\n" + csvRow(map[string]string{"is_night": "0.7"}) + "\n"
	_, err := ParseTransactionsCSV([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "is_night")
	assert.Contains(t, err.Error(), "must be an integer")

	data = featureHeader() + "\n" + csvRow(map[string]string{"hour_of_day": "23.5"}) + "\n"
	_, err = ParseTransactionsCSV([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hour_of_day")

	data = featureHeader() + "\n" + csvRow(map[string]string{"login_frequency_7d": "0.7", "logins_last_7_days": "4.0"}) + "\n"
	upload, err := ParseTransactionsCSV([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 0.7, upload.Transactions[0].LoginFrequency7d)
	assert.Equal(t, 4, upload.Transactions[0].LoginsLast7Days)
}

func TestParseTransactionsCSV_BOMHeader(t *testing.T) {
	data := "\xef\xbb\xbf" + featureHeader() + "\n" + csvRow(map[string]string{"amount": "1"}) + "\n"
	upload, err := ParseTransactionsCSV([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 1.0, upload.Transactions[0].Amount)
}
