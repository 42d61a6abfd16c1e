// Package ingestion разбирает CSV-выгрузки транзакций для пакетного скоринга
// и считает метрики качества по размеченным выгрузкам.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"fraud-scoring-service/internal/models"
)

const (
	// ColumnTransactionID необязательная колонка идентификатора
	ColumnTransactionID = "transaction_id"
	// ColumnIsFraud необязательная колонка разметки (0/1)
	ColumnIsFraud = "is_fraud"
)

// ErrEmptyFile файл не содержит заголовка или строк
var ErrEmptyFile = errors.New("file is empty")

// MissingColumnsError в заголовке нет обязательных колонок
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Upload разобранная выгрузка
type Upload struct {
	Transactions []models.Transaction
	// Labels заполнен только при наличии колонки is_fraud
	Labels []bool
}

// HasLabels сообщает, размечена ли выгрузка
func (u *Upload) HasLabels() bool {
	return u.Labels != nil
}

// ParseTransactionsCSV разбирает CSV с 25 признаками модели.
// Порядок колонок произвольный; лишние колонки игнорируются.
func ParseTransactionsCSV(data []byte) (*Upload, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range models.FeatureNames {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	idCol, hasID := index[ColumnTransactionID]
	fraudCol, hasLabels := index[ColumnIsFraud]

	upload := &Upload{}
	if hasLabels {
		upload.Labels = []bool{}
	}

	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		tx, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		tx.TransactionID = models.TransactionID(strconv.Itoa(len(upload.Transactions) + 1))
		if hasID {
			if id := strings.TrimSpace(row[idCol]); id != "" {
				tx.TransactionID = models.TransactionID(id)
			}
		}

		if hasLabels {
			label, err := parseLabel(row[fraudCol])
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", lineNum, ColumnIsFraud, err)
			}
			upload.Labels = append(upload.Labels, label)
		}

		upload.Transactions = append(upload.Transactions, tx)
	}

	if len(upload.Transactions) == 0 {
		return nil, ErrEmptyFile
	}
	return upload, nil
}

func parseRow(row []string, index map[string]int) (models.Transaction, error) {
	var tx models.Transaction
	for name, field := range numericFields {
		raw := strings.TrimSpace(row[index[name]])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return tx, fmt.Errorf("%s: invalid number %q", name, raw)
		}
		if field.integer && v != math.Trunc(v) {
			return tx, fmt.Errorf("%s: must be an integer, got %q", name, raw)
		}
		field.set(&tx, v)
	}
	for name, set := range textFields {
		set(&tx, strings.TrimSpace(row[index[name]]))
	}
	return tx, nil
}

func parseLabel(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid label %q", raw)
	}
}
