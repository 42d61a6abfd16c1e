// Package models содержит структуры данных для скоринга транзакций и статистики
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FeatureNames упорядоченный список признаков, ожидаемых моделью (25 штук)
var FeatureNames = []string{
	"amount",
	"log_amount",
	"hour_of_day",
	"day_of_week",
	"is_night",
	"is_weekend",
	"is_month_end",
	"is_month_start",
	"monthly_os_changes",
	"monthly_phone_model_changes",
	"logins_last_7_days",
	"logins_last_30_days",
	"login_frequency_7d",
	"login_frequency_30d",
	"freq_change_7d_vs_mean",
	"logins_7d_over_30d_ratio",
	"avg_login_interval_30d",
	"std_login_interval_30d",
	"ewm_login_interval_7d",
	"burstiness_login_interval",
	"zscore_avg_login_interval_7d",
	"is_cold_start",
	"os_family",
	"phone_brand",
	"direction",
}

// CategoricalFeatures признаки, значения которых являются текстом
var CategoricalFeatures = map[string]bool{
	"os_family":   true,
	"phone_brand": true,
	"direction":   true,
}

// RequiredFields ключи, обязательные во входном JSON-объекте транзакции
var RequiredFields = append([]string{"transaction_id"}, FeatureNames...)

// MissingFields возвращает обязательные ключи, отсутствующие в объекте
// или равные null, в порядке RequiredFields
func MissingFields(obj map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range RequiredFields {
		raw, ok := obj[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			missing = append(missing, name)
		}
	}
	return missing
}

// TransactionID непрозрачный идентификатор транзакции.
// В JSON принимается как число, так и строка.
type TransactionID string

// UnmarshalJSON принимает числовые и строковые идентификаторы
func (id *TransactionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("transaction_id must be a number or a string: %w", err)
	}
	*id = TransactionID(n.String())
	return nil
}

// Transaction входная транзакция с признаками модели
type Transaction struct {
	TransactionID TransactionID `json:"transaction_id"`

	Amount                   float64 `json:"amount" validate:"gte=0"`
	LogAmount                float64 `json:"log_amount"`
	HourOfDay                int     `json:"hour_of_day" validate:"gte=0,lte=23"`
	DayOfWeek                int     `json:"day_of_week" validate:"gte=0,lte=6"`
	IsNight                  int     `json:"is_night" validate:"oneof=0 1"`
	IsWeekend                int     `json:"is_weekend" validate:"oneof=0 1"`
	IsMonthEnd               int     `json:"is_month_end" validate:"oneof=0 1"`
	IsMonthStart             int     `json:"is_month_start" validate:"oneof=0 1"`
	MonthlyOSChanges         int     `json:"monthly_os_changes" validate:"gte=0"`
	MonthlyPhoneModelChanges int     `json:"monthly_phone_model_changes" validate:"gte=0"`
	LoginsLast7Days          int     `json:"logins_last_7_days" validate:"gte=0"`
	LoginsLast30Days         int     `json:"logins_last_30_days" validate:"gte=0"`
	LoginFrequency7d         float64 `json:"login_frequency_7d"`
	LoginFrequency30d        float64 `json:"login_frequency_30d"`
	FreqChange7dVsMean       float64 `json:"freq_change_7d_vs_mean"`
	Logins7dOver30dRatio     float64 `json:"logins_7d_over_30d_ratio"`
	AvgLoginInterval30d      float64 `json:"avg_login_interval_30d"`
	StdLoginInterval30d      float64 `json:"std_login_interval_30d"`
	EwmLoginInterval7d       float64 `json:"ewm_login_interval_7d"`
	BurstinessLoginInterval  float64 `json:"burstiness_login_interval"`
	ZScoreAvgLoginInterval7d float64 `json:"zscore_avg_login_interval_7d"`
	IsColdStart              int     `json:"is_cold_start" validate:"oneof=0 1"`
	OSFamily                 string  `json:"os_family"`
	PhoneBrand               string  `json:"phone_brand"`
	Direction                string  `json:"direction"`
}

// Feature значение одного признака
type Feature struct {
	Name   string
	Number float64
	Text   string
}

// IsCategorical сообщает, является ли признак текстовым
func (f Feature) IsCategorical() bool {
	return CategoricalFeatures[f.Name]
}

// String возвращает значение признака в текстовом виде
func (f Feature) String() string {
	if f.IsCategorical() {
		return f.Text
	}
	return strconv.FormatFloat(f.Number, 'f', -1, 64)
}

// FeatureRow вектор признаков одной транзакции в порядке FeatureNames
type FeatureRow []Feature

// Get возвращает признак по имени
func (r FeatureRow) Get(name string) (Feature, bool) {
	for _, f := range r {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Features собирает вектор признаков транзакции
func (t Transaction) Features() FeatureRow {
	num := func(name string, v float64) Feature { return Feature{Name: name, Number: v} }
	txt := func(name, v string) Feature { return Feature{Name: name, Text: v} }

	return FeatureRow{
		num("amount", t.Amount),
		num("log_amount", t.LogAmount),
		num("hour_of_day", float64(t.HourOfDay)),
		num("day_of_week", float64(t.DayOfWeek)),
		num("is_night", float64(t.IsNight)),
		num("is_weekend", float64(t.IsWeekend)),
		num("is_month_end", float64(t.IsMonthEnd)),
		num("is_month_start", float64(t.IsMonthStart)),
		num("monthly_os_changes", float64(t.MonthlyOSChanges)),
		num("monthly_phone_model_changes", float64(t.MonthlyPhoneModelChanges)),
		num("logins_last_7_days", float64(t.LoginsLast7Days)),
		num("logins_last_30_days", float64(t.LoginsLast30Days)),
		num("login_frequency_7d", t.LoginFrequency7d),
		num("login_frequency_30d", t.LoginFrequency30d),
		num("freq_change_7d_vs_mean", t.FreqChange7dVsMean),
		num("logins_7d_over_30d_ratio", t.Logins7dOver30dRatio),
		num("avg_login_interval_30d", t.AvgLoginInterval30d),
		num("std_login_interval_30d", t.StdLoginInterval30d),
		num("ewm_login_interval_7d", t.EwmLoginInterval7d),
		num("burstiness_login_interval", t.BurstinessLoginInterval),
		num("zscore_avg_login_interval_7d", t.ZScoreAvgLoginInterval7d),
		num("is_cold_start", float64(t.IsColdStart)),
		txt("os_family", t.OSFamily),
		txt("phone_brand", t.PhoneBrand),
		txt("direction", t.Direction),
	}
}
