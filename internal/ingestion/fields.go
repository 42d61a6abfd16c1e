package ingestion

import "fraud-scoring-service/internal/models"

type numericSetter func(*models.Transaction, float64)

// numericField колонка с числовым значением; integer запрещает дробную часть
type numericField struct {
	set     numericSetter
	integer bool
}

func floatField(set func(*models.Transaction, float64)) numericField {
	return numericField{set: set}
}

func intField(set func(*models.Transaction, int)) numericField {
	return numericField{
		set:     func(t *models.Transaction, v float64) { set(t, int(v)) },
		integer: true,
	}
}

type textSetter func(*models.Transaction, string)

// numericFields отображает колонку CSV в числовое поле транзакции
var numericFields = map[string]numericField{
	"amount":                       floatField(func(t *models.Transaction, v float64) { t.Amount = v }),
	"log_amount":                   floatField(func(t *models.Transaction, v float64) { t.LogAmount = v }),
	"hour_of_day":                  intField(func(t *models.Transaction, v int) { t.HourOfDay = v }),
	"day_of_week":                  intField(func(t *models.Transaction, v int) { t.DayOfWeek = v }),
	"is_night":                     intField(func(t *models.Transaction, v int) { t.IsNight = v }),
	"is_weekend":                   intField(func(t *models.Transaction, v int) { t.IsWeekend = v }),
	"is_month_end":                 intField(func(t *models.Transaction, v int) { t.IsMonthEnd = v }),
	"is_month_start":               intField(func(t *models.Transaction, v int) { t.IsMonthStart = v }),
	"monthly_os_changes":           intField(func(t *models.Transaction, v int) { t.MonthlyOSChanges = v }),
	"monthly_phone_model_changes":  intField(func(t *models.Transaction, v int) { t.MonthlyPhoneModelChanges = v }),
	"logins_last_7_days":           intField(func(t *models.Transaction, v int) { t.LoginsLast7Days = v }),
	"logins_last_30_days":          intField(func(t *models.Transaction, v int) { t.LoginsLast30Days = v }),
	"login_frequency_7d":           floatField(func(t *models.Transaction, v float64) { t.LoginFrequency7d = v }),
	"login_frequency_30d":          floatField(func(t *models.Transaction, v float64) { t.LoginFrequency30d = v }),
	"freq_change_7d_vs_mean":       floatField(func(t *models.Transaction, v float64) { t.FreqChange7dVsMean = v }),
	"logins_7d_over_30d_ratio":     floatField(func(t *models.Transaction, v float64) { t.Logins7dOver30dRatio = v }),
	"avg_login_interval_30d":       floatField(func(t *models.Transaction, v float64) { t.AvgLoginInterval30d = v }),
	"std_login_interval_30d":       floatField(func(t *models.Transaction, v float64) { t.StdLoginInterval30d = v }),
	"ewm_login_interval_7d":        floatField(func(t *models.Transaction, v float64) { t.EwmLoginInterval7d = v }),
	"burstiness_login_interval":    floatField(func(t *models.Transaction, v float64) { t.BurstinessLoginInterval = v }),
	"zscore_avg_login_interval_7d": floatField(func(t *models.Transaction, v float64) { t.ZScoreAvgLoginInterval7d = v }),
	"is_cold_start":                intField(func(t *models.Transaction, v int) { t.IsColdStart = v }),
}

// textFields отображает колонку CSV в категориальное поле транзакции
var textFields = map[string]textSetter{
	"os_family":   func(t *models.Transaction, v string) { t.OSFamily = v },
	"phone_brand": func(t *models.Transaction, v string) { t.PhoneBrand = v },
	"direction":   func(t *models.Transaction, v string) { t.Direction = v },
}
