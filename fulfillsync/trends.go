package fulfillsync

import (
	"context"
	"sort"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"gorm.io/gorm"
)

const (
	TrendImproving  = "improving"
	TrendDeclining  = "declining"
	TrendStable     = "stable"
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
)

const (
	successRateSlopeThreshold = 0.01
	execTimeSlopeThreshold    = 100.0
	volumeSlopeThreshold      = 1.0
	minTrendPoints            = 3
)

type DailyStat struct {
	Date               string  `json:"date"`
	TotalOperations    int     `json:"total_operations"`
	SuccessRate        float64 `json:"success_rate"`
	AvgExecutionTimeMs float64 `json:"avg_execution_time_ms"`
	ErrorCount         int     `json:"error_count"`
}

type TrendSummary struct {
	SuccessRateTrend   string  `json:"success_rate_trend"`
	SuccessRateSlope   float64 `json:"success_rate_slope"`
	ExecutionTimeTrend string  `json:"execution_time_trend"`
	ExecutionTimeSlope float64 `json:"execution_time_slope"`
	VolumeTrend        string  `json:"volume_trend"`
	VolumeSlope        float64 `json:"volume_slope"`
}

type TrendReport struct {
	IntegrationType string       `json:"integration_type"`
	WindowDays      int          `json:"window_days"`
	DailyStats      []DailyStat  `json:"daily_stats"`
	Trends          TrendSummary `json:"trends"`
}

// ComputeTrends buckets the log by calendar day and classifies
// week-over-week direction from the sign of an ordinary-least-squares slope
// against day index. Fewer than three daily points is insufficient signal,
// not an error: everything reports stable.
func ComputeTrends(ctx context.Context, db *gorm.DB, integrationType string, daysBack int, storeId string) TrendReport {
	if daysBack <= 0 {
		daysBack = 7
	}
	report := TrendReport{
		IntegrationType: integrationType,
		WindowDays:      daysBack,
		DailyStats:      []DailyStat{},
		Trends: TrendSummary{
			SuccessRateTrend:   TrendStable,
			ExecutionTimeTrend: TrendStable,
			VolumeTrend:        TrendStable,
		},
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	query := db.WithContext(ctx).
		Where("integration_type = ? AND created_at >= ?", integrationType, cutoff)
	if storeId != "" {
		query = query.Where("store_id = ?", storeId)
	}

	var rows []models.IntegrationLog
	if err := query.Order("created_at asc").Find(&rows).Error; err != nil {
		config.LogError(config.GetLogger(), "trends.go", "ComputeTrends", "query log window", integrationType, err)
		return report
	}
	if len(rows) == 0 {
		return report
	}

	type dayAgg struct {
		total     int
		success   int
		failed    int
		execSum   int64
		execCount int64
	}
	days := make(map[string]*dayAgg)
	for _, row := range rows {
		key := row.CreatedAt.Format("2006-01-02")
		agg := days[key]
		if agg == nil {
			agg = &dayAgg{}
			days[key] = agg
		}
		agg.total++
		switch row.Status {
		case models.LogStatusSuccess:
			agg.success++
		case models.LogStatusFailure:
			agg.failed++
		}
		if row.ExecutionTimeMs != nil {
			agg.execSum += *row.ExecutionTimeMs
			agg.execCount++
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	successRates := make([]float64, 0, len(keys))
	execTimes := make([]float64, 0, len(keys))
	volumes := make([]float64, 0, len(keys))
	for _, k := range keys {
		agg := days[k]
		stat := DailyStat{
			Date:            k,
			TotalOperations: agg.total,
			ErrorCount:      agg.failed,
		}
		if agg.total > 0 {
			stat.SuccessRate = float64(agg.success) / float64(agg.total)
		}
		if agg.execCount > 0 {
			stat.AvgExecutionTimeMs = float64(agg.execSum) / float64(agg.execCount)
		}
		report.DailyStats = append(report.DailyStats, stat)
		successRates = append(successRates, stat.SuccessRate)
		execTimes = append(execTimes, stat.AvgExecutionTimeMs)
		volumes = append(volumes, float64(agg.total))
	}

	if len(report.DailyStats) < minTrendPoints {
		return report
	}

	report.Trends.SuccessRateSlope = olsSlope(successRates)
	report.Trends.ExecutionTimeSlope = olsSlope(execTimes)
	report.Trends.VolumeSlope = olsSlope(volumes)

	switch {
	case report.Trends.SuccessRateSlope > successRateSlopeThreshold:
		report.Trends.SuccessRateTrend = TrendImproving
	case report.Trends.SuccessRateSlope < -successRateSlopeThreshold:
		report.Trends.SuccessRateTrend = TrendDeclining
	}
	switch {
	case report.Trends.ExecutionTimeSlope < -execTimeSlopeThreshold:
		report.Trends.ExecutionTimeTrend = TrendImproving
	case report.Trends.ExecutionTimeSlope > execTimeSlopeThreshold:
		report.Trends.ExecutionTimeTrend = TrendDeclining
	}
	switch {
	case report.Trends.VolumeSlope > volumeSlopeThreshold:
		report.Trends.VolumeTrend = TrendIncreasing
	case report.Trends.VolumeSlope < -volumeSlopeThreshold:
		report.Trends.VolumeTrend = TrendDecreasing
	}

	return report
}

// olsSlope computes the ordinary-least-squares slope of values against their
// indices 0..n-1.
func olsSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
