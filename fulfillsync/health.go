package fulfillsync

import (
	"fmt"
	"time"
)

const (
	HealthStatusHealthy  = "healthy"
	HealthStatusWarning  = "warning"
	HealthStatusCritical = "critical"
)

const (
	healthWarningErrorRate   = 0.10
	healthCriticalErrorRate  = 0.25
	healthCriticalSuccessMin = 0.95
	healthSlowAvgExecMs      = 5000
	healthIdleWindow         = 6 * time.Hour
)

type HealthStatus struct {
	Status          string          `json:"status"`
	Issues          []string        `json:"issues"`
	Recommendations []string        `json:"recommendations"`
	CheckedAt       time.Time       `json:"checked_at"`
	Metrics         MetricsSnapshot `json:"metrics"`
}

// ClassifyHealth derives healthy/warning/critical status from a 24h metrics
// snapshot plus a recent-activity flag. Pure function: the caller supplies
// both inputs, nothing here touches the clock or the database beyond
// stamping CheckedAt.
func ClassifyHealth(snapshot MetricsSnapshot, hasRecentActivity bool) HealthStatus {
	health := HealthStatus{
		Status:          HealthStatusHealthy,
		Issues:          []string{},
		Recommendations: []string{},
		CheckedAt:       time.Now(),
		Metrics:         snapshot,
	}

	escalate := func(level string) {
		if level == HealthStatusCritical || (level == HealthStatusWarning && health.Status == HealthStatusHealthy) {
			health.Status = level
		}
	}

	if snapshot.TotalOperations > 0 && snapshot.ErrorRate > healthCriticalErrorRate {
		escalate(HealthStatusCritical)
		health.Issues = append(health.Issues,
			fmt.Sprintf("Error rate is %.1f%% over the last %dh", snapshot.ErrorRate*100, snapshot.WindowHours))
		health.Recommendations = append(health.Recommendations,
			"Check provider credentials and review recent failure log entries")
	} else if snapshot.TotalOperations > 0 && snapshot.ErrorRate > healthWarningErrorRate {
		escalate(HealthStatusWarning)
		health.Issues = append(health.Issues,
			fmt.Sprintf("Elevated error rate: %.1f%% over the last %dh", snapshot.ErrorRate*100, snapshot.WindowHours))
		health.Recommendations = append(health.Recommendations,
			"Review recent failures; a subset of operations is failing repeatedly")
	}

	if snapshot.TotalOperations > 0 && snapshot.SuccessRate < healthCriticalSuccessMin {
		escalate(HealthStatusCritical)
		health.Issues = append(health.Issues,
			fmt.Sprintf("Success rate dropped to %.1f%%", snapshot.SuccessRate*100))
		health.Recommendations = append(health.Recommendations,
			"Investigate failing operations and consider re-running the sync once resolved")
	}

	if snapshot.AvgExecutionTimeMs > healthSlowAvgExecMs {
		escalate(HealthStatusWarning)
		health.Issues = append(health.Issues,
			fmt.Sprintf("Average execution time is %.0fms", snapshot.AvgExecutionTimeMs))
		health.Recommendations = append(health.Recommendations,
			"Provider responses are slow; check provider status and network latency")
	}

	if !hasRecentActivity {
		escalate(HealthStatusWarning)
		health.Issues = append(health.Issues, "No integration activity in the last 6 hours")
		health.Recommendations = append(health.Recommendations,
			"Verify scheduled syncs are running and the integration is still connected")
	}

	return health
}
