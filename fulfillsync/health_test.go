package fulfillsync

import "testing"

func TestClassifyHealthCriticalOnErrorRate(t *testing.T) {
	snap := MetricsSnapshot{
		TotalOperations: 10,
		SuccessRate:     0.7,
		ErrorRate:       0.3,
		WindowHours:     24,
	}
	health := ClassifyHealth(snap, true)
	if health.Status != HealthStatusCritical {
		t.Fatalf("status = %s, want critical", health.Status)
	}
	if len(health.Issues) == 0 || len(health.Recommendations) == 0 {
		t.Fatalf("expected issues and recommendations, got %+v", health)
	}
}

func TestClassifyHealthHealthy(t *testing.T) {
	snap := MetricsSnapshot{
		TotalOperations:    50,
		SuccessRate:        1.0,
		ErrorRate:          0,
		AvgExecutionTimeMs: 120,
		WindowHours:        24,
	}
	health := ClassifyHealth(snap, true)
	if health.Status != HealthStatusHealthy {
		t.Fatalf("status = %s, want healthy (issues: %v)", health.Status, health.Issues)
	}
	if len(health.Issues) != 0 {
		t.Fatalf("healthy status with issues: %v", health.Issues)
	}
}

func TestClassifyHealthWarningWhenIdle(t *testing.T) {
	snap := MetricsSnapshot{WindowHours: 24}
	health := ClassifyHealth(snap, false)
	if health.Status != HealthStatusWarning {
		t.Fatalf("status = %s, want warning", health.Status)
	}
}

func TestClassifyHealthWarningOnSlowExecution(t *testing.T) {
	snap := MetricsSnapshot{
		TotalOperations:    20,
		SuccessRate:        1.0,
		AvgExecutionTimeMs: 6500,
		WindowHours:        24,
	}
	health := ClassifyHealth(snap, true)
	if health.Status != HealthStatusWarning {
		t.Fatalf("status = %s, want warning", health.Status)
	}
}

func TestClassifyHealthCriticalNotDowngraded(t *testing.T) {
	// Critical error rate plus slow execution: the later warning condition
	// must not lower the overall status.
	snap := MetricsSnapshot{
		TotalOperations:    10,
		SuccessRate:        0.6,
		ErrorRate:          0.4,
		AvgExecutionTimeMs: 9000,
		WindowHours:        24,
	}
	health := ClassifyHealth(snap, false)
	if health.Status != HealthStatusCritical {
		t.Fatalf("status = %s, want critical", health.Status)
	}
	if len(health.Issues) < 3 {
		t.Fatalf("issues = %v, want all conditions reported", health.Issues)
	}
}

func TestClassifyHealthZeroOperationsSkipsRateChecks(t *testing.T) {
	health := ClassifyHealth(MetricsSnapshot{WindowHours: 24}, true)
	if health.Status != HealthStatusHealthy {
		t.Fatalf("status = %s, want healthy for empty active window", health.Status)
	}
}
