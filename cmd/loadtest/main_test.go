package main

import (
	"testing"
	"time"
)

func TestBuildLatencySummary(t *testing.T) {
	summary := buildLatencySummary([]float64{5, 1, 3, 2, 4})

	if summary.Min != 1 || summary.Max != 5 {
		t.Fatalf("unexpected min/max: %+v", summary)
	}
	if summary.Avg != 3 {
		t.Fatalf("unexpected avg: %f", summary.Avg)
	}
	if summary.P50 != 3 {
		t.Fatalf("unexpected p50: %f", summary.P50)
	}
	if summary.P99 != 5 {
		t.Fatalf("unexpected p99: %f", summary.P99)
	}
}

func TestBuildLatencySummary_Empty(t *testing.T) {
	summary := buildLatencySummary(nil)
	if summary != (latencySummary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestPercentile_Bounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	if got := percentile(sorted, 0); got != 1 {
		t.Fatalf("p0 should clamp to first element, got %f", got)
	}
	if got := percentile(sorted, 100); got != 4 {
		t.Fatalf("p100 should be last element, got %f", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty slice should give 0, got %f", got)
	}
}

func TestCollector_RecordAndReport(t *testing.T) {
	stats := newCollector()
	stats.record("scenario", 10*time.Millisecond, 200)
	stats.record("scenario", 20*time.Millisecond, 500)
	stats.record("create_order", 5*time.Millisecond, 201)

	result := stats.buildReport(time.Now(), time.Second)

	if result.TotalScenarios != 2 || result.SuccessScenarios != 1 || result.FailedScenarios != 1 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if result.ErrorRate != 0.5 {
		t.Fatalf("unexpected error rate: %f", result.ErrorRate)
	}
	if result.RPS != 2 {
		t.Fatalf("unexpected rps: %f", result.RPS)
	}

	created, ok := result.Methods["create_order"]
	if !ok || created.Calls != 1 || created.Success != 1 {
		t.Fatalf("unexpected create_order report: %+v", created)
	}
	if created.Codes["201"] != 1 {
		t.Fatalf("expected code 201 counted, got %+v", created.Codes)
	}
}

func TestRatio(t *testing.T) {
	if ratio(1, 0) != 0 {
		t.Fatal("ratio with zero total should be 0")
	}
	if ratio(1, 4) != 0.25 {
		t.Fatalf("unexpected ratio: %f", ratio(1, 4))
	}
}
