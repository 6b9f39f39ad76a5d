package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewLifecycleMetrics(t *testing.T) {
	metrics := NewLifecycleMetrics()

	if metrics == nil {
		t.Fatal("NewLifecycleMetrics should not return nil")
	}
	if metrics.ordersCreated == nil {
		t.Error("ordersCreated counter should not be nil")
	}
	if metrics.ordersUpdated == nil {
		t.Error("ordersUpdated counter should not be nil")
	}
	if metrics.ordersDeleted == nil {
		t.Error("ordersDeleted counter should not be nil")
	}
	if metrics.itemTransitions == nil {
		t.Error("itemTransitions counter vec should not be nil")
	}
	if metrics.operationDuration == nil {
		t.Error("operationDuration histogram vec should not be nil")
	}
	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
	if metrics.activeOrders == nil {
		t.Error("activeOrders gauge should not be nil")
	}
	if metrics.busyTables == nil {
		t.Error("busyTables gauge should not be nil")
	}
}

func TestNewLifecycleMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newLifecycleMetricsWithRegisterer(reg)
	second := newLifecycleMetricsWithRegisterer(reg)

	// Повторная регистрация должна вернуть уже существующие коллекторы.
	if first.ordersCreated != second.ordersCreated {
		t.Error("expected ordersCreated collector to be reused")
	}
	if first.itemTransitions != second.itemTransitions {
		t.Error("expected itemTransitions collector to be reused")
	}
}

func TestRecordOrderLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newLifecycleMetricsWithRegisterer(reg)

	metrics.RecordOrderCreated()
	metrics.RecordOrderCreated()
	metrics.RecordOrderDeleted()
	metrics.RecordOrderFinished()

	metric := &dto.Metric{}
	if err := metrics.ordersCreated.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 created orders, got %f", metric.Counter.GetValue())
	}

	gaugeMetric := &dto.Metric{}
	if err := metrics.activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1 active order, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestRecordItemTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newLifecycleMetricsWithRegisterer(reg)

	metrics.RecordItemTransition("COOKING")
	metrics.RecordItemTransition("READY")
	metrics.RecordItemTransition("READY")

	readyMetric := &dto.Metric{}
	counter, err := metrics.itemTransitions.GetMetricWithLabelValues("READY")
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if err := counter.Write(readyMetric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if readyMetric.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 READY transitions, got %f", readyMetric.Counter.GetValue())
	}
}

func TestRecordOperationDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newLifecycleMetricsWithRegisterer(reg)

	metrics.RecordOperationDuration("create", 100*time.Millisecond)
	metrics.RecordOperationDuration("create", 500*time.Millisecond)

	observer, err := metrics.operationDuration.GetMetricWithLabelValues("create")
	if err != nil {
		t.Fatalf("get histogram: %v", err)
	}
	metric := &dto.Metric{}
	if err := observer.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples, got %d", metric.Histogram.GetSampleCount())
	}
	sum := metric.Histogram.GetSampleSum()
	if sum < 0.55 || sum > 0.65 {
		t.Errorf("expected sum around 0.6, got %f", sum)
	}
}

func TestRecordTableOccupancy(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := newLifecycleMetricsWithRegisterer(reg)

	metrics.RecordTableBusy()
	metrics.RecordTableBusy()
	metrics.RecordTableFreed()

	gaugeMetric := &dto.Metric{}
	if err := metrics.busyTables.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1 busy table, got %f", gaugeMetric.Gauge.GetValue())
	}
}
