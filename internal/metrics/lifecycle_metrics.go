package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics содержит метрики жизненного цикла заказов.
type LifecycleMetrics struct {
	// Счётчики операций
	ordersCreated prometheus.Counter
	ordersUpdated prometheus.Counter
	ordersDeleted prometheus.Counter

	// Переходы статусов позиций по целевому статусу
	itemTransitions *prometheus.CounterVec

	// Гистограммы времени выполнения операций
	operationDuration *prometheus.HistogramVec

	// Счётчик событий outbox
	outboxEvents prometheus.Counter

	// Gauge для активных заказов и занятых столов
	activeOrders prometheus.Gauge
	busyTables   prometheus.Gauge
}

// NewLifecycleMetrics создаёт новый экземпляр метрик заказов.
func NewLifecycleMetrics() *LifecycleMetrics {
	return newLifecycleMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newLifecycleMetricsWithRegisterer(registerer prometheus.Registerer) *LifecycleMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &LifecycleMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "resto_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "resto_orders_updated_total",
			Help: "Total number of order updates applied",
		}),
		ordersDeleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "resto_orders_deleted_total",
			Help: "Total number of orders deleted",
		}),
		itemTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "resto_order_item_transitions_total",
			Help: "Total number of order item status transitions by target status",
		}, []string{"status"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "resto_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "resto_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
		activeOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "resto_active_orders",
			Help: "Number of currently active orders",
		}),
		busyTables: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "resto_busy_tables",
			Help: "Number of tables currently marked busy",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов и число активных.
func (m *LifecycleMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.activeOrders.Inc()
}

// RecordOrderUpdated увеличивает счётчик применённых обновлений.
func (m *LifecycleMetrics) RecordOrderUpdated() {
	m.ordersUpdated.Inc()
}

// RecordOrderDeleted увеличивает счётчик удалений.
func (m *LifecycleMetrics) RecordOrderDeleted() {
	m.ordersDeleted.Inc()
}

// RecordOrderFinished уменьшает количество активных заказов.
func (m *LifecycleMetrics) RecordOrderFinished() {
	m.activeOrders.Dec()
}

// RecordItemTransition фиксирует переход позиции в указанный статус.
func (m *LifecycleMetrics) RecordItemTransition(status string) {
	m.itemTransitions.WithLabelValues(status).Inc()
}

// RecordOperationDuration записывает время выполнения операции.
func (m *LifecycleMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *LifecycleMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// RecordTableBusy увеличивает число занятых столов.
func (m *LifecycleMetrics) RecordTableBusy() {
	m.busyTables.Inc()
}

// RecordTableFreed уменьшает число занятых столов.
func (m *LifecycleMetrics) RecordTableFreed() {
	m.busyTables.Dec()
}
