package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики потока оформления и отмены заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersPlaced    prometheus.Counter
	ordersCancelled prometheus.Counter
	ordersDelivered prometheus.Counter
	ordersRejected  *prometheus.CounterVec

	// Гистограммы времени выполнения
	placeDuration  prometheus.Histogram
	cancelDuration prometheus.Histogram

	// Гистограмма размера заказа
	itemsPerOrder prometheus.Histogram

	// Gauge для заказов в обработке
	inFlightOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_cancelled_total",
			Help: "Total number of orders cancelled with stock restored",
		}),
		ordersDelivered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_delivered_total",
			Help: "Total number of orders marked delivered",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_rejected_total",
			Help: "Total number of rejected order attempts grouped by reason",
		}, []string{"reason"}),
		placeDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_place_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cancelDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_cancel_duration_seconds",
			Help:    "Duration of order cancellation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		itemsPerOrder: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_items_per_order",
			Help:    "Number of line items per placed order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		inFlightOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ecom_orders_in_flight",
			Help: "Number of order placements currently being processed",
		}),
	}
}

// Причины отказа для метрики ecom_orders_rejected_total.
const (
	RejectReasonNotFound          = "not_found"
	RejectReasonValidation        = "validation"
	RejectReasonInsufficientStock = "insufficient_stock"
	RejectReasonPersistence       = "persistence"
)

// RecordOrderPlaced увеличивает счётчик успешно оформленных заказов.
func (m *OrderMetrics) RecordOrderPlaced(items int) {
	m.ordersPlaced.Inc()
	m.itemsPerOrder.Observe(float64(items))
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordOrderDelivered увеличивает счётчик доставленных заказов.
func (m *OrderMetrics) RecordOrderDelivered() {
	m.ordersDelivered.Inc()
}

// RecordOrderRejected увеличивает счётчик отказов с указанием причины.
func (m *OrderMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordPlaceDuration записывает время оформления заказа.
func (m *OrderMetrics) RecordPlaceDuration(duration time.Duration) {
	m.placeDuration.Observe(duration.Seconds())
}

// RecordCancelDuration записывает время отмены заказа.
func (m *OrderMetrics) RecordCancelDuration(duration time.Duration) {
	m.cancelDuration.Observe(duration.Seconds())
}

// RecordOrderInFlightStarted увеличивает количество заказов в обработке.
func (m *OrderMetrics) RecordOrderInFlightStarted() {
	m.inFlightOrders.Inc()
}

// RecordOrderInFlightFinished уменьшает количество заказов в обработке.
func (m *OrderMetrics) RecordOrderInFlightFinished() {
	m.inFlightOrders.Dec()
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

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
