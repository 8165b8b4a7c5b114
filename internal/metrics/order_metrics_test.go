package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newOrderMetricsWithRegisterer should not return nil")
	}
	if metrics.ordersPlaced == nil {
		t.Error("ordersPlaced counter should not be nil")
	}
	if metrics.ordersCancelled == nil {
		t.Error("ordersCancelled counter should not be nil")
	}
	if metrics.ordersDelivered == nil {
		t.Error("ordersDelivered counter should not be nil")
	}
	if metrics.ordersRejected == nil {
		t.Error("ordersRejected counter vec should not be nil")
	}
	if metrics.placeDuration == nil {
		t.Error("placeDuration histogram should not be nil")
	}
	if metrics.itemsPerOrder == nil {
		t.Error("itemsPerOrder histogram should not be nil")
	}
	if metrics.inFlightOrders == nil {
		t.Error("inFlightOrders gauge should not be nil")
	}
}

func TestOrderMetricsRecording(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newOrderMetricsWithRegisterer(registry)

	metrics.RecordOrderPlaced(3)
	metrics.RecordOrderPlaced(1)
	metrics.RecordOrderRejected(RejectReasonInsufficientStock)
	metrics.RecordOrderCancelled()
	metrics.RecordPlaceDuration(25 * time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}

	placed := byName["ecom_orders_placed_total"]
	if placed == nil || len(placed.Metric) == 0 {
		t.Fatal("ecom_orders_placed_total not gathered")
	}
	if got := placed.Metric[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("expected 2 placed orders, got %v", got)
	}

	rejected := byName["ecom_orders_rejected_total"]
	if rejected == nil || len(rejected.Metric) == 0 {
		t.Fatal("ecom_orders_rejected_total not gathered")
	}
	var reason string
	for _, label := range rejected.Metric[0].GetLabel() {
		if label.GetName() == "reason" {
			reason = label.GetValue()
		}
	}
	if reason != RejectReasonInsufficientStock {
		t.Errorf("expected reason label %q, got %q", RejectReasonInsufficientStock, reason)
	}

	cancelled := byName["ecom_orders_cancelled_total"]
	if cancelled == nil || cancelled.Metric[0].GetCounter().GetValue() != 1 {
		t.Error("expected exactly one cancelled order recorded")
	}

	items := byName["ecom_order_items_per_order"]
	if items == nil || items.Metric[0].GetHistogram().GetSampleCount() != 2 {
		t.Error("expected two items-per-order samples")
	}
}

func TestOrderMetricsInFlight(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newOrderMetricsWithRegisterer(registry)

	metrics.RecordOrderInFlightStarted()
	metrics.RecordOrderInFlightStarted()
	metrics.RecordOrderInFlightFinished()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "ecom_orders_in_flight" {
			continue
		}
		if got := family.Metric[0].GetGauge().GetValue(); got != 1 {
			t.Errorf("expected 1 in-flight order, got %v", got)
		}
		return
	}
	t.Fatal("ecom_orders_in_flight not gathered")
}
