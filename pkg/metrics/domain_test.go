package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDomainMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDomainMetrics(reg)

	metrics.IncOrderCreated("unpaid")
	metrics.IncOrderTransition("pending", "shipped")
	metrics.IncPaymentRecorded("cash")
	metrics.IncReservationFailed()
	metrics.ObserveAllocationDuration(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "payment_status", "unpaid"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders_created=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "to", "shipped"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transitions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payments_recorded_total", "mode", "cash"); err != nil {
		t.Fatalf("fetch payments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payments=1, got %f", got)
	}

	if findMetricFamily(mfs, "stock_reservation_failures_total") == nil {
		t.Fatal("reservation failure counter not exported")
	}

	mf := findMetricFamily(mfs, "payment_allocation_duration_seconds")
	if mf == nil {
		t.Fatal("allocation histogram not exported")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected histogram sum > 0, got %f", sum)
	}
}

func TestDomainMetricsNilRegistererIsInert(t *testing.T) {
	metrics := NewDomainMetrics(nil)
	metrics.IncOrderCreated("paid")
	metrics.IncReservationFailed()
	metrics.ObserveAllocationDuration(time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
