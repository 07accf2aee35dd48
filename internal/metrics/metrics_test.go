package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	Register(reg)

	ConversionDuration.WithLabelValues("import").Observe(2.5)
	OperationErrorsCount.WithLabelValues("extend-volume").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := make(map[string]bool)
	for _, mf := range families {
		found[mf.GetName()] = true
	}

	for _, want := range []string{
		"wintarget_image_conversion_duration_seconds",
		"wintarget_operation_errors_total",
	} {
		if !found[want] {
			t.Errorf("Gather() missing metric family %q", want)
		}
	}
}

func TestOperationErrorsCountValue(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	Register(reg)

	OperationErrorsCount.WithLabelValues("copy-image-to-volume").Inc()
	OperationErrorsCount.WithLabelValues("copy-image-to-volume").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "wintarget_operation_errors_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "operation_type" && lp.GetValue() == "copy-image-to-volume" {
					if got := m.GetCounter().GetValue(); got != 2 {
						t.Errorf("counter value = %v, want 2", got)
					}
					return
				}
			}
		}
	}
	t.Fatal("counter for copy-image-to-volume not found")
}
