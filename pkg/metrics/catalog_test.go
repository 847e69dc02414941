package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCatalogMetricsNilRegisterer(t *testing.T) {
	m := NewCatalogMetrics(nil)
	// must be safe no-ops
	m.ObserveFilter("shop", time.Second, 10)
	m.IncFailure("shop")
}

func TestObserveFilterRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCatalogMetrics(reg)
	m.ObserveFilter("Shop Web", 250*time.Millisecond, 42)
	m.IncFailure("mobile")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 3 {
		t.Fatalf("expected 3 metric families, got %d", len(families))
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"":          "unknown",
		"  Shop  ":  "shop",
		"Shop Web":  "shop_web",
		"mobile":    "mobile",
	}
	for in, want := range cases {
		if got := normalizeLabel(in); got != want {
			t.Fatalf("normalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
