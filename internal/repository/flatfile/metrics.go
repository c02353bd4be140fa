package flatfile

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultMissing = "missing"
	resultError   = "error"
)

type loaderMetrics struct {
	loads *prometheus.CounterVec
	rows  *prometheus.GaugeVec
}

func newLoaderMetrics(reg prometheus.Registerer) (*loaderMetrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &loaderMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventario",
			Name:      "loads_total",
			Help:      "Movement file loads by outcome.",
		}, []string{"result"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "inventario",
			Name:      "loaded_rows",
			Help:      "Rows in the last table served for a file.",
		}, []string{"file"}),
	}

	for _, c := range []prometheus.Collector{m.loads, m.rows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe is a no-op on a nil receiver so metrics stay optional.
func (m *loaderMetrics) observe(result, path string, rows int) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	m.rows.WithLabelValues(filepath.Base(path)).Set(float64(rows))
}
