package machine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible instrumentation for a machine
// run, cut down to what a single-threaded runtime can observe: no
// inflight-node gauge or queue-depth gauge, since there is never more than
// one node executing and no scheduler queue.
//
// Metrics exposed, all namespaced "archivist_":
//
//   - node_latency_ms (histogram): per-node execution duration, labeled by
//     machine, node, and result kind.
//   - nodes_total (counter): nodes executed, labeled by machine, node, and
//     result kind. Only nodes run by a Run call that was handed this Metrics
//     are counted: results spliced in from a nested run started without it
//     do not appear in the "failure" series.
type Metrics struct {
	latency *prometheus.HistogramVec
	nodes   *prometheus.CounterVec
}

// NewMetrics registers archivist metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "archivist",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"machine", "node", "result"}),
		nodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "archivist",
			Name:      "nodes_total",
			Help:      "Nodes executed, labeled by machine, node, and result kind.",
		}, []string{"machine", "node", "result"}),
	}
}

func (m *Metrics) observe(machineName, node string, kind ResultKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(machineName, node, kind.String()).Observe(float64(elapsed.Milliseconds()))
	m.nodes.WithLabelValues(machineName, node, kind.String()).Inc()
}
