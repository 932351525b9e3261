// FILE: lixenwraith/logship/metrics.go
package logship

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "logship"

// transportMetrics holds per-transport counters
type transportMetrics struct {
	accepted      prometheus.Counter
	pushed        prometheus.Counter
	failedBatches prometheus.Counter
	dropped       prometheus.Counter
}

// noopMetrics returns unregistered counters, safe to increment
func noopMetrics() *transportMetrics {
	return &transportMetrics{
		accepted:      prometheus.NewCounter(prometheus.CounterOpts{Name: "accepted"}),
		pushed:        prometheus.NewCounter(prometheus.CounterOpts{Name: "pushed"}),
		failedBatches: prometheus.NewCounter(prometheus.CounterOpts{Name: "failed"}),
		dropped:       prometheus.NewCounter(prometheus.CounterOpts{Name: "dropped"}),
	}
}

// newTransportMetrics registers the counter vectors once per registerer and
// binds them to the transport label
func newTransportMetrics(reg prometheus.Registerer, transport string) (*transportMetrics, error) {
	if reg == nil {
		return noopMetrics(), nil
	}

	accepted, err := registerCounterVec(reg, "records_accepted_total", "Records handed to the transport.")
	if err != nil {
		return nil, err
	}
	pushed, err := registerCounterVec(reg, "records_pushed_total", "Records delivered to the destination.")
	if err != nil {
		return nil, err
	}
	failed, err := registerCounterVec(reg, "batches_failed_total", "Remote batches dropped after a failed push.")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounterVec(reg, "records_dropped_total", "Records lost to overflow, push failure or shutdown.")
	if err != nil {
		return nil, err
	}

	return &transportMetrics{
		accepted:      accepted.WithLabelValues(transport),
		pushed:        pushed.WithLabelValues(transport),
		failedBatches: failed.WithLabelValues(transport),
		dropped:       dropped.WithLabelValues(transport),
	}, nil
}

// registerCounterVec registers a vector or returns the one already registered
func registerCounterVec(reg prometheus.Registerer, name, help string) (*prometheus.CounterVec, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, []string{"transport"})

	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmtErrorf("failed to register metric %s: %w", name, err)
	}
	return vec, nil
}
