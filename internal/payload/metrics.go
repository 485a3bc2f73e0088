package payload

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics holds the engine's Prometheus collectors.
type engineMetrics struct {
	putsTotal    prometheus.Counter
	getsTotal    prometheus.Counter
	removesTotal prometheus.Counter
	bytesWritten prometheus.Counter
	bytesRead    prometheus.Counter
	closeRetries prometheus.Counter

	startupSeconds prometheus.Gauge
	highWaterMark  prometheus.Gauge
}

// RegisterMetrics registers the engine's metrics with Prometheus.
//
// Call once before Start. Returns the engine for method chaining.
func (e *Engine) RegisterMetrics(registry *prometheus.Registry) *Engine {
	m := &engineMetrics{
		putsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "puts_total",
			Help:      "Total number of payload put operations",
		}),
		getsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "gets_total",
			Help:      "Total number of payload get operations",
		}),
		removesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "removes_total",
			Help:      "Total number of payload remove operations",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "bytes_written_total",
			Help:      "Total payload bytes written",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "bytes_read_total",
			Help:      "Total payload bytes read",
		}),
		closeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "bucket_close_retries_total",
			Help:      "Total number of retried bucket close attempts during shutdown",
		}),
		startupSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "startup_duration_seconds",
			Help:      "Duration of the last payload engine startup, including bucket recovery",
		}),
		highWaterMark: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "petrelmq",
			Subsystem: "payload",
			Name:      "id_high_water_mark",
			Help:      "Highest payload ID found across all buckets at startup",
		}),
	}

	registry.MustRegister(
		m.putsTotal,
		m.getsTotal,
		m.removesTotal,
		m.bytesWritten,
		m.bytesRead,
		m.closeRetries,
		m.startupSeconds,
		m.highWaterMark,
	)

	e.metrics = m
	return e
}
