package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry          *prometheus.Registry
	capturesTotal     *prometheus.CounterVec
	captureDuration   *prometheus.HistogramVec
	activeCaptures    prometheus.Gauge
	rendersTotal      *prometheus.CounterVec
	passthroughsTotal prometheus.Counter
	pixelsTotal       prometheus.Counter
	bytesWrittenTotal prometheus.Counter
	computeTimeMSTot  prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		capturesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polarize_worker_captures_total",
			Help: "Total develop jobs by source type and final status.",
		}, []string{"source_type", "status"}),
		captureDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polarize_worker_capture_duration_seconds",
			Help:    "Total develop duration for each capture.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source_type", "status"}),
		activeCaptures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "polarize_worker_active_captures",
			Help: "Captures currently being developed by this worker.",
		}),
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "polarize_worker_renders_total",
			Help: "Developed render outputs by kind.",
		}, []string{"kind"}),
		passthroughsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polarize_worker_passthroughs_total",
			Help: "Captures whose source bytes could not be decoded and were emitted unchanged.",
		}),
		pixelsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polarize_usage_pixels_processed_total",
			Help: "Total output pixels across all developed captures.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polarize_usage_bytes_written_total",
			Help: "Total output bytes written to the gallery.",
		}),
		computeTimeMSTot: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "polarize_usage_compute_time_ms_total",
			Help: "Total compute time in milliseconds across developed captures.",
		}),
	}

	registry.MustRegister(
		m.capturesTotal,
		m.captureDuration,
		m.activeCaptures,
		m.rendersTotal,
		m.passthroughsTotal,
		m.pixelsTotal,
		m.bytesWrittenTotal,
		m.computeTimeMSTot,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
