// Package metrics holds the Prometheus collectors shared by the sensor
// pipeline and the gRPC server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weatherwidget"

type Metrics struct {
	// Fetches counts completed fetch/parse cycles by outcome kind.
	Fetches *prometheus.CounterVec
	// FetchLatency observes the duration of fetch/parse cycles.
	FetchLatency prometheus.Histogram
	// Requests counts gRPC requests by method, health service and status code.
	Requests *prometheus.CounterVec
	// Latency observes gRPC request latency by method.
	Latency *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_fetches_total",
			Help:      "Sensor fetch/parse cycles by outcome.",
		}, []string{"outcome"}),
		FetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sensor_fetch_duration_seconds",
			Help:      "Duration of sensor fetch/parse cycles.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method, checked health service and status code.",
		}, []string{"method", "service", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Fetches, m.FetchLatency, m.Requests, m.Latency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
