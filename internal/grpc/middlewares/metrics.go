package middleware

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// serviceRequest matches requests naming a health service, such as
// grpc_health_v1.HealthCheckRequest.
type serviceRequest interface {
	GetService() string
}

// NewMetricsInterceptor counts requests by method, checked service and status
// code, and observes latency by method. Requests without a service name are
// labelled "server".
func NewMetricsInterceptor(
	requests *prometheus.CounterVec,
	latency *prometheus.HistogramVec,
) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		method := path.Base(info.FullMethod)
		requests.WithLabelValues(method, checkedService(req), status.Code(err).String()).Inc()
		latency.WithLabelValues(method).Observe(elapsed.Seconds())

		return resp, err
	}
}

func checkedService(req interface{}) string {
	if r, ok := req.(serviceRequest); ok && r.GetService() != "" {
		return r.GetService()
	}
	return "server"
}
