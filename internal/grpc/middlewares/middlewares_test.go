package middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func echoHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return RequestID(ctx), nil
}

func TestContextMiddleware(t *testing.T) {
	resp, err := ContextMiddleware(context.Background(), "req", info, echoHandler)
	require.NoError(t, err)

	id, ok := resp.(string)
	require.True(t, ok)
	assert.Len(t, id, 36)

	other, _ := ContextMiddleware(context.Background(), "req", info, echoHandler)
	assert.NotEqual(t, id, other)
}

func TestContextMiddleware_IncomingID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "widget-7"))

	resp, err := ContextMiddleware(ctx, "req", info, echoHandler)

	require.NoError(t, err)
	assert.Equal(t, "widget-7", resp)
}

func TestRequestID_Missing(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
}

func TestRateLimitingInterceptor(t *testing.T) {
	interceptor := NewRateLimitingInterceptor(0.001, 1)

	_, err := interceptor(context.Background(), "req", info, echoHandler)
	require.NoError(t, err)

	_, err = interceptor(context.Background(), "req", info, echoHandler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	interceptor := NewLoggingInterceptor(logger)
	failing := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	}

	_, err := ContextMiddleware(context.Background(), "req", info,
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return interceptor(ctx, req, info, failing)
		})

	assert.EqualError(t, err, "boom")
	assert.Contains(t, buf.String(), `"method":"/grpc.health.v1.Health/Check"`)
	assert.Contains(t, buf.String(), `"request_id"`)
	assert.Contains(t, buf.String(), "gRPC request failed")
}

func TestMetricsInterceptor(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "requests"}, []string{"method", "service", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "latency"}, []string{"method"})

	interceptor := NewMetricsInterceptor(requests, latency)
	notFound := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	}

	_, err := interceptor(context.Background(), &grpc_health_v1.HealthCheckRequest{}, info, echoHandler)
	require.NoError(t, err)
	_, err = interceptor(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "weather.Sensor"}, info, echoHandler)
	require.NoError(t, err)
	_, err = interceptor(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "weather.Nope"}, info, notFound)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("Check", "server", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("Check", "weather.Sensor", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("Check", "weather.Nope", "NotFound")))
	assert.Equal(t, 1, testutil.CollectAndCount(latency))
}
