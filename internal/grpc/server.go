package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	middleware "github.com/tejusbharadwaj/weatherwidget/internal/grpc/middlewares"
	"github.com/tejusbharadwaj/weatherwidget/internal/metrics"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:      5.0, // 5 requests per second
		RateLimitBurst: 10,  // Burst of 10 requests
	}
}

// SetupServer initializes the gRPC server with the health service and all
// middleware. m may be nil to skip metrics.
func SetupServer(health *HealthChecker, config ServerConfig, m *metrics.Metrics, logger *logrus.Logger) (*grpc.Server, error) {
	if config.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %v", config.RateLimit)
	}
	if config.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("invalid rate limit burst: %d", config.RateLimitBurst)
	}

	interceptors := []grpc.UnaryServerInterceptor{
		middleware.ContextMiddleware, // Add request ID first
		middleware.NewRateLimitingInterceptor(config.RateLimit, config.RateLimitBurst),
		middleware.NewLoggingInterceptor(logger),
	}
	if m != nil {
		interceptors = append(interceptors, middleware.NewMetricsInterceptor(m.Requests, m.Latency))
	}

	server := grpc.NewServer(
		grpc.UnaryInterceptor(chainUnaryInterceptors(interceptors...)),
	)
	grpc_health_v1.RegisterHealthServer(server, health)

	return server, nil
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			chainedInterceptor := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, chainedInterceptor)
			}
		}
		return chain(ctx, req)
	}
}
