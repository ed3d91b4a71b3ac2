//go:build integration
// +build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/tejusbharadwaj/weatherwidget/internal/api"
	"github.com/tejusbharadwaj/weatherwidget/internal/display"
	server "github.com/tejusbharadwaj/weatherwidget/internal/grpc"
	"github.com/tejusbharadwaj/weatherwidget/internal/httpapi"
	"github.com/tejusbharadwaj/weatherwidget/internal/metrics"
	"github.com/tejusbharadwaj/weatherwidget/internal/models"
	"github.com/tejusbharadwaj/weatherwidget/internal/parser"
	"github.com/tejusbharadwaj/weatherwidget/internal/scheduler"
)

const bufSize = 1024 * 1024

type sensorField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sensorReply struct {
	LastUpdated string        `json:"lastUpdated,omitempty"`
	Data        []sensorField `json:"data,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type online struct{}

func (online) Online() bool { return true }

type testEnvironment struct {
	sensor    *httptest.Server
	reply     atomic.Value // sensorReply
	board     *display.Board
	refresher *scheduler.Refresher
	health    grpc_health_v1.HealthClient
	router    http.Handler
	registry  *prometheus.Registry
}

func setupTestEnvironment(t *testing.T) *testEnvironment {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnvironment{registry: prometheus.NewRegistry()}
	env.reply.Store(sensorReply{
		LastUpdated: "1446369000",
		Data: []sensorField{
			{Name: "temp", Value: "21.5"},
			{Name: "humidity", Value: "45"},
		},
	})

	env.sensor = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "135", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(env.reply.Load().(sensorReply))
	}))
	t.Cleanup(env.sensor.Close)

	m := metrics.New()
	require.NoError(t, m.Register(env.registry))

	board, err := display.NewBoard(16)
	require.NoError(t, err)
	env.board = board

	reader := api.NewSensorReader(
		api.NewSensorFetcher(api.DefaultFetcherConfig(), logger),
		parser.New(parser.IgnoreUnknownFields, logger),
		m,
		logger,
	)

	healthChecker := server.NewHealthChecker()
	env.refresher = scheduler.NewRefresher(
		reader,
		board,
		online{},
		env.sensor.URL+"/json/sensor/info?key=&item=outputFormat&value=jsonp&id=135",
		logger,
		healthChecker.ObserveReading,
	)

	lis := bufconn.Listen(bufSize)
	srv, err := server.SetupServer(healthChecker, server.DefaultServerConfig(), m, logger)
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	env.health = grpc_health_v1.NewHealthClient(conn)

	env.router = httpapi.NewRouter(
		httpapi.NewHandler(context.Background(), board, env.refresher, []int{1}, logger),
		env.registry,
	)

	return env
}

func (env *testEnvironment) refresh(t *testing.T, targets ...int) models.Reading {
	t.Helper()
	select {
	case r, ok := <-env.refresher.Trigger(context.Background(), targets):
		require.True(t, ok)
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("refresh timed out")
		return models.Reading{}
	}
}

func (env *testEnvironment) sensorStatus(t *testing.T) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := env.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: server.SensorService})
	require.NoError(t, err)
	return resp.Status
}

func TestSensorE2E(t *testing.T) {
	env := setupTestEnvironment(t)

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_UNKNOWN, env.sensorStatus(t))

	reading := env.refresh(t, 1, 2)
	require.True(t, reading.Valid(), reading.ErrorMessage())
	assert.Equal(t, 21.5, reading.Temperature())
	assert.Equal(t, 45, reading.Humidity())
	assert.Equal(t, int64(1446369000), reading.LastUpdated())

	view, ok := env.board.View(2)
	require.True(t, ok)
	assert.Equal(t, "21.5℃", view.Temperature)
	assert.Equal(t, "45%", view.Humidity)

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, env.sensorStatus(t))
}

func TestSensorReportedError(t *testing.T) {
	env := setupTestEnvironment(t)
	env.reply.Store(sensorReply{Error: "sensor offline"})

	reading := env.refresh(t, 1)

	assert.False(t, reading.Valid())
	assert.Equal(t, "sensor offline", reading.ErrorMessage())

	view, _ := env.board.View(1)
	assert.Equal(t, display.View{Temperature: "N/A", Humidity: "N/A", Status: "sensor offline"}, view)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, env.sensorStatus(t))
}

func TestSensorRecovers(t *testing.T) {
	env := setupTestEnvironment(t)

	env.reply.Store(sensorReply{Error: "sensor offline"})
	assert.False(t, env.refresh(t, 1).Valid())

	env.reply.Store(sensorReply{
		LastUpdated: "1446369600",
		Data: []sensorField{
			{Name: "temp", Value: "19"},
			{Name: "pressure", Value: "1013"},
			{Name: "humidity", Value: "60"},
		},
	})
	reading := env.refresh(t, 1)
	require.True(t, reading.Valid(), reading.ErrorMessage())

	view, _ := env.board.View(1)
	assert.Equal(t, "19.0℃", view.Temperature)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, env.sensorStatus(t))
}

func TestHTTPRefreshAndMetrics(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh?targets=5", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readings/5", nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var view display.View
		return json.Unmarshal(rec.Body.Bytes(), &view) == nil && view.Humidity == "45%"
	}, 5*time.Second, 20*time.Millisecond)

	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `weatherwidget_sensor_fetches_total{outcome="none"} 1`)
}
