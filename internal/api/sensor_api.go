package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	// DefaultMaxBodyBytes bounds the sensor reply. The payload is a couple of
	// hundred bytes.
	DefaultMaxBodyBytes = 500
)

var (
	ErrTimeout          = errors.New("sensor request timed out")
	ErrNetwork          = errors.New("sensor request failed")
	ErrResponseTooLarge = errors.New("sensor reply too large")
)

// FetchError classifies a failed fetch.
type FetchError struct {
	Kind  models.ErrorKind
	Limit int64
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v: %v", e.sentinel(), e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *FetchError) sentinel() error {
	switch e.Kind {
	case models.KindTimeout:
		return ErrTimeout
	case models.KindResponseTooLarge:
		return ErrResponseTooLarge
	default:
		return ErrNetwork
	}
}

// Message is the text shown to the user in place of the reading.
func (e *FetchError) Message() string {
	switch e.Kind {
	case models.KindTimeout:
		return models.MsgTimeout
	case models.KindResponseTooLarge:
		return fmt.Sprintf("sensor reply exceeds %d bytes", e.Limit)
	default:
		return models.MsgNetwork
	}
}

// FetcherConfig holds the bounds of a single sensor request.
type FetcherConfig struct {
	ConnectTimeout time.Duration // Dial timeout
	ReadTimeout    time.Duration // Maximum wait for any single read, headers included
	MaxBodyBytes   int64         // Replies longer than this are rejected
}

// DefaultFetcherConfig returns the bounds the widget has always used.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		MaxBodyBytes:   DefaultMaxBodyBytes,
	}
}

// SensorFetcher performs bounded GET requests against the sensor server.
type SensorFetcher struct {
	client       *http.Client
	maxBodyBytes int64
	logger       *logrus.Logger
}

func NewSensorFetcher(cfg FetcherConfig, logger *logrus.Logger) *SensorFetcher {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readDeadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
		},
		ResponseHeaderTimeout: cfg.ReadTimeout,
		// Every fetch owns its connection and releases it when done.
		DisableKeepAlives: true,
	}

	return &SensorFetcher{
		client:       &http.Client{Transport: transport},
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger,
	}
}

// Fetch returns the raw reply body. Errors are always *FetchError.
func (f *SensorFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	requestID := uuid.NewString()
	log := f.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"url":        url,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: models.KindNetwork, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("sensor request failed")
		return nil, classify(err)
	}
	defer resp.Body.Close()

	log.WithField("status", resp.StatusCode).Debug("sensor server responded")

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &FetchError{
			Kind: models.KindNetwork,
			Err:  fmt.Errorf("got HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, classify(err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &FetchError{
			Kind:  models.KindResponseTooLarge,
			Limit: f.maxBodyBytes,
			Err:   fmt.Errorf("more than %d bytes", f.maxBodyBytes),
		}
	}

	return body, nil
}

func classify(err error) *FetchError {
	if isTimeout(err) {
		return &FetchError{Kind: models.KindTimeout, Err: err}
	}
	return &FetchError{Kind: models.KindNetwork, Err: err}
}

// isTimeout reports whether any error in err's tree is a timeout. url.Error
// only inspects its direct cause, so the tree is walked explicitly.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return isTimeout(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if isTimeout(e) {
				return true
			}
		}
	}
	return false
}

// readDeadlineConn applies an inactivity timeout to every read.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}
