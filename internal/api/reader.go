package api

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/weatherwidget/internal/metrics"
	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

// Fetcher retrieves the raw sensor reply.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser turns a raw sensor reply into a reading.
type Parser interface {
	Parse(body []byte) models.Reading
}

// SensorReader runs the fetch/parse pipeline. Read never fails; every problem
// is reported as a failed models.Reading.
type SensorReader struct {
	fetcher Fetcher
	parser  Parser
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewSensorReader wires a reader. m may be nil when metrics are not collected.
func NewSensorReader(fetcher Fetcher, parser Parser, m *metrics.Metrics, logger *logrus.Logger) *SensorReader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SensorReader{
		fetcher: fetcher,
		parser:  parser,
		metrics: m,
		logger:  logger,
	}
}

func (r *SensorReader) Read(ctx context.Context, url string) models.Reading {
	start := time.Now()
	reading := r.read(ctx, url)

	if r.metrics != nil {
		r.metrics.Fetches.WithLabelValues(reading.Kind().String()).Inc()
		r.metrics.FetchLatency.Observe(time.Since(start).Seconds())
	}

	if reading.Valid() {
		r.logger.WithField("reading", reading.String()).Debug("sensor reading received")
	} else {
		r.logger.WithFields(logrus.Fields{
			"kind":  reading.Kind().String(),
			"error": reading.ErrorMessage(),
		}).Warn("sensor reading failed")
	}
	return reading
}

func (r *SensorReader) read(ctx context.Context, url string) models.Reading {
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return models.Failed(fetchErr.Kind, fetchErr.Message())
		}
		return models.Failed(models.KindNetwork, models.MsgNetwork)
	}
	return r.parser.Parse(body)
}
