package scheduler

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

// ReadingSource runs one fetch/parse cycle.
type ReadingSource interface {
	Read(ctx context.Context, url string) models.Reading
}

// Renderer shows refresh progress and results on display targets.
type Renderer interface {
	ShowLoading(targets []int)
	ShowNoNetwork(targets []int)
	Render(targets []int, r models.Reading)
}

// ConnectivityProbe reports whether a fetch is worth attempting.
type ConnectivityProbe interface {
	Online() bool
}

// ReadingObserver is told about every completed reading, after rendering.
type ReadingObserver func(models.Reading)

// Refresher runs refresh cycles for a single sensor URL.
type Refresher struct {
	source    ReadingSource
	renderer  Renderer
	probe     ConnectivityProbe
	url       string
	logger    *logrus.Logger
	observers []ReadingObserver
}

func NewRefresher(
	source ReadingSource,
	renderer Renderer,
	probe ConnectivityProbe,
	url string,
	logger *logrus.Logger,
	observers ...ReadingObserver,
) *Refresher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{
		source:    source,
		renderer:  renderer,
		probe:     probe,
		url:       url,
		logger:    logger,
		observers: observers,
	}
}

// Trigger starts one refresh cycle for targets and returns immediately.
//
// The targets are marked as loading before Trigger returns. The fetch runs in
// its own goroutine; when it completes the reading is rendered, passed to the
// observers and sent on the returned channel, which is then closed. When the
// probe reports no connectivity the targets show the no-network view and the
// channel is closed without a reading.
//
// Overlapping triggers are independent: the last one to finish wins on the
// display. ctx bounds the fetch; it is not meant to cancel single refreshes.
func (r *Refresher) Trigger(ctx context.Context, targets []int) <-chan models.Reading {
	result := make(chan models.Reading, 1)

	if r.probe != nil && !r.probe.Online() {
		r.logger.WithField("targets", targets).Info("No network connection, skipping refresh")
		r.renderer.ShowNoNetwork(targets)
		close(result)
		return result
	}

	r.renderer.ShowLoading(targets)

	go func() {
		defer close(result)

		reading := r.source.Read(ctx, r.url)
		r.renderer.Render(targets, reading)
		for _, observe := range r.observers {
			observe(reading)
		}
		result <- reading
	}()

	return result
}
