// Package httpapi exposes the display board, manual refresh and metrics
// over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/weatherwidget/internal/display"
	"github.com/tejusbharadwaj/weatherwidget/internal/models"
)

// ViewSource returns the current view of a display target.
type ViewSource interface {
	View(target int) (display.View, bool)
}

// RefreshTrigger starts a refresh cycle for the given targets.
type RefreshTrigger interface {
	Trigger(ctx context.Context, targets []int) <-chan models.Reading
}

type Handler struct {
	// ctx outlives single requests; refreshes keep running after the
	// request that started them has been answered.
	ctx            context.Context
	views          ViewSource
	refresher      RefreshTrigger
	defaultTargets []int
	logger         *logrus.Logger
}

func NewHandler(ctx context.Context, views ViewSource, refresher RefreshTrigger, defaultTargets []int, logger *logrus.Logger) *Handler {
	return &Handler{
		ctx:            ctx,
		views:          views,
		refresher:      refresher,
		defaultTargets: defaultTargets,
		logger:         logger,
	}
}

// NewRouter mounts the handler's routes and the metrics endpoint for gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readings/{target}", h.getReading)
	r.Post("/refresh", h.refresh)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

func (h *Handler) getReading(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.Atoi(chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target")
		return
	}

	view, ok := h.views.View(target)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown target")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// refresh accepts ?targets=1,2 and answers before the fetch completes.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	targets, err := parseTargets(r.URL.Query().Get("targets"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(targets) == 0 {
		targets = h.defaultTargets
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"targets":    targets,
	}).Info("Refresh requested")

	h.refresher.Trigger(h.ctx, targets)

	writeJSON(w, http.StatusAccepted, map[string]any{"targets": targets})
}

func parseTargets(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	targets := make([]int, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid target: %s", p)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
