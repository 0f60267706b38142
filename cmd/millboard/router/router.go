// Package router configures HTTP routes for the dashboard API.
//
// Routes configured:
//   - GET /api/dashboard?plant=&machine=&reason= - All chart views for a selection
//   - GET /api/options - Selector values (plants, machines, reasons) with "All" first
//   - GET /healthz - 200 once a dataset is loaded, 503 before
//   - GET /metrics - Prometheus metrics endpoint
//
// Every dashboard request recomputes its views from the stored base dataset.
// Selector values outside the dataset's catalog are rejected with 400 before
// aggregation. Responses built from a dataset older than the stale threshold
// carry an X-Millboard-Stale header.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/millboard/cmd/millboard/metrics"
	"github.com/HatiCode/millboard/pkg/httpx"
	"github.com/HatiCode/millboard/pkg/mill"
	"github.com/HatiCode/millboard/pkg/storage"
)

var errNotLoaded = errors.New("dataset not loaded")

// Options lists the selector values the dashboard accepts.
type Options struct {
	Plants   []string `json:"plants"`
	Machines []string `json:"machines"`
	Reasons  []string `json:"reasons"`
}

// DashboardResponse wraps the views with dataset metadata.
type DashboardResponse struct {
	DatasetID   string `json:"datasetId"`
	Source      string `json:"source"`
	GeneratedAt string `json:"generatedAt"`
	mill.Dashboard
}

type handler struct {
	store      storage.Store
	dataset    string
	staleAfter time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// SetupRoutes configures HTTP endpoints for the dashboard server. m may be nil.
func SetupRoutes(store storage.Store, dataset string, staleAfter time.Duration, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{
		store:      store,
		dataset:    dataset,
		staleAfter: staleAfter,
		logger:     logger,
		metrics:    m,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandlerWithCheck(h.checkLoaded))
	mux.HandleFunc("GET /api/dashboard", h.handleDashboard)
	mux.HandleFunc("GET /api/options", h.handleOptions)
	mux.Handle("GET /metrics", promhttp.Handler())

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.Logging(logger),
		httpx.Recover(logger),
	)
}

func (h *handler) checkLoaded() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, found, err := h.store.Get(ctx, h.dataset)
	if err != nil {
		return err
	}
	if !found {
		return errNotLoaded
	}
	return nil
}

// current fetches the dataset, writing the error response itself on failure.
func (h *handler) current(w http.ResponseWriter, r *http.Request, endpoint string) (mill.Dataset, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ds, found, err := h.store.Get(ctx, h.dataset)
	if err != nil {
		h.logger.Error("failed to get dataset", "dataset", h.dataset, "error", err)
		h.recordError("store", "get_failed")
		h.fail(w, endpoint, http.StatusInternalServerError, "internal server error")
		return mill.Dataset{}, false
	}
	if !found {
		h.fail(w, endpoint, http.StatusServiceUnavailable, fmt.Sprintf("dataset %q not loaded", h.dataset))
		return mill.Dataset{}, false
	}

	age := time.Since(ds.GeneratedAt)
	if h.metrics != nil {
		h.metrics.SetDatasetAge(age.Seconds())
	}
	if h.staleAfter > 0 && age > h.staleAfter {
		w.Header().Set("X-Millboard-Stale", "true")
	}

	return ds, true
}

// handleDashboard serves GET /api/dashboard?plant=<p>&machine=<m>&reason=<r>.
func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	const endpoint = "dashboard"

	ds, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	q := r.URL.Query()
	sel := mill.Selection{
		Plant:   orAll(q.Get("plant")),
		Machine: orAll(q.Get("machine")),
		Reason:  mill.Reason(orAll(q.Get("reason"))),
	}

	if err := mill.CatalogFrom(ds.Observations).Validate(sel); err != nil {
		h.fail(w, endpoint, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	dashboard := mill.BuildDashboard(ds.Observations, sel)
	if h.metrics != nil {
		h.metrics.RecordBuild(time.Since(start).Seconds())
	}

	h.logger.Debug("built dashboard",
		"request_id", httpx.RequestIDFrom(r.Context()),
		"plant", sel.Plant,
		"machine", sel.Machine,
		"reason", sel.Reason,
		"observations", dashboard.Summary.Observations,
	)

	h.respond(w, endpoint, DashboardResponse{
		DatasetID:   ds.ID,
		Source:      ds.Source,
		GeneratedAt: ds.GeneratedAt.Format(time.RFC3339),
		Dashboard:   dashboard,
	})
}

// handleOptions serves GET /api/options.
func (h *handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "options"

	ds, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	catalog := mill.CatalogFrom(ds.Observations)
	reasons := make([]string, len(mill.Reasons))
	for i, reason := range mill.Reasons {
		reasons[i] = string(reason)
	}

	h.respond(w, endpoint, Options{
		Plants:   withAll(catalog.Plants),
		Machines: withAll(catalog.Machines),
		Reasons:  withAll(reasons),
	})
}

func (h *handler) respond(w http.ResponseWriter, endpoint string, v any) {
	h.recordRequest(endpoint, http.StatusOK)
	if err := httpx.WriteJSON(w, http.StatusOK, v); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *handler) fail(w http.ResponseWriter, endpoint string, status int, message string) {
	h.recordRequest(endpoint, status)
	httpx.WriteErrorMessage(w, status, message)
}

func (h *handler) recordRequest(endpoint string, status int) {
	if h.metrics != nil {
		h.metrics.RecordRequest(endpoint, strconv.Itoa(status))
	}
}

func (h *handler) recordError(component, reason string) {
	if h.metrics != nil {
		h.metrics.RecordError(component, reason)
	}
}

func orAll(v string) string {
	if v == "" {
		return mill.All
	}
	return v
}

func withAll(values []string) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, mill.All)
	return append(out, values...)
}
