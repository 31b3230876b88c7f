package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"total-comp/charts"
	"total-comp/models"
	"total-comp/services"
	"total-comp/utils"
)

// TableSource hands out the cached dataset.
type TableSource interface {
	Get(ctx context.Context) (*models.Table, error)
	Refresh(ctx context.Context) (*models.Table, error)
}

// Dashboard serves the filter-and-aggregate pipeline over HTTP.
type Dashboard struct {
	responses  TableSource
	aggregates TableSource
	explorer   *services.Explorer
	logger     *utils.Logger
}

// NewDashboard wires the handlers. aggregates may be nil when no aggregate
// dataset is configured; lookup routes then answer 503.
func NewDashboard(responses, aggregates TableSource, logger *utils.Logger) *Dashboard {
	return &Dashboard{
		responses:  responses,
		aggregates: aggregates,
		explorer:   services.NewExplorer(logger),
		logger:     logger,
	}
}

// Register mounts the routes on r.
func (d *Dashboard) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", d.handleOptions).Methods(http.MethodGet)
	api.HandleFunc("/explore", d.handleExplore).Methods(http.MethodGet)
	api.HandleFunc("/histogram/{column}.png", d.handleHistogram).Methods(http.MethodGet)
	api.HandleFunc("/aggregate/options", d.handleAggregateOptions).Methods(http.MethodGet)
	api.HandleFunc("/lookup", d.handleLookup).Methods(http.MethodGet)
	api.HandleFunc("/refresh", d.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/healthz", d.handleHealth).Methods(http.MethodGet)
}

type yoeRange struct {
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Default [2]int `json:"default"`
}

type optionsResponse struct {
	Columns []string            `json:"columns"`
	Options map[string][]string `json:"options"`
	YOE     *yoeRange           `json:"yoe,omitempty"`
}

type exploreResponse struct {
	*services.Exploration
	Bins map[string][]charts.Bin `json:"bins"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (d *Dashboard) handleOptions(w http.ResponseWriter, r *http.Request) {
	t, err := d.responses.Get(r.Context())
	if err != nil {
		d.sourceFailed(w, r, err)
		return
	}

	opts, err := services.ExtractAllOptions(t, models.FilterColumns)
	if err != nil {
		d.writeError(w, r, err)
		return
	}
	d.writeJSON(w, http.StatusOK, optionsResponse{
		Columns: models.FilterColumns,
		Options: opts,
		YOE: &yoeRange{
			Min:     models.MinYOE,
			Max:     models.MaxYOE,
			Default: [2]int{models.MinYOE, models.MaxYOE},
		},
	})
}

func (d *Dashboard) handleExplore(w http.ResponseWriter, r *http.Request) {
	exp, ok := d.explore(w, r)
	if !ok {
		return
	}

	bins := make(map[string][]charts.Bin, len(exp.Distributions))
	for col, vals := range exp.Distributions {
		bins[col] = charts.Bins(vals)
	}
	d.writeJSON(w, http.StatusOK, exploreResponse{Exploration: exp, Bins: bins})
}

func (d *Dashboard) handleHistogram(w http.ResponseWriter, r *http.Request) {
	column := mux.Vars(r)["column"]

	exp, ok := d.explore(w, r)
	if !ok {
		return
	}

	vals, err := services.Distribution(exp.Table(), column)
	if err != nil {
		d.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderHistogram(&buf, column, vals); err != nil {
		d.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// explore runs the pipeline for the request's selection, writing the error
// response itself when it fails.
func (d *Dashboard) explore(w http.ResponseWriter, r *http.Request) (*services.Exploration, bool) {
	t, err := d.responses.Get(r.Context())
	if err != nil {
		d.sourceFailed(w, r, err)
		return nil, false
	}

	sel, err := services.ParseSelection(r.URL.Query(), models.FilterColumns)
	if err != nil {
		d.writeError(w, r, err)
		return nil, false
	}

	exp, err := d.explorer.Explore(t, sel)
	if err != nil {
		d.writeError(w, r, err)
		return nil, false
	}
	return exp, true
}

func (d *Dashboard) handleAggregateOptions(w http.ResponseWriter, r *http.Request) {
	t, ok := d.aggregateTable(w, r)
	if !ok {
		return
	}

	columns := append(append([]string(nil), models.FilterColumns...), models.ColTotalYOE)
	opts, err := services.ExtractAllOptions(t, columns)
	if err != nil {
		d.writeError(w, r, err)
		return
	}
	// A lookup needs concrete values, so the wildcard is not offered.
	for col, vals := range opts {
		opts[col] = vals[1:]
	}
	d.writeJSON(w, http.StatusOK, optionsResponse{Columns: columns, Options: opts})
}

func (d *Dashboard) handleLookup(w http.ResponseWriter, r *http.Request) {
	t, ok := d.aggregateTable(w, r)
	if !ok {
		return
	}

	key, err := services.ParseKey(r.URL.Query())
	if err != nil {
		d.writeError(w, r, err)
		return
	}

	row, err := services.Lookup(t, key)
	if err != nil {
		d.writeError(w, r, err)
		return
	}
	d.writeJSON(w, http.StatusOK, row)
}

func (d *Dashboard) aggregateTable(w http.ResponseWriter, r *http.Request) (*models.Table, bool) {
	if d.aggregates == nil {
		d.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "aggregate dataset not configured"})
		return nil, false
	}
	t, err := d.aggregates.Get(r.Context())
	if err != nil {
		d.sourceFailed(w, r, err)
		return nil, false
	}
	return t, true
}

type refreshResponse struct {
	Datasets map[string]int `json:"datasets"`
	Elapsed  string         `json:"elapsed"`
}

func (d *Dashboard) handleRefresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	out := refreshResponse{Datasets: make(map[string]int)}

	sources := map[models.Dataset]TableSource{models.Responses: d.responses}
	if d.aggregates != nil {
		sources[models.Aggregates] = d.aggregates
	}
	for name, src := range sources {
		t, err := src.Refresh(r.Context())
		if err != nil {
			d.sourceFailed(w, r, errors.Wrapf(err, "refresh %s", name))
			return
		}
		out.Datasets[string(name)] = t.Len()
	}

	out.Elapsed = time.Since(start).Round(time.Millisecond).String()
	d.writeJSON(w, http.StatusOK, out)
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps the pipeline's error taxonomy onto HTTP. Expected no-data
// outcomes and malformed selections are answered plainly; anything else is a
// defect and is logged with the request id.
func (d *Dashboard) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case models.IsNoData(err):
		d.writeJSON(w, http.StatusNotFound, errorResponse{Error: models.NoDataMessage, Detail: err.Error()})
	case errors.Is(err, models.ErrColumnNotFound),
		errors.Is(err, models.ErrInvalidSelection),
		errors.Is(err, models.ErrInvalidKey):
		d.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid selection", Detail: err.Error()})
	default:
		loggerFrom(r.Context(), d.logger).Error("[http] %s %s failed: %+v", r.Method, r.URL.Path, err)
		d.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// sourceFailed reports a dataset that could not be loaded. This covers fetch
// failures and schema mismatches alike and is never a no-data outcome.
func (d *Dashboard) sourceFailed(w http.ResponseWriter, r *http.Request, err error) {
	loggerFrom(r.Context(), d.logger).Error("[http] dataset unavailable: %v", err)
	d.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "data source unavailable", Detail: err.Error()})
}

func (d *Dashboard) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.logger.Error("[http] encode response: %v", err)
	}
}
