package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/numpex/exa-di-g5k-dashboard/internal/cache"
	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/observability"
	"github.com/numpex/exa-di-g5k-dashboard/internal/render"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
	"github.com/numpex/exa-di-g5k-dashboard/internal/trend"
)

// API query parameter names.
const (
	paramApp       = "app"
	paramFile      = "file"
	paramField     = "field"
	paramThreshold = "threshold"
)

// Informational messages for legitimately empty responses.
const (
	msgNoApplications = "no applications found"
	msgNoResults      = "no results to show"
	msgNoRevisions    = "no usable revisions"
)

// APIResponse is the envelope of every JSON API endpoint. Message is set
// only for legitimately empty responses and for errors.
type APIResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// TrendReport is the response body of the trend endpoint.
type TrendReport struct {
	File      string          `json:"file"`
	Field     string          `json:"field"`
	Threshold float64         `json:"threshold"`
	Series    []float64       `json:"series"`
	Trend     []float64       `json:"trend"`
	Segments  []trend.Segment `json:"segments"`
}

// routes builds the HTTP mux with the API, chart, health and metrics
// endpoints, wrapped in the tracing and RED metrics middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/applications", s.handleApplications)
	mux.HandleFunc("/api/v1/results", s.handleResults)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/trend", s.handleTrend)
	mux.HandleFunc("/chart", s.handleChart)
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler())

	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}

	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("g5kdash")
	}

	return observability.HTTPMiddleware(tracer, s.metrics, mux)
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	apps, err := s.appsCache.GetOrCompute(cache.Key("apps", s.cfg.Results.Root), func() ([]string, error) {
		return s.apps.ListApplications(r.Context())
	})
	if err != nil {
		s.writeError(r.Context(), w, err)

		return
	}

	if len(apps) == 0 {
		s.writeJSON(r.Context(), w, APIResponse{Message: msgNoApplications})

		return
	}

	s.writeJSON(r.Context(), w, APIResponse{Data: apps})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	app := r.URL.Query().Get(paramApp)
	if app == "" {
		s.writeBadRequest(r.Context(), w, "app parameter is required")

		return
	}

	records, err := s.resultsCache.GetOrCompute(cache.Key("results", app), func() ([]results.Record, error) {
		return s.records.LoadCurrent(r.Context(), app)
	})
	if err != nil {
		s.writeError(r.Context(), w, err)

		return
	}

	if len(records) == 0 {
		s.writeJSON(r.Context(), w, APIResponse{Message: msgNoResults})

		return
	}

	s.writeJSON(r.Context(), w, APIResponse{Data: records})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	file := r.URL.Query().Get(paramFile)
	if file == "" {
		s.writeBadRequest(r.Context(), w, "file parameter is required")

		return
	}

	hist, err := s.fileHistory(r.Context(), file)
	if err != nil {
		s.writeError(r.Context(), w, err)

		return
	}

	if len(hist) == 0 {
		s.writeJSON(r.Context(), w, APIResponse{Message: msgNoRevisions})

		return
	}

	s.writeJSON(r.Context(), w, APIResponse{Data: hist})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	query := r.URL.Query()

	file := query.Get(paramFile)
	if file == "" {
		s.writeBadRequest(r.Context(), w, "file parameter is required")

		return
	}

	field := query.Get(paramField)
	if field == "" {
		field = results.FieldComputeTime
	}

	threshold, err := s.trendThreshold(query.Get(paramThreshold), field)
	if err != nil {
		s.writeBadRequest(r.Context(), w, err.Error())

		return
	}

	hist, err := s.fileHistory(r.Context(), file)
	if err != nil {
		s.writeError(r.Context(), w, err)

		return
	}

	if len(hist) == 0 {
		s.writeJSON(r.Context(), w, APIResponse{Message: msgNoRevisions})

		return
	}

	series := trendSeries(hist, field)

	s.writeJSON(r.Context(), w, APIResponse{Data: TrendReport{
		File:      file,
		Field:     field,
		Threshold: threshold,
		Series:    series,
		Trend:     trend.DetectSteps(series, threshold),
		Segments:  trend.Segments(series, threshold),
	}})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	file := r.URL.Query().Get(paramFile)
	if file == "" {
		s.writeBadRequest(r.Context(), w, "file parameter is required")

		return
	}

	hist, err := s.fileHistory(r.Context(), file)
	if err != nil {
		s.writeError(r.Context(), w, err)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(hist) == 0 {
		fmt.Fprintf(w, "<!DOCTYPE html><html><body><p>%s for %q</p></body></html>\n", msgNoRevisions, file)

		return
	}

	page := render.HistoryPage(file, hist, s.cfg.Trend.InitialThreshold, s.cfg.Trend.ComputeThreshold)

	renderErr := page.Render(w)
	if renderErr != nil {
		s.logger.ErrorContext(r.Context(), "chart page render failed", "file", file, "error", renderErr)
	}
}

// fileHistory reconstructs one file's history through the query cache.
func (s *Server) fileHistory(ctx context.Context, file string) (history.History, error) {
	return s.historyCache.GetOrCompute(cache.Key("history", file), func() (history.History, error) {
		return s.histories.Reconstruct(ctx, file)
	})
}

// trendThreshold resolves the threshold query parameter, falling back to the
// configured threshold of the requested field.
func (s *Server) trendThreshold(raw, field string) (float64, error) {
	if raw == "" {
		if field == results.FieldInitialTime {
			return s.cfg.Trend.InitialThreshold, nil
		}

		return s.cfg.Trend.ComputeThreshold, nil
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("threshold parameter: %w", err)
	}

	validateErr := trend.ValidateThreshold(threshold)
	if validateErr != nil {
		return 0, validateErr
	}

	return threshold, nil
}

// trendSeries extracts the requested timing series, deriving total_time as
// the initial+compute sum.
func trendSeries(hist history.History, field string) []float64 {
	if field == results.FieldTotalTime {
		return hist.TotalSeries(results.FieldInitialTime, results.FieldComputeTime)
	}

	return hist.Series(field)
}

// writeJSON encodes the given value as JSON and writes it to the response
// writer.
func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	s.writeBody(ctx, w, value)
}

func (s *Server) writeBadRequest(ctx context.Context, w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	s.writeBody(ctx, w, APIResponse{Message: message})
}

// writeError maps pipeline failures onto HTTP statuses: an unreachable
// store is a bad gateway, a missing path is not found, anything else is an
// internal error.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, gitlab.ErrRemoteUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, gitlab.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, trend.ErrThresholdRange):
		status = http.StatusBadRequest
	}

	s.logger.ErrorContext(ctx, "request failed", "status", status, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	s.writeBody(ctx, w, APIResponse{Message: err.Error()})
}

func (s *Server) writeBody(ctx context.Context, w http.ResponseWriter, value any) {
	encodeErr := json.NewEncoder(w).Encode(value)
	if encodeErr != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
