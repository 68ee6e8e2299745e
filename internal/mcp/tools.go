package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
	"github.com/numpex/exa-di-g5k-dashboard/internal/trend"
)

// Tool name constants.
const (
	ToolNameListApplications = "list_applications"
	ToolNameLoadResults      = "load_results"
	ToolNameFileHistory      = "file_history"
	ToolNameDetectSteps      = "detect_steps"
)

// Defaults for detect_steps, matching the dashboard sliders.
const (
	defaultStepField = results.FieldComputeTime
	defaultThreshold = 30.0
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyApp indicates the app parameter is empty.
	ErrEmptyApp = errors.New("app parameter is required and must not be empty")
	// ErrEmptyPath indicates the path parameter is empty.
	ErrEmptyPath = errors.New("path parameter is required and must not be empty")
)

// Input types (JSON schemas come from the struct tags).

// ListApplicationsInput is the input schema for the list_applications tool.
type ListApplicationsInput struct{}

// LoadResultsInput is the input schema for the load_results tool.
type LoadResultsInput struct {
	App string `json:"app" jsonschema:"application folder name, relative to the results root"`
}

// FileHistoryInput is the input schema for the file_history tool.
type FileHistoryInput struct {
	Path string `json:"path" jsonschema:"repository path of the result file"`
}

// DetectStepsInput is the input schema for the detect_steps tool.
type DetectStepsInput struct {
	Path      string  `json:"path"                jsonschema:"repository path of the result file"`
	Field     string  `json:"field,omitempty"     jsonschema:"timing field to segment (default compute_time; total_time sums initial and compute)"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"relative-change threshold in (0, 100] (default 30)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// StepsReport is the structured output of the detect_steps tool.
type StepsReport struct {
	Path      string          `json:"path"`
	Field     string          `json:"field"`
	Threshold float64         `json:"threshold"`
	Series    []float64       `json:"series"`
	Trend     []float64       `json:"trend"`
	Segments  []trend.Segment `json:"segments"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// handleListApplications processes list_applications tool calls.
func (s *Server) handleListApplications(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	_ ListApplicationsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	apps, err := s.apps.ListApplications(ctx)
	if err != nil {
		return errorResult(err)
	}

	if apps == nil {
		apps = []string{}
	}

	return jsonResult(apps)
}

// handleLoadResults processes load_results tool calls. An application with
// no loadable records yields an empty list, not an error.
func (s *Server) handleLoadResults(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input LoadResultsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.App == "" {
		return errorResult(ErrEmptyApp)
	}

	records, err := s.records.LoadCurrent(ctx, input.App)
	if err != nil {
		return errorResult(err)
	}

	if records == nil {
		records = []results.Record{}
	}

	return jsonResult(records)
}

// handleFileHistory processes file_history tool calls.
func (s *Server) handleFileHistory(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input FileHistoryInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Path == "" {
		return errorResult(ErrEmptyPath)
	}

	hist, err := s.histories.Reconstruct(ctx, input.Path)
	if err != nil {
		return errorResult(err)
	}

	if hist == nil {
		hist = history.History{}
	}

	return jsonResult(hist)
}

// handleDetectSteps processes detect_steps tool calls.
func (s *Server) handleDetectSteps(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input DetectStepsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Path == "" {
		return errorResult(ErrEmptyPath)
	}

	field := input.Field
	if field == "" {
		field = defaultStepField
	}

	threshold := input.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}

	validateErr := trend.ValidateThreshold(threshold)
	if validateErr != nil {
		return errorResult(validateErr)
	}

	hist, err := s.histories.Reconstruct(ctx, input.Path)
	if err != nil {
		return errorResult(err)
	}

	series := fieldSeries(hist, field)

	return jsonResult(StepsReport{
		Path:      input.Path,
		Field:     field,
		Threshold: threshold,
		Series:    series,
		Trend:     trend.DetectSteps(series, threshold),
		Segments:  trend.Segments(series, threshold),
	})
}

// fieldSeries extracts the requested timing series, deriving total_time as
// the initial+compute sum.
func fieldSeries(hist history.History, field string) []float64 {
	if field == results.FieldTotalTime {
		return hist.TotalSeries(results.FieldInitialTime, results.FieldComputeTime)
	}

	return hist.Series(field)
}
