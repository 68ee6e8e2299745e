package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
)

type fakeLister struct {
	apps []string
	err  error
}

func (f fakeLister) ListApplications(context.Context) ([]string, error) {
	return f.apps, f.err
}

type fakeLoader struct {
	records []results.Record
	err     error
}

func (f fakeLoader) LoadCurrent(context.Context, string) ([]results.Record, error) {
	return f.records, f.err
}

type fakeReconstructor struct {
	hist history.History
	err  error
}

func (f fakeReconstructor) Reconstruct(context.Context, string) (history.History, error) {
	return f.hist, f.err
}

// stepHistory builds a history whose compute_time runs through the given
// values, one revision per day, with a constant initial_time of 1.
func stepHistory(timings ...float64) history.History {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	hist := make(history.History, 0, len(timings))

	for i, timing := range timings {
		hist = append(hist, history.Entry{
			Revision: fmt.Sprintf("rev%02d", i),
			Time:     base.AddDate(0, 0, i),
			Record: results.Record{
				File: "strong_scaling.json",
				Fields: map[string]results.Value{
					results.FieldInitialTime: results.Number(1),
					results.FieldComputeTime: results.Number(timing),
				},
			},
		})
	}

	return hist
}

func testServer(deps ServerDeps) *Server {
	if deps.Apps == nil {
		deps.Apps = fakeLister{}
	}

	if deps.Results == nil {
		deps.Results = fakeLoader{}
	}

	if deps.Histories == nil {
		deps.Histories = fakeReconstructor{}
	}

	return NewServer(deps)
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleListApplications(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Apps: fakeLister{apps: []string{"cg", "miniapp/solver"}}})

	result, output, err := srv.handleListApplications(context.Background(), &mcpsdk.CallToolRequest{}, ListApplicationsInput{})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Contains(t, resultText(t, result), "miniapp/solver")
	assert.Equal(t, []string{"cg", "miniapp/solver"}, output.Data)
}

func TestHandleListApplications_ListingError(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Apps: fakeLister{err: errors.New("store unreachable")}})

	result, _, err := srv.handleListApplications(context.Background(), &mcpsdk.CallToolRequest{}, ListApplicationsInput{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "store unreachable")
}

func TestHandleListApplications_Empty(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{})

	result, _, err := srv.handleListApplications(context.Background(), &mcpsdk.CallToolRequest{}, ListApplicationsInput{})
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestHandleLoadResults_EmptyApp(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{})

	result, _, err := srv.handleLoadResults(context.Background(), &mcpsdk.CallToolRequest{}, LoadResultsInput{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "app parameter is required")
}

func TestHandleLoadResults(t *testing.T) {
	t.Parallel()

	records := []results.Record{
		{
			File: "strong_scaling.json",
			Fields: map[string]results.Value{
				results.FieldMachine:     results.String("grisou"),
				results.FieldComputeTime: results.Number(40.5),
			},
		},
	}

	srv := testServer(ServerDeps{Results: fakeLoader{records: records}})

	result, output, err := srv.handleLoadResults(context.Background(), &mcpsdk.CallToolRequest{}, LoadResultsInput{App: "cg"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Contains(t, resultText(t, result), "grisou")
	assert.Equal(t, records, output.Data)
}

func TestHandleLoadResults_NoData(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{})

	result, _, err := srv.handleLoadResults(context.Background(), &mcpsdk.CallToolRequest{}, LoadResultsInput{App: "cg"})
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.Equal(t, "[]", resultText(t, result))
}

func TestHandleFileHistory_EmptyPath(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{})

	result, _, err := srv.handleFileHistory(context.Background(), &mcpsdk.CallToolRequest{}, FileHistoryInput{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "path parameter is required")
}

func TestHandleFileHistory(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{hist: stepHistory(10, 12)}})

	result, output, err := srv.handleFileHistory(context.Background(),
		&mcpsdk.CallToolRequest{}, FileHistoryInput{Path: "results/cg/strong_scaling.json"})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Contains(t, resultText(t, result), "rev00")
	assert.Contains(t, resultText(t, result), "rev01")

	hist, ok := output.Data.(history.History)
	require.True(t, ok)
	assert.Len(t, hist, 2)
}

func TestHandleDetectSteps_EmptyPath(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{})

	result, _, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{}, DetectStepsInput{})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "path parameter is required")
}

func TestHandleDetectSteps_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{hist: stepHistory(10, 100)}})

	result, _, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{},
		DetectStepsInput{Path: "results/cg/strong_scaling.json", Threshold: 250})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "threshold must be in")
}

func TestHandleDetectSteps_Defaults(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{hist: stepHistory(10, 10, 100, 100)}})

	_, output, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{},
		DetectStepsInput{Path: "results/cg/strong_scaling.json"})
	require.NoError(t, err)

	report, ok := output.Data.(StepsReport)
	require.True(t, ok)

	assert.Equal(t, results.FieldComputeTime, report.Field)
	assert.InDelta(t, defaultThreshold, report.Threshold, 0.001)

	// A 10x jump is a relative change of 9, under the default threshold of
	// 30, so the whole series stays one segment.
	require.Len(t, report.Segments, 1)
	assert.InDelta(t, 55, report.Segments[0].Mean, 0.001)
}

func TestHandleDetectSteps_SplitsAtThreshold(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{hist: stepHistory(10, 10, 100, 100)}})

	_, output, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{},
		DetectStepsInput{Path: "results/cg/strong_scaling.json", Threshold: 0.5})
	require.NoError(t, err)

	report, ok := output.Data.(StepsReport)
	require.True(t, ok)

	require.Len(t, report.Segments, 2)
	assert.InDelta(t, 10, report.Segments[0].Mean, 0.001)
	assert.InDelta(t, 100, report.Segments[1].Mean, 0.001)
	assert.Equal(t, []float64{10, 10, 100, 100}, report.Trend)
}

func TestHandleDetectSteps_TotalField(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{hist: stepHistory(10, 20)}})

	_, output, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{},
		DetectStepsInput{Path: "results/cg/strong_scaling.json", Field: results.FieldTotalTime, Threshold: 50})
	require.NoError(t, err)

	report, ok := output.Data.(StepsReport)
	require.True(t, ok)

	// initial_time is a constant 1 in stepHistory.
	assert.Equal(t, []float64{11, 21}, report.Series)
}

func TestHandleDetectSteps_ReconstructError(t *testing.T) {
	t.Parallel()

	srv := testServer(ServerDeps{Histories: fakeReconstructor{err: errors.New("store unreachable")}})

	result, _, err := srv.handleDetectSteps(context.Background(), &mcpsdk.CallToolRequest{},
		DetectStepsInput{Path: "results/cg/strong_scaling.json"})
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "store unreachable")
}
