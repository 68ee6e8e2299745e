// Package mcp implements a Model Context Protocol server exposing the
// benchmark dashboard pipeline as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/observability"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
	"github.com/numpex/exa-di-g5k-dashboard/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "g5kdash"

	// toolCount is the expected number of registered tools.
	toolCount = 4
)

// ApplicationLister lists the application folders of the results tree.
type ApplicationLister interface {
	ListApplications(ctx context.Context) ([]string, error)
}

// ResultLoader loads the current records of one application.
type ResultLoader interface {
	LoadCurrent(ctx context.Context, app string) ([]results.Record, error)
}

// HistoryReconstructor rebuilds the revision history of one result file.
type HistoryReconstructor interface {
	Reconstruct(ctx context.Context, filePath string) (history.History, error)
}

// ServerDeps holds the dependencies of the MCP server. The pipeline
// collaborators are required; the observability fields are optional and
// zero values disable the matching concern.
type ServerDeps struct {
	// Apps lists application folders.
	Apps ApplicationLister

	// Results loads current records.
	Results ResultLoader

	// Histories reconstructs file histories.
	Histories HistoryReconstructor

	// Logger is an optional structured logger. Nil uses the SDK default.
	Logger *slog.Logger

	// Metrics is an optional RED recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional tracer for per-tool-call spans. Nil disables
	// tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the dashboard tool registrations.
type Server struct {
	inner     *mcpsdk.Server
	apps      ApplicationLister
	records   ResultLoader
	histories HistoryReconstructor
	metrics   *observability.REDMetrics
	tracer    trace.Tracer

	mu    sync.RWMutex
	tools []string
}

// NewServer creates an MCP server with all dashboard tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	srv := &Server{
		inner:     inner,
		apps:      deps.Apps,
		records:   deps.Results,
		histories: deps.Histories,
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
		tools:     make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	s.registerListApplications()
	s.registerLoadResults()
	s.registerFileHistory()
	s.registerDetectSteps()
}

func (s *Server) registerListApplications() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameListApplications,
		Description: listApplicationsDescription,
	}, withMetrics(s.metrics, ToolNameListApplications,
		withTracing(s.tracer, ToolNameListApplications, s.handleListApplications)))

	s.trackTool(ToolNameListApplications)
}

func (s *Server) registerLoadResults() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameLoadResults,
		Description: loadResultsDescription,
	}, withMetrics(s.metrics, ToolNameLoadResults,
		withTracing(s.tracer, ToolNameLoadResults, s.handleLoadResults)))

	s.trackTool(ToolNameLoadResults)
}

func (s *Server) registerFileHistory() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFileHistory,
		Description: fileHistoryDescription,
	}, withMetrics(s.metrics, ToolNameFileHistory,
		withTracing(s.tracer, ToolNameFileHistory, s.handleFileHistory)))

	s.trackTool(ToolNameFileHistory)
}

func (s *Server) registerDetectSteps() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameDetectSteps,
		Description: detectStepsDescription,
	}, withMetrics(s.metrics, ToolNameDetectSteps,
		withTracing(s.tracer, ToolNameDetectSteps, s.handleDetectSteps)))

	s.trackTool(ToolNameDetectSteps)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// mcpSpanPrefix is the prefix of MCP tool span and metric operation names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps a tool handler to open a span per invocation and append
// the trace id to the response content when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps a tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

// Tool description constants.
const (
	listApplicationsDescription = "List the applications holding benchmark results " +
		"in the revision store. Returns root-relative folder names."

	loadResultsDescription = "Load the current benchmark record of every " +
		"configuration file of one application."

	fileHistoryDescription = "Reconstruct the revision history of one result file, " +
		"ordered by the timestamps the records carry."

	detectStepsDescription = "Segment a timing series of one result file into " +
		"piecewise-constant steps at a relative-change threshold."
)
