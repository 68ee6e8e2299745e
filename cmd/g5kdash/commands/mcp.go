package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/config"
	"github.com/numpex/exa-di-g5k-dashboard/internal/mcp"
	"github.com/numpex/exa-di-g5k-dashboard/internal/observability"
	"github.com/numpex/exa-di-g5k-dashboard/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the benchmark dashboard as tools that AI agents
can discover and invoke:
  - list_applications: List applications with published results
  - load_results: Load the current records of one application
  - file_history: Reconstruct the revision history of one result file
  - detect_steps: Segment a timing series into step trends`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(stringFlag(cobraCmd, "config"))
			if err != nil {
				return err
			}

			providers, err := initMCPObservability(debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			pl := pipelineFromConfig(cfg, providers.Logger)

			srv := mcp.NewServer(mcp.ServerDeps{
				Apps:      pl.apps,
				Results:   pl.records,
				Histories: pl.histories,
				Logger:    providers.Logger,
				Metrics:   red,
				Tracer:    providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

// initMCPObservability configures telemetry for stdio transport: logs as
// JSON on stderr, export driven by the standard OTLP environment variables.
// Stdout stays reserved for the protocol.
func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
	}

	return observability.Init(cfg)
}
