// Package commands implements CLI command handlers for g5kdash.
package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/numpex/exa-di-g5k-dashboard/internal/config"
	"github.com/numpex/exa-di-g5k-dashboard/internal/discovery"
	"github.com/numpex/exa-di-g5k-dashboard/internal/gitlab"
	"github.com/numpex/exa-di-g5k-dashboard/internal/history"
	"github.com/numpex/exa-di-g5k-dashboard/internal/observability"
	"github.com/numpex/exa-di-g5k-dashboard/internal/results"
	"github.com/numpex/exa-di-g5k-dashboard/pkg/version"
)

// applicationLister lists the application folders of the results tree.
type applicationLister interface {
	ListApplications(ctx context.Context) ([]string, error)
}

// resultLoader loads the current records of one application.
type resultLoader interface {
	LoadCurrent(ctx context.Context, app string) ([]results.Record, error)
}

// historyReconstructor rebuilds the revision history of one result file.
type historyReconstructor interface {
	Reconstruct(ctx context.Context, filePath string) (history.History, error)
}

// pipeline bundles the wired collaborators every data command runs through.
type pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	apps      applicationLister
	records   resultLoader
	histories historyReconstructor
}

// pipelineOptions carries the per-invocation knobs a command applies before
// wiring: the config file path and flag overrides of config values.
type pipelineOptions struct {
	configPath  string
	concurrency int
	logger      *slog.Logger
}

// pipelineBuilder assembles a pipeline. Tests inject fakes through it.
type pipelineBuilder func(opts pipelineOptions) (*pipeline, error)

// buildPipeline is the production builder: config file + env + defaults,
// then the GitLab client and the services on top of it.
func buildPipeline(opts pipelineOptions) (*pipeline, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.concurrency > 0 {
		cfg.History.Concurrency = opts.concurrency
	}

	return pipelineFromConfig(cfg, opts.logger), nil
}

func pipelineFromConfig(cfg *config.Config, logger *slog.Logger) *pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := gitlab.Config{
		BaseURL:    cfg.GitLab.BaseURL,
		ProjectID:  strconv.Itoa(cfg.GitLab.ProjectID),
		Namespace:  cfg.GitLab.Namespace,
		Repository: cfg.GitLab.Repository,
		Branch:     cfg.GitLab.Branch,
		Token:      cfg.GitLab.Token,
		PerPage:    cfg.GitLab.PerPage,
	}

	if cfg.GitLab.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.GitLab.Timeout}
	}

	client := gitlab.NewClient(clientCfg)
	walker := discovery.NewWalker(client, cfg.Results.Root, cfg.Results.Extension)

	return &pipeline{
		cfg:       cfg,
		logger:    logger,
		apps:      walker,
		records:   results.NewAggregator(walker, client, logger),
		histories: history.NewReconstructor(client, cfg.History.Concurrency, logger),
	}
}

// stringFlag reads a string flag, tolerating its absence. Persistent flags
// live on the root command and are not registered when a subcommand runs in
// isolation, as in tests.
func stringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return value
}

// boolFlag reads a bool flag, tolerating its absence.
func boolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return value
}

// cliLogger builds the logger for one-shot data commands: text on stderr,
// level driven by the --verbose / --quiet persistent flags.
func cliLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo

	switch {
	case boolFlag(cmd, "verbose"):
		level = slog.LevelDebug
	case boolFlag(cmd, "quiet"):
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// observabilityConfig maps the process configuration onto the telemetry
// stack's own config for the long-running modes.
func observabilityConfig(cfg *config.Config, mode observability.AppMode) observability.Config {
	ocfg := observability.DefaultConfig()
	ocfg.ServiceVersion = version.Version
	ocfg.Mode = mode
	ocfg.Environment = cfg.Telemetry.Environment
	ocfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	ocfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	ocfg.SampleRatio = cfg.Telemetry.SampleRatio
	ocfg.LogLevel = parseLogLevel(cfg.Telemetry.LogLevel)
	ocfg.LogJSON = cfg.Telemetry.LogFormat == "json"

	if cfg.Telemetry.ServiceName != "" {
		ocfg.ServiceName = cfg.Telemetry.ServiceName
	}

	return ocfg
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
