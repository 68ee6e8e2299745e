package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration struct for g5kdash.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	GitLab    GitLabConfig    `mapstructure:"gitlab"`
	Results   ResultsConfig   `mapstructure:"results"`
	History   HistoryConfig   `mapstructure:"history"`
	Trend     TrendConfig     `mapstructure:"trend"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GitLabConfig locates the revision store holding benchmark results.
type GitLabConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Namespace  string        `mapstructure:"namespace"`
	Repository string        `mapstructure:"repository"`
	Branch     string        `mapstructure:"branch"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ProjectID  int           `mapstructure:"project_id"`
	PerPage    int           `mapstructure:"per_page"`
}

// ResultsConfig describes the results tree inside the repository.
type ResultsConfig struct {
	Root      string `mapstructure:"root"`
	Extension string `mapstructure:"extension"`
}

// HistoryConfig holds revision-history reconstruction knobs.
type HistoryConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// TrendConfig holds step-trend segmentation thresholds for the two
// derived timing series.
type TrendConfig struct {
	InitialThreshold float64 `mapstructure:"initial_threshold"`
	ComputeThreshold float64 `mapstructure:"compute_threshold"`
}

// CacheConfig holds query cache snapshot settings. An empty Dir disables
// snapshot persistence.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	Snapshot bool   `mapstructure:"snapshot"`
}

// ServeConfig holds HTTP server settings for serve mode.
type ServeConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
}

// TelemetryConfig holds logging and OTel export settings.
type TelemetryConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	LogLevel     string  `mapstructure:"log_level"`
	LogFormat    string  `mapstructure:"log_format"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// maxPort is the highest valid TCP port.
const maxPort = 65535

// maxPerPage is the GitLab API cap on page size.
const maxPerPage = 100

// maxThreshold is the upper bound for trend thresholds.
const maxThreshold = 100.0

// Sentinel errors for configuration validation.
var (
	// ErrInvalidProjectID indicates the GitLab project ID is negative.
	ErrInvalidProjectID = errors.New("gitlab.project_id must be non-negative")
	// ErrInvalidPerPage indicates the page size is out of the API range.
	ErrInvalidPerPage = errors.New("gitlab.per_page must be between 0 and 100")
	// ErrInvalidTimeout indicates the request timeout is negative.
	ErrInvalidTimeout = errors.New("gitlab.timeout must be non-negative")
	// ErrInvalidConcurrency indicates the history concurrency is negative.
	ErrInvalidConcurrency = errors.New("history.concurrency must be non-negative")
	// ErrInvalidThreshold indicates a trend threshold is out of range.
	ErrInvalidThreshold = errors.New("trend thresholds must be in (0, 100]")
	// ErrInvalidPort indicates the serve port is out of range.
	ErrInvalidPort = errors.New("serve.port must be between 0 and 65535")
	// ErrInvalidSampleRatio indicates the trace sampling ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
// Zero values mean "unset" and pass validation; consumers substitute
// their own defaults.
func (c *Config) Validate() error {
	gitlabErr := c.validateGitLab()
	if gitlabErr != nil {
		return gitlabErr
	}

	pipelineErr := c.validatePipeline()
	if pipelineErr != nil {
		return pipelineErr
	}

	return c.validateServe()
}

func (c *Config) validateGitLab() error {
	if c.GitLab.ProjectID < 0 {
		return ErrInvalidProjectID
	}

	if c.GitLab.PerPage < 0 || c.GitLab.PerPage > maxPerPage {
		return ErrInvalidPerPage
	}

	if c.GitLab.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

func (c *Config) validatePipeline() error {
	if c.History.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if !thresholdOK(c.Trend.InitialThreshold) || !thresholdOK(c.Trend.ComputeThreshold) {
		return ErrInvalidThreshold
	}

	return nil
}

func (c *Config) validateServe() error {
	if c.Serve.Port < 0 || c.Serve.Port > maxPort {
		return ErrInvalidPort
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}

// thresholdOK accepts zero (unset) or a value in (0, 100].
func thresholdOK(threshold float64) bool {
	return threshold >= 0 && threshold <= maxThreshold
}
