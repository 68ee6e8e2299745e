package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/numpex/exa-di-g5k-dashboard/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		GitLab: config.GitLabConfig{
			BaseURL:    "https://gitlab.inria.fr",
			Namespace:  "numpex-pc5/wp2-co-design",
			Repository: "g5k-testing",
			Branch:     "main",
			ProjectID:  60556,
			PerPage:    100,
			Timeout:    30 * time.Second,
		},
		Results: config.ResultsConfig{
			Root:      "results",
			Extension: ".json",
		},
		History: config.HistoryConfig{
			Concurrency: 4,
		},
		Trend: config.TrendConfig{
			InitialThreshold: 30,
			ComputeThreshold: 30,
		},
		Serve: config.ServeConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ZeroConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidProjectID_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitLab.ProjectID = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidProjectID)
}

func TestValidate_InvalidPerPage_Negative_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitLab.PerPage = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPerPage)
}

func TestValidate_InvalidPerPage_TooHigh_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitLab.PerPage = 101

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPerPage)
}

func TestValidate_InvalidTimeout_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.GitLab.Timeout = -time.Second

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidTimeout)
}

func TestValidate_InvalidConcurrency_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.History.Concurrency = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidConcurrency)
}

func TestValidate_InvalidInitialThreshold_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Trend.InitialThreshold = -5

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidThreshold)
}

func TestValidate_InvalidComputeThreshold_TooHigh_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Trend.ComputeThreshold = 100.5

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidThreshold)
}

func TestValidate_InvalidPort_Negative_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Serve.Port = -1

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestValidate_InvalidPort_TooHigh_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Serve.Port = 70000

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestValidate_InvalidSampleRatio_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Telemetry.SampleRatio = 1.5

	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrInvalidSampleRatio)
}
