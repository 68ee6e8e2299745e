// Package config provides configuration loading and validation for g5kdash.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".g5kdash"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for g5kdash settings.
const envPrefix = "G5KDASH"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("gitlab.base_url", DefaultGitLabBaseURL)
	viperCfg.SetDefault("gitlab.namespace", DefaultGitLabNamespace)
	viperCfg.SetDefault("gitlab.repository", DefaultGitLabRepository)
	viperCfg.SetDefault("gitlab.branch", DefaultGitLabBranch)
	viperCfg.SetDefault("gitlab.project_id", DefaultGitLabProjectID)
	viperCfg.SetDefault("gitlab.per_page", DefaultGitLabPerPage)
	viperCfg.SetDefault("gitlab.timeout", DefaultGitLabTimeout)

	// Token has an empty default so the env override is visible to Unmarshal.
	viperCfg.SetDefault("gitlab.token", "")

	viperCfg.SetDefault("results.root", DefaultResultsRoot)
	viperCfg.SetDefault("results.extension", DefaultResultsExtension)

	viperCfg.SetDefault("history.concurrency", DefaultHistoryConcurrency)

	viperCfg.SetDefault("trend.initial_threshold", DefaultTrendInitialThreshold)
	viperCfg.SetDefault("trend.compute_threshold", DefaultTrendComputeThreshold)

	viperCfg.SetDefault("cache.dir", DefaultCacheDir)
	viperCfg.SetDefault("cache.snapshot", DefaultCacheSnapshot)

	viperCfg.SetDefault("serve.host", DefaultServeHost)
	viperCfg.SetDefault("serve.port", DefaultServePort)
	viperCfg.SetDefault("serve.read_timeout", DefaultServeReadTimeout)
	viperCfg.SetDefault("serve.write_timeout", DefaultServeWriteTimeout)
	viperCfg.SetDefault("serve.idle_timeout", DefaultServeIdleTimeout)

	viperCfg.SetDefault("telemetry.service_name", DefaultTelemetryServiceName)
	viperCfg.SetDefault("telemetry.environment", DefaultTelemetryEnvironment)
	viperCfg.SetDefault("telemetry.log_level", DefaultTelemetryLogLevel)
	viperCfg.SetDefault("telemetry.log_format", DefaultTelemetryLogFormat)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
}
