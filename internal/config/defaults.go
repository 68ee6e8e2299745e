package config

// GitLab revision-store defaults, matching the production deployment.
const (
	DefaultGitLabBaseURL    = "https://gitlab.inria.fr"
	DefaultGitLabNamespace  = "numpex-pc5/wp2-co-design"
	DefaultGitLabRepository = "g5k-testing"
	DefaultGitLabBranch     = "main"
	DefaultGitLabProjectID  = 60556
	DefaultGitLabPerPage    = 100
	DefaultGitLabTimeout    = "30s"
)

// Results tree defaults.
const (
	DefaultResultsRoot      = "results"
	DefaultResultsExtension = ".json"
)

// History reconstruction defaults.
const (
	DefaultHistoryConcurrency = 4
)

// Step-trend segmentation defaults. Thresholds live in (0, 100].
const (
	DefaultTrendInitialThreshold = 30.0
	DefaultTrendComputeThreshold = 30.0
)

// Cache snapshot defaults. An empty dir disables persistence.
const (
	DefaultCacheDir      = ""
	DefaultCacheSnapshot = false
)

// Serve mode defaults.
const (
	DefaultServeHost         = "0.0.0.0"
	DefaultServePort         = 8080
	DefaultServeReadTimeout  = "30s"
	DefaultServeWriteTimeout = "60s"
	DefaultServeIdleTimeout  = "120s"
)

// Telemetry defaults.
const (
	DefaultTelemetryServiceName = "g5kdash"
	DefaultTelemetryEnvironment = "dev"
	DefaultTelemetryLogLevel    = "info"
	DefaultTelemetryLogFormat   = "text"
	DefaultTelemetrySampleRatio = 0.0
)
