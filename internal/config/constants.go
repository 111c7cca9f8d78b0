package config

import "time"

// Application constants
const (
	AppName    = "pindex"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. PINDEX_LOGGING_LEVEL
	EnvPrefix = "PINDEX"
	// ConfigFileEnv names the YAML file to overlay on the defaults
	ConfigFileEnv = "PINDEX_CONFIG"

	// Calculation
	DefaultAlphaStep      = 0.1
	DefaultMaxConcurrency = 1

	// Export
	DefaultOutputDir    = "."
	DefaultRatiosFile   = "PPProbs.txt"
	DefaultIndicesFile  = "PIndices.txt"
	DefaultWorkbookFile = "pindex.xlsx"
	DefaultPrecision    = 6

	// Server
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxUploadBytes  = 64 << 20
	DefaultRateLimitRPS    = 2
	DefaultRateLimitBurst  = 4

	// Logging
	DefaultLogLevel  = "info"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/pindex.log"
)
