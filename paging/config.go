package paging

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds simulator configuration
type Config struct {
	// Engine Configuration
	FrameCount      int    `json:"frame_count"`      // Number of physical frames
	Algorithm       string `json:"algorithm"`        // Replacement policy (fifo, lru, lfu)
	CheckInvariants bool   `json:"check_invariants"` // Verify internal structures after every mutation
	HistoryLimit    int    `json:"history_limit"`    // Entries returned by State, 0 for all

	// Observability Configuration
	EnableMetrics bool   `json:"enable_metrics"` // Whether to collect performance metrics
	LogLevel      string `json:"log_level"`      // Log level (debug, info, warn, error)
	LogFormat     string `json:"log_format"`     // Log format (text, json)

	// Snapshot Configuration
	SnapshotDirectory   string `json:"snapshot_directory"`   // Empty disables snapshots
	SnapshotCompression string `json:"snapshot_compression"` // Compression algorithm (none, snappy, lz4)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		FrameCount:          4,
		Algorithm:           string(AlgorithmLRU),
		CheckInvariants:     false,
		HistoryLimit:        0,
		EnableMetrics:       true,
		LogLevel:            "info",
		LogFormat:           "text",
		SnapshotDirectory:   "",
		SnapshotCompression: "snappy",
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	err = json.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables
// Falls back to default values if environment variables are not set
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()
	config.ApplyEnv()
	return config
}

// ApplyEnv overrides fields from PAGESIM_* environment variables
func (c *Config) ApplyEnv() {
	// Engine
	if val := os.Getenv("PAGESIM_FRAME_COUNT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.FrameCount = n
		}
	}

	if val := os.Getenv("PAGESIM_ALGORITHM"); val != "" {
		c.Algorithm = val
	}

	if val := os.Getenv("PAGESIM_CHECK_INVARIANTS"); val != "" {
		c.CheckInvariants = val == "true" || val == "1"
	}

	if val := os.Getenv("PAGESIM_HISTORY_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.HistoryLimit = n
		}
	}

	// Observability
	if val := os.Getenv("PAGESIM_ENABLE_METRICS"); val != "" {
		c.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("PAGESIM_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv("PAGESIM_LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}

	// Snapshots
	if val := os.Getenv("PAGESIM_SNAPSHOT_DIRECTORY"); val != "" {
		c.SnapshotDirectory = val
	}

	if val := os.Getenv("PAGESIM_SNAPSHOT_COMPRESSION"); val != "" {
		c.SnapshotCompression = val
	}
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	const op = "Config.Validate"

	if c.FrameCount <= 0 {
		return ErrInvalidFrameCount(op, c.FrameCount)
	}

	if _, err := ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}

	if c.HistoryLimit < 0 {
		return NewSimError(ErrCodeInvalidConfig, op, "history limit cannot be negative", nil)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return NewSimError(ErrCodeInvalidConfig, op, fmt.Sprintf("invalid log level %q", c.LogLevel), nil)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return NewSimError(ErrCodeInvalidConfig, op, fmt.Sprintf("invalid log format %q", c.LogFormat), nil)
	}

	if _, err := ParseCompressionType(c.SnapshotCompression); err != nil {
		return NewSimError(ErrCodeInvalidConfig, op, "invalid snapshot compression", err)
	}

	return nil
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
