package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the config file version this build understands.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	API        API        `koanf:"api"`
	Engine     Engine     `koanf:"engine"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// API contains REST server configuration.
type API struct {
	Server    Server    `koanf:"server"`
	RateLimit RateLimit `koanf:"rate_limit"`
}

// Server contains HTTP listener configuration.
type Server struct {
	// Address to bind to.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
}

// RateLimit contains rate limiting configuration.
type RateLimit struct {
	// Requests allowed per second per client.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Burst size per client.
	BurstSize int `koanf:"burst_size"`
	// Violations before a temporary block.
	StrikeLimit int `koanf:"strike_limit"`
	// Block duration in seconds after repeated violations.
	BlockDuration int `koanf:"block_duration"`
}

// Engine contains the vote and reputation engine configuration.
type Engine struct {
	// Maximum attempts for a cast that keeps losing the toggle race.
	MaxCastAttempts int `koanf:"max_cast_attempts"`
	// Reputation read cache TTL in seconds (0 disables the cache).
	ReputationCacheTTL int `koanf:"reputation_cache_ttl"`
	// Role -> target types that role may vote on.
	VotePolicy map[string][]string `koanf:"vote_policy"`
	// Target type -> reputation points for the content author.
	Points map[string]PointRule `koanf:"points"`
}

// PointRule maps vote stances on one target type to author point deltas.
type PointRule struct {
	// Points the author gains when the content receives an upvote.
	Upvote int64 `koanf:"upvote"`
	// Points the author gains (usually negative) on a downvote.
	Downvote int64 `koanf:"downvote"`
}

// LoadConfig loads the configuration file from the standard search paths
// and returns it along with the directory it was found in.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".repengine",
		homeDir + "/.repengine/config",
		"/etc/repengine/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/config.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version); err != nil {
		return nil, "", err
	}

	applyDefaults(&config)

	return &config, usedConfigPath, nil
}

// checkConfigVersion validates the version of the config file.
func checkConfigVersion(version int) error {
	if version == 0 {
		return ErrConfigVersionMissing
	}

	if version != CurrentVersion {
		return fmt.Errorf("%w: expected version %d, got %d (update your config file)",
			ErrConfigVersionMismatch, CurrentVersion, version)
	}

	return nil
}

// applyDefaults fills in safe values for settings the file omits.
func applyDefaults(config *Config) {
	if config.Debug.LogLevel == "" {
		config.Debug.LogLevel = "info"
	}

	if config.Debug.MaxLogsToKeep == 0 {
		config.Debug.MaxLogsToKeep = 10
	}

	if config.Engine.MaxCastAttempts == 0 {
		config.Engine.MaxCastAttempts = 3
	}

	if config.API.RateLimit.RequestsPerSecond == 0 {
		config.API.RateLimit.RequestsPerSecond = 10
	}

	if config.API.RateLimit.BurstSize == 0 {
		config.API.RateLimit.BurstSize = 20
	}

	if config.API.RateLimit.StrikeLimit == 0 {
		config.API.RateLimit.StrikeLimit = 3
	}

	if config.API.RateLimit.BlockDuration == 0 {
		config.API.RateLimit.BlockDuration = 300
	}
}
