package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jrh3k5/tokenpage/internal/chain"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
)

type Config struct {
	// Server configuration
	ListenAddr string
	ListenPort int

	// Snapshot configuration
	RevalidateSeconds int
	SnapshotCacheSize int

	// Upstream configuration
	NormalizeRoyalties bool
	ChainsFile         string
	ReservoirAPIKey    string
	OpenSeaBaseURL     string
	OpenSeaAPIKey      string
	ENSBaseURL         string
	ENSCacheSize       int
	ENSCacheTTLSeconds int

	// Logging configuration
	LogLevel string
}

// Load reads the .env file at envFile, when it exists, into the environment and then
// builds the configuration from it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		exists, err := tpio.FileExists(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to check for env file '%s': %w", envFile, err)
		}

		if exists {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file '%s': %w", envFile, err)
			}
		} else {
			slog.Debug("No env file found; using the process environment", "file", envFile)
		}
	}

	return NewConfig(), nil
}

// NewConfig creates a new config from environment variables or defaults.
func NewConfig() *Config {
	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", "0.0.0.0"),
		ListenPort:         getEnvInt("LISTEN_PORT", 8080),
		RevalidateSeconds:  getEnvInt("REVALIDATE_SECONDS", snapshot.DefaultRevalidateSeconds),
		SnapshotCacheSize:  getEnvInt("SNAPSHOT_CACHE_SIZE", 4096),
		NormalizeRoyalties: getEnvBool("NORMALIZE_ROYALTIES", false),
		ChainsFile:         getEnv("CHAINS_FILE", ""),
		ReservoirAPIKey:    getEnv("RESERVOIR_API_KEY", ""),
		OpenSeaBaseURL:     strings.TrimSuffix(getEnv("OPENSEA_BASE_URL", "https://api.opensea.io"), "/"),
		OpenSeaAPIKey:      getEnv("OPENSEA_API_KEY", ""),
		ENSBaseURL:         strings.TrimSuffix(getEnv("ENS_BASE_URL", "https://api.ensideas.com"), "/"),
		ENSCacheSize:       getEnvInt("ENS_CACHE_SIZE", 1024),
		ENSCacheTTLSeconds: getEnvInt("ENS_CACHE_TTL_SECONDS", 3600), // 1 hour
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}

	return defaultVal
}

// Validate checks the configuration for validity.
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port: %d", c.ListenPort)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.RevalidateSeconds <= 0 {
		return fmt.Errorf("revalidate seconds must be positive: %d", c.RevalidateSeconds)
	}
	if c.SnapshotCacheSize <= 0 {
		return fmt.Errorf("snapshot cache size must be positive: %d", c.SnapshotCacheSize)
	}
	if c.OpenSeaBaseURL == "" {
		return errors.New("OpenSea base URL cannot be empty")
	}
	if c.ENSBaseURL == "" {
		return errors.New("ENS base URL cannot be empty")
	}
	if c.ENSCacheSize <= 0 {
		return fmt.Errorf("ENS cache size must be positive: %d", c.ENSCacheSize)
	}
	if c.ENSCacheTTLSeconds <= 0 {
		return fmt.Errorf("ENS cache TTL must be positive: %d", c.ENSCacheTTLSeconds)
	}

	return nil
}

// QueryOptions returns the options applied to every marketplace query.
func (c *Config) QueryOptions() reservoir.QueryOptions {
	return reservoir.QueryOptions{NormalizeRoyalties: c.NormalizeRoyalties}
}

// ENSCacheTTL returns how long a resolved name is cached.
func (c *Config) ENSCacheTTL() time.Duration {
	return time.Duration(c.ENSCacheTTLSeconds) * time.Second
}

// Registry builds the chain registry: the chains file when one is configured, else the
// built-in chains.
func (c *Config) Registry() (*chain.Registry, error) {
	if c.ChainsFile == "" {
		return chain.NewRegistry(chain.DefaultChains(c.ReservoirAPIKey)...)
	}

	file, err := os.Open(c.ChainsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open chains file '%s': %w", c.ChainsFile, err)
	}
	defer func() { _ = file.Close() }()

	registry, err := chain.FromYAML(file, c.ReservoirAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read chains file '%s': %w", c.ChainsFile, err)
	}

	return registry, nil
}
