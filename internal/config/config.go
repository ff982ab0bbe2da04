package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/ca-srg/ccrcheck/internal/types"
)

// Type alias for Config
type Config = types.Config

const maxResultSize = 10000

// Load loads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile is Load with an explicit dotenv path. Variables already
// present in the environment win over the file.
func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// CCS targets may be separated by pipes or commas
	config.CCSIndices = splitList(config.CCSIndicesStr)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '|' || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if err := validateEndpoint("CCR_WEST_ENDPOINT", config.WestEndpoint); err != nil {
		return err
	}
	if err := validateEndpoint("CCR_EAST_ENDPOINT", config.EastEndpoint); err != nil {
		return err
	}

	if err := validateBackend("CCR_WEST_BACKEND", config.WestBackend); err != nil {
		return err
	}
	if err := validateBackend("CCR_EAST_BACKEND", config.EastBackend); err != nil {
		return err
	}

	if strings.TrimSpace(config.WestIndex) == "" {
		return fmt.Errorf("CCR_WEST_INDEX cannot be empty")
	}
	if strings.TrimSpace(config.EastIndex) == "" {
		return fmt.Errorf("CCR_EAST_INDEX cannot be empty")
	}

	if strings.TrimSpace(config.SortField) == "" {
		return fmt.Errorf("CCR_SORT_FIELD cannot be empty")
	}
	config.SortOrder = strings.ToLower(strings.TrimSpace(config.SortOrder))
	if config.SortOrder != "asc" && config.SortOrder != "desc" {
		return fmt.Errorf("CCR_SORT_ORDER must be asc or desc, got %q", config.SortOrder)
	}

	config.ResultSize = ClampSize(config.ResultSize)

	// Validate retry attempts
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.MaxRetries > 10 {
		config.MaxRetries = 10
	}

	if config.RateLimit <= 0 {
		return fmt.Errorf("CCR_RATE_LIMIT must be greater than 0")
	}
	if config.RateBurst <= 0 {
		config.RateBurst = 1
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("CCR_REQUEST_TIMEOUT must be greater than 0")
	}

	return nil
}

// ClampSize keeps a requested result size within what the engines accept.
func ClampSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > maxResultSize {
		return maxResultSize
	}
	return size
}

func validateEndpoint(name, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%s is required", name)
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid %s URL format: %w", name, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https", name)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must include a valid host", name)
	}

	return nil
}

func validateBackend(name, backend string) error {
	switch types.Backend(backend) {
	case types.BackendElasticsearch, types.BackendOpenSearch:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", name, types.BackendElasticsearch, types.BackendOpenSearch, backend)
	}
}

// Cluster projects the settings for one side into a ClusterConfig.
func Cluster(cfg *Config, side types.Side) (*types.ClusterConfig, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	cc := &types.ClusterConfig{
		Side:            side,
		CABaseDir:       cfg.CABaseDir,
		InsecureSkipTLS: cfg.InsecureSkipTLS,
		RequestTimeout:  cfg.RequestTimeout,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
	}

	switch side {
	case types.SideWest:
		cc.Name = "West"
		cc.Backend = types.Backend(cfg.WestBackend)
		cc.Endpoint = cfg.WestEndpoint
		cc.Username = cfg.WestUsername
		cc.Password = cfg.WestPassword
		cc.CACertPath = cfg.WestCACert
		cc.Index = cfg.WestIndex
		cc.AWSRegion = cfg.WestAWSRegion
	case types.SideEast:
		cc.Name = "East"
		cc.Backend = types.Backend(cfg.EastBackend)
		cc.Endpoint = cfg.EastEndpoint
		cc.Username = cfg.EastUsername
		cc.Password = cfg.EastPassword
		cc.CACertPath = cfg.EastCACert
		cc.Index = cfg.EastIndex
		cc.AWSRegion = cfg.EastAWSRegion
	default:
		return nil, fmt.Errorf("unknown cluster side %q", side)
	}

	return cc, nil
}
