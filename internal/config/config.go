package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// DataFolderName is the directory inside the workspace where archives,
// the cache database and generated reports live.
const DataFolderName = ".weather_era5"

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"` // Data directory settings
	CDS       CDSConfig       `toml:"cds"`       // Climate Data Store API settings
	Download  DownloadConfig  `toml:"download"`  // Dataset request settings
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Server    ServerConfig    `toml:"server"`    // Report browser HTTP settings
}

// WorkspaceConfig contains data directory configuration
type WorkspaceConfig struct {
	// Root directory for the workspace. The data directory is created
	// inside it as DataFolderName. Defaults to the user's home directory.
	Root string `toml:"root"`
}

// CDSConfig contains Climate Data Store API client configuration
type CDSConfig struct {
	URL             string `toml:"url"`              // CDS/ADS API base URL
	Key             string `toml:"key"`              // API token; overrides the credentials file when set
	CredentialsPath string `toml:"credentials_path"` // Path to a cdsapirc-style credentials file (default: ~/.cdsapirc)
	TimeoutSeconds  int    `toml:"timeout_seconds" validate:"gte=0"`
	MaxRetries      int    `toml:"max_retries" validate:"gte=0"`
}

// DownloadConfig contains dataset request configuration
type DownloadConfig struct {
	Dataset   string `toml:"dataset"`    // CDS dataset identifier
	DateRange string `toml:"date_range"` // Inclusive date range, e.g. "2016-01-01/2025-12-31"
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error"` // Log level
	Format string `toml:"format" validate:"omitempty,oneof=json console"`         // Log format
}

// ServerConfig contains HTTP configuration for the report browser
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
}

var validate = validator.New()

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Workspace: WorkspaceConfig{Root: home},
		CDS: CDSConfig{
			URL:             "https://cds.climate.copernicus.eu/api",
			CredentialsPath: filepath.Join(home, ".cdsapirc"),
			TimeoutSeconds:  300,
			MaxRetries:      3,
		},
		Download: DownloadConfig{
			Dataset:   "reanalysis-era5-land-timeseries",
			DateRange: "2016-01-01/2025-12-31",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8765},
	}
}

// Load reads configuration from the given TOML file, layered over defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}

// LoadWithFallback attempts to load configuration from the preferred path,
// then from conventional locations, and finally falls back to defaults when
// no config file exists anywhere.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath, // User-specified path (if provided)
		"weather.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "era5cli", "weather.toml"))
	}

	for _, path := range searchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	// A config file is optional for this tool; an explicitly requested
	// path that does not exist is still an error.
	if preferredPath != "" {
		return nil, fmt.Errorf("config file not found: %s", preferredPath)
	}
	return Default(), nil
}

// DataDir returns the directory holding archives, the cache database and
// generated reports.
func (c *Config) DataDir() string {
	return filepath.Join(c.Workspace.Root, DataFolderName)
}

// EnsureDataDir creates the data directory if it does not exist yet.
func (c *Config) EnsureDataDir() (string, error) {
	dir := c.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config value for %s (rule: %s)", strings.ToLower(fe.Namespace()), fe.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace root must not be empty")
	}
	if c.CDS.URL == "" {
		return fmt.Errorf("cds url must not be empty")
	}
	if c.Download.Dataset == "" {
		return fmt.Errorf("download dataset must not be empty")
	}
	if !strings.Contains(c.Download.DateRange, "/") {
		return fmt.Errorf("invalid date_range %q (expected start/end)", c.Download.DateRange)
	}
	return nil
}
