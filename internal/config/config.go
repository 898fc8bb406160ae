package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Store    StoreConfig    `yaml:"store" envconfig:"STORE"`
	Sheets   SheetsConfig   `yaml:"sheets" envconfig:"SHEETS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// StoreConfig selects and configures the backing medium for the indicator
// table. Medium is one of "csv", "xlsx" or "sheets".
type StoreConfig struct {
	Medium    string        `yaml:"medium" envconfig:"MEDIUM"`
	FilePath  string        `yaml:"file_path" envconfig:"FILE_PATH"`
	Worksheet string        `yaml:"worksheet" envconfig:"WORKSHEET"`
	CacheTTL  time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

// SheetsConfig contains Google Sheets access configuration. Credentials are
// a service-account JSON bundle supplied out of band.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// Default returns the built-in configuration used when neither the config
// file nor the environment overrides a value.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/icedash.log",
		},
		Store: StoreConfig{
			Medium:    MediumCSV,
			FilePath:  "data/indicadores.csv",
			Worksheet: "Indicadores",
			CacheTTL:  60 * time.Second,
		},
		Sheets: SheetsConfig{
			CredentialsFile: "credentials.json",
		},
	}
}

// Load builds the configuration in three layers: built-in defaults, then the
// YAML config file when present, then environment variables (prefix ICE).
func Load() (*Config, error) {
	cfg := Default()

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("ICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func configFilePath() string {
	if p := os.Getenv("ICE_CONFIG_FILE"); p != "" {
		return p
	}
	return "config.yaml"
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Store.Medium {
	case MediumCSV, MediumXLSX:
		if c.Store.FilePath == "" {
			return fmt.Errorf("store file path is required for medium %q", c.Store.Medium)
		}
	case MediumSheets:
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("sheets spreadsheet ID is required for medium %q", c.Store.Medium)
		}
	default:
		return fmt.Errorf("unknown store medium: %q", c.Store.Medium)
	}

	if c.Store.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}

	return nil
}
