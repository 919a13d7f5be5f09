package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	InitialPlates        []calculator.Plate
	InitialBars          []calculator.Bar
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	EnableMetrics        bool
	LogLevel             string
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxDenominations     int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string             `yaml:"port"`
	Plates               []calculator.Plate `yaml:"plates"`
	Bars                 []calculator.Bar   `yaml:"bars"`
	ShutdownGracePeriod  string             `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string             `yaml:"read_header_timeout"`
	WriteTimeout         string             `yaml:"write_timeout"`
	IdleTimeout          string             `yaml:"idle_timeout"`
	EnableRequestLogging *bool              `yaml:"enable_request_logging"`
	EnableMetrics        *bool              `yaml:"enable_metrics"`
	LogLevel             string             `yaml:"log_level"`
	MaxDenominations     int                `yaml:"max_denominations"`
	RateLimit            *yamlRateLimit     `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// envConfig lists the environment variables understood by the service.
// Negative numeric defaults mean "not set".
type envConfig struct {
	Port             string  `env:"PORT"`
	Plates           string  `env:"PLATES"`
	Bars             string  `env:"BARS"`
	LogLevel         string  `env:"LOG_LEVEL"`
	EnableMetrics    string  `env:"ENABLE_METRICS"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"-1"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"-1"`
	MaxDenominations int     `env:"MAX_DENOMINATIONS" envDefault:"-1"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile       string
	EnvFile          string
	Port             *string
	PlatesStr        *string
	BarsStr          *string
	LogLevel         *string
	RateLimitRPS     *float64
	RateLimitBurst   *int
	MaxDenominations *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables (.env file included) > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	envFile := ""
	if overrides != nil {
		envFile = overrides.EnvFile
	}
	if err := loadEnvFile(envFile); err != nil {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		InitialPlates:        storage.DefaultPlates(),
		InitialBars:          storage.DefaultBars(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		EnableMetrics:        true,
		LogLevel:             defaultLogLevel,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxDenominations:     calculator.DefaultMaxDenominations,
	}
}

// loadEnvFile reads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. An explicit path must exist; the
// implicit ".env" is optional.
func loadEnvFile(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if len(yamlCfg.Plates) > 0 {
		cfg.InitialPlates = yamlCfg.Plates
	}

	if len(yamlCfg.Bars) > 0 {
		cfg.InitialBars = yamlCfg.Bars
	}

	setDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	setDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	setDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	setDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.EnableMetrics != nil {
		cfg.EnableMetrics = *yamlCfg.EnableMetrics
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.MaxDenominations > 0 {
		cfg.MaxDenominations = yamlCfg.MaxDenominations
	}

	if yamlCfg.RateLimit != nil {
		if yamlCfg.RateLimit.RPS >= 0 {
			cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
		}
		if yamlCfg.RateLimit.Burst >= 0 {
			cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
		}
	}
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if port := strings.TrimSpace(envCfg.Port); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(envCfg.Plates); raw != "" {
		plates, err := parsePlates(raw)
		if err != nil {
			return fmt.Errorf("parse PLATES: %w", err)
		}
		cfg.InitialPlates = plates
	}

	if raw := strings.TrimSpace(envCfg.Bars); raw != "" {
		bars, err := parseBars(raw)
		if err != nil {
			return fmt.Errorf("parse BARS: %w", err)
		}
		cfg.InitialBars = bars
	}

	if level := strings.TrimSpace(envCfg.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	if raw := strings.TrimSpace(envCfg.EnableMetrics); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse ENABLE_METRICS: %w", err)
		}
		cfg.EnableMetrics = enabled
	}

	if envCfg.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = envCfg.RateLimitRPS
	}

	if envCfg.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = envCfg.RateLimitBurst
	}

	if envCfg.MaxDenominations > 0 {
		cfg.MaxDenominations = envCfg.MaxDenominations
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.PlatesStr != nil && *overrides.PlatesStr != "" {
		plates, err := parsePlates(*overrides.PlatesStr)
		if err != nil {
			return fmt.Errorf("parse plates: %w", err)
		}
		cfg.InitialPlates = plates
	}

	if overrides.BarsStr != nil && *overrides.BarsStr != "" {
		bars, err := parseBars(*overrides.BarsStr)
		if err != nil {
			return fmt.Errorf("parse bars: %w", err)
		}
		cfg.InitialBars = bars
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.MaxDenominations != nil && *overrides.MaxDenominations > 0 {
		cfg.MaxDenominations = *overrides.MaxDenominations
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if len(cfg.InitialPlates) == 0 {
		return fmt.Errorf("plates cannot be empty")
	}
	if len(cfg.InitialBars) == 0 {
		return fmt.Errorf("bars cannot be empty")
	}
	if cfg.MaxDenominations <= 0 {
		return fmt.Errorf("max denominations must be positive")
	}
	return nil
}

// parsePlates parses a comma-separated list of weight:count pairs, e.g.
// "2.5:2,5:2,45:4". A bare weight counts as a single plate.
func parsePlates(raw string) ([]calculator.Plate, error) {
	parts := strings.Split(raw, ",")
	plates := make([]calculator.Plate, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		weightStr, countStr, hasCount := strings.Cut(part, ":")
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q", weightStr)
		}
		if weight <= 0 {
			return nil, fmt.Errorf("plate weight must be positive, got %v", weight)
		}

		count := uint64(1)
		if hasCount {
			count, err = strconv.ParseUint(strings.TrimSpace(countStr), 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid count %q", countStr)
			}
		}
		plates = append(plates, calculator.Plate{Weight: weight, Count: uint16(count)})
	}
	if len(plates) == 0 {
		return nil, fmt.Errorf("no plates provided")
	}
	return plates, nil
}

// parseBars parses a comma-separated list of type:weight pairs, e.g.
// "barbell:45,dumbbell:15".
func parseBars(raw string) ([]calculator.Bar, error) {
	parts := strings.Split(raw, ",")
	bars := make([]calculator.Bar, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		barType, weightStr, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(barType) == "" {
			return nil, fmt.Errorf("invalid bar %q, expected type:weight", part)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q", weightStr)
		}
		if weight < 0 {
			return nil, fmt.Errorf("bar weight must be non-negative, got %v", weight)
		}
		bars = append(bars, calculator.Bar{Type: strings.TrimSpace(barType), Weight: weight})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars provided")
	}
	return bars, nil
}
