package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aegismon/aegis/pkg/types"
	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/compute"
	"github.com/aegismon/aegis/server/internal/generator"
)

// Default values for the monitor configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultRefreshInterval = 60 * time.Second
	DefaultCacheTTL        = 60 * time.Second
	DefaultLogLevel        = "info"

	DefaultFarmSize       = 5000
	DefaultFarmSizeMin    = 1000
	DefaultFarmSizeMax    = 10000
	DefaultAlertThreshold = 90
	DefaultThresholdMin   = 80
	DefaultThresholdMax   = 95
)

// Config is the full configuration tree parsed from YAML.
type Config struct {
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
	Farm       FarmConfig        `yaml:"farm"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Baselines  compute.Baselines `yaml:"baselines"`
	Indicators compute.Limits    `yaml:"indicators"`
	Alerts     alerts.Config     `yaml:"alerts"`
}

// ServerConfig holds the HTTP listener and refresh cadence.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket hub and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// RefreshInterval is how often the WebSocket hub recomputes and pushes
	// the dashboard.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// CacheTTL is how long a generated series is reused before a refresh
	// regenerates it. 0 regenerates on every refresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel parses Level. Validate guarantees it parses.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// FarmConfig holds the operator controls.
type FarmConfig struct {
	// Size is the number of birds. Display only; it does not affect scoring.
	Size    int `yaml:"size"`
	SizeMin int `yaml:"size_min"`
	SizeMax int `yaml:"size_max"`

	// AlertThreshold is the health score (percent) below which the flock is Critical.
	AlertThreshold int `yaml:"alert_threshold"`
	ThresholdMin   int `yaml:"threshold_min"`
	ThresholdMax   int `yaml:"threshold_max"`
}

// GeneratorConfig is the synthetic series model plus an optional seed.
type GeneratorConfig struct {
	generator.Params `yaml:",inline"`

	// Seed makes the generated data reproducible when set. Unset seeds from
	// the wall clock at startup.
	Seed *int64 `yaml:"seed"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			RefreshInterval: DefaultRefreshInterval,
			CacheTTL:        DefaultCacheTTL,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Farm: FarmConfig{
			Size:           DefaultFarmSize,
			SizeMin:        DefaultFarmSizeMin,
			SizeMax:        DefaultFarmSizeMax,
			AlertThreshold: DefaultAlertThreshold,
			ThresholdMin:   DefaultThresholdMin,
			ThresholdMax:   DefaultThresholdMax,
		},
		Generator:  GeneratorConfig{Params: generator.DefaultParams()},
		Baselines:  compute.DefaultBaselines(),
		Indicators: compute.DefaultLimits(),
	}
}

// invalid wraps a validation message with types.ErrInvalidConfiguration.
func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), types.ErrInvalidConfiguration)
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return invalid("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.RefreshInterval <= 0 {
		return invalid("server.refresh_interval must be positive")
	}
	if cfg.Server.CacheTTL < 0 {
		return invalid("server.cache_ttl must not be negative")
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return invalid("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}

	f := cfg.Farm
	if f.SizeMin <= 0 || f.SizeMin > f.SizeMax {
		return invalid("farm.size bounds [%d, %d] are invalid", f.SizeMin, f.SizeMax)
	}
	if f.Size < f.SizeMin || f.Size > f.SizeMax {
		return invalid("farm.size %d is out of range [%d, %d]", f.Size, f.SizeMin, f.SizeMax)
	}
	if f.ThresholdMin < 0 || f.ThresholdMax > 100 {
		return invalid("farm threshold bounds [%d, %d] must lie within [0, 100]", f.ThresholdMin, f.ThresholdMax)
	}
	if err := alerts.ValidateThreshold(f.AlertThreshold, f.ThresholdMin, f.ThresholdMax); err != nil {
		return err
	}

	if err := cfg.Generator.Params.Validate(); err != nil {
		return err
	}
	if err := cfg.Baselines.Validate(); err != nil {
		return err
	}
	return cfg.Alerts.Validate()
}
