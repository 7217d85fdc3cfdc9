package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file base name looked up in the config directory;
// any extension viper understands (yaml, json, toml) is accepted.
const FileName = "radar-sim"

// EnvPrefix namespaces environment overrides, e.g. RADAR_SIM_SPEED.
const EnvPrefix = "RADAR"

// ScenarioConfig locates the scenario file to run.
type ScenarioConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// SimConfig controls the tick cadence.
type SimConfig struct {
	Mode  string  `mapstructure:"mode"` // realtime | accelerated
	Speed float64 `mapstructure:"speed"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Backend    string `mapstructure:"backend"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// GRPCConfig configures the health endpoint. An empty Addr disables it.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"serviceName"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sampleRatio"`
}

// Config is the full radar-sim configuration.
type Config struct {
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Sim      SimConfig      `mapstructure:"sim"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scenario.dir", ".")
	v.SetDefault("scenario.file", "scenario.vsf")

	v.SetDefault("sim.mode", "realtime")
	v.SetDefault("sim.speed", 1.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.backend", "slog")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 64)
	v.SetDefault("log.maxBackups", 3)

	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("grpc.addr", ":50051")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.serviceName", "radar-sim")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sampleRatio", 1.0)
}

// New returns a viper instance with defaults and environment bindings but
// no config file.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads radar-sim.{yaml,json,toml} from dir when present and layers it
// over the defaults; environment variables win over both. A missing file is
// not an error.
func Load(dir string) (*Config, error) {
	v := New()
	if dir != "" {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the simulator cannot honour.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Sim.Mode) {
	case "realtime", "accelerated":
	default:
		return fmt.Errorf("invalid sim.mode %q (want realtime or accelerated)", c.Sim.Mode)
	}
	if c.Sim.Speed <= 0 {
		return fmt.Errorf("invalid sim.speed %v (must be positive)", c.Sim.Speed)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing.sampleRatio %v (must be within [0,1])", c.Tracing.SampleRatio)
	}
	return nil
}
