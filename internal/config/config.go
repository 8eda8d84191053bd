// Package config loads the server configuration: defaults, then an optional
// TOML file, then environment overrides. Flags are applied by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/internal/observability"
)

// Server holds listener addresses.
type Server struct {
	GRPCAddr    string `toml:"grpc_addr"`
	MetricsAddr string `toml:"metrics_addr"`
}

// Log mirrors logging.Config.
type Log struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	AddSource  bool   `toml:"add_source"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Tracing mirrors observability.TracingConfig.
type Tracing struct {
	Enabled     bool    `toml:"enabled"`
	ServiceName string  `toml:"service_name"`
	Exporter    string  `toml:"exporter"`
	Endpoint    string  `toml:"endpoint"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// Satellite is one SGP4-propagated platform of the demo scenario.
type Satellite struct {
	Name  string `toml:"name"`
	Line1 string `toml:"tle_line1"`
	Line2 string `toml:"tle_line2"`
}

// Duration decodes Go duration strings such as "30s" or "2h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Scenario configures the clock and the records fed into the store.
type Scenario struct {
	Start       time.Time `toml:"start"`
	Tick        Duration  `toml:"tick"`
	Accelerated bool      `toml:"accelerated"`

	// RunFor is the scenario time to play; zero plays until shutdown.
	RunFor Duration `toml:"duration"`

	// FeedHorizon is how far past Start satellite updates are generated.
	FeedHorizon Duration    `toml:"feed_horizon"`
	FeedStep    Duration    `toml:"feed_step"`
	Satellites  []Satellite `toml:"satellites"`
}

// Config is the complete server configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
	Tracing  Tracing  `toml:"tracing"`
	Scenario Scenario `toml:"scenario"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			GRPCAddr:    ":50061",
			MetricsAddr: ":9091",
		},
		Log: Log{
			Level:     "info",
			Format:    "text",
			AddSource: true,
		},
		Tracing: Tracing{
			ServiceName: "simdata",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		Scenario: Scenario{
			Start:       time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			Tick:        Duration{time.Second},
			FeedHorizon: Duration{2 * time.Hour},
			FeedStep:    Duration{30 * time.Second},
		},
	}
}

// Parse decodes TOML data over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Load reads path (optional) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays SIMDATA_* and LOG_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SIMDATA_GRPC_ADDR", &c.Server.GRPCAddr)
	str("SIMDATA_METRICS_ADDR", &c.Server.MetricsAddr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("SIMDATA_TRACING_EXPORTER", &c.Tracing.Exporter)
	str("SIMDATA_TRACING_SERVICE_NAME", &c.Tracing.ServiceName)
	str("SIMDATA_OTLP_ENDPOINT", &c.Tracing.Endpoint)

	if v, ok := lookup("SIMDATA_TRACING_ENABLED"); ok && v != "" {
		c.Tracing.Enabled = strings.EqualFold(v, "true")
	}
	if v, ok := lookup("SIMDATA_TRACING_SAMPLE_RATIO"); ok && v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIMDATA_TRACING_SAMPLE_RATIO: %w", err)
		}
		c.Tracing.SampleRatio = ratio
	}
	if v, ok := lookup("SIMDATA_TICK"); ok && v != "" {
		tick, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIMDATA_TICK: %w", err)
		}
		c.Scenario.Tick = Duration{tick}
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.Scenario.Tick.Duration <= 0 {
		return fmt.Errorf("scenario.tick must be positive, got %s", c.Scenario.Tick)
	}
	if c.Scenario.FeedStep.Duration <= 0 {
		return fmt.Errorf("scenario.feed_step must be positive, got %s", c.Scenario.FeedStep)
	}
	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter)
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", r)
	}
	for i, s := range c.Scenario.Satellites {
		if s.Line1 == "" || s.Line2 == "" {
			return fmt.Errorf("scenario.satellites[%d] (%q): both TLE lines are required", i, s.Name)
		}
	}
	return nil
}

// Logging converts the [log] section.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		AddSource:  c.Log.AddSource,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// TracingConfig converts the [tracing] section.
func (c Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}
