package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ib-77/ringrail/pkg/rail/ring"
)

// EnvPrefix prefixes every environment override, e.g. RINGRAIL_LOG_LEVEL.
const EnvPrefix = "RINGRAIL"

// Config holds the CLI configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEV"`
}

// PipelineConfig holds defaults for the stages the CLI builds.
type PipelineConfig struct {
	MinCapacity      int           `yaml:"min_capacity" envconfig:"MIN_CAPACITY"`
	Handlers         int           `yaml:"handlers" envconfig:"HANDLERS"`
	Discipline       string        `yaml:"discipline" envconfig:"DISCIPLINE"`
	ProgressInterval time.Duration `yaml:"progress_interval" envconfig:"PROGRESS_INTERVAL"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Pipeline: PipelineConfig{
			MinCapacity:      ring.DefaultMinCapacity,
			Handlers:         1,
			Discipline:       ring.ExclusiveClaim.String(),
			ProgressInterval: 5 * time.Second,
		},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Pipeline.Handlers < 1 {
		return fmt.Errorf("pipeline.handlers must be at least 1, got %d", c.Pipeline.Handlers)
	}
	if c.Pipeline.MinCapacity < 0 {
		return fmt.Errorf("pipeline.min_capacity must not be negative, got %d", c.Pipeline.MinCapacity)
	}
	if _, err := ring.ParseDiscipline(c.Pipeline.Discipline); err != nil {
		return fmt.Errorf("pipeline.discipline: %w", err)
	}
	return nil
}

// Discipline returns the parsed dispatch discipline. Validate has checked it.
func (c *Config) Discipline() ring.Discipline {
	d, _ := ring.ParseDiscipline(c.Pipeline.Discipline)
	return d
}
