// Package config loads the editor configuration.
//
// Values are resolved with priority flags > env > file > defaults. Flags are applied by
// the command layer after Load returns.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/graphedit/input"
	"github.com/TFMV/graphedit/jobs"
	"github.com/TFMV/graphedit/models"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains all editor settings.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	Graph  GraphConfig  `yaml:"graph"`
	Input  InputConfig  `yaml:"input"`
	Jobs   JobsConfig   `yaml:"jobs"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// GraphConfig controls random graph generation.
type GraphConfig struct {
	NodeCount       int     `yaml:"node_count"`
	EdgeProbability float64 `yaml:"edge_probability"`
	WeightMin       int     `yaml:"weight_min"`
	WeightMax       int     `yaml:"weight_max"`
	Seed            int64   `yaml:"seed"`
	Layout          string  `yaml:"layout"`
}

// InputConfig holds hit-test radii in layout units.
type InputConfig struct {
	HitRadius     float64 `yaml:"hit_radius"`
	EdgeHitRadius float64 `yaml:"edge_hit_radius"`
	DragThreshold float64 `yaml:"drag_threshold"`
}

// JobsConfig holds the pacing of background analyses.
type JobsConfig struct {
	TraversalStep time.Duration `yaml:"traversal_step"`
	PathDelay     time.Duration `yaml:"path_delay"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			NodeCount:       10,
			EdgeProbability: 0.5,
			WeightMin:       1,
			WeightMax:       10,
			Seed:            42,
			Layout:          "force",
		},
		Input: InputConfig{
			HitRadius:     0.05,
			EdgeHitRadius: 0.025,
			DragThreshold: 0.05,
		},
		Jobs: JobsConfig{
			TraversalStep: time.Second,
			PathDelay:     500 * time.Millisecond,
		},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies GRAPHEDIT_* environment overrides and
// validates the result. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	loadEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("GRAPHEDIT_NODE_COUNT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Graph.NodeCount = i
		}
	}
	if v := os.Getenv("GRAPHEDIT_EDGE_PROBABILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Graph.EdgeProbability = f
		}
	}
	if v := os.Getenv("GRAPHEDIT_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Graph.Seed = i
		}
	}
	if v := os.Getenv("GRAPHEDIT_TRAVERSAL_STEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Jobs.TraversalStep = d
		}
	}
	if v := os.Getenv("GRAPHEDIT_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = i
		}
	}
	if v := os.Getenv("GRAPHEDIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GRAPHEDIT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Graph.NodeCount < 1 {
		return fmt.Errorf("%w: node_count must be >= 1", ErrInvalidConfig)
	}
	if c.Graph.EdgeProbability < 0 || c.Graph.EdgeProbability > 1 {
		return fmt.Errorf("%w: edge_probability must be between 0 and 1", ErrInvalidConfig)
	}
	if c.Graph.WeightMin < 1 || c.Graph.WeightMax < c.Graph.WeightMin {
		return fmt.Errorf("%w: weight range must satisfy 1 <= weight_min <= weight_max", ErrInvalidConfig)
	}
	if c.Input.HitRadius <= 0 || c.Input.EdgeHitRadius <= 0 {
		return fmt.Errorf("%w: hit radii must be > 0", ErrInvalidConfig)
	}
	if c.Input.DragThreshold < 0 {
		return fmt.Errorf("%w: drag_threshold must be >= 0", ErrInvalidConfig)
	}
	if c.Jobs.TraversalStep < 0 || c.Jobs.PathDelay < 0 {
		return fmt.Errorf("%w: job delays must be >= 0", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// WeightRange returns the configured edge weight range.
func (c GraphConfig) WeightRange() models.WeightRange {
	return models.WeightRange{Min: c.WeightMin, Max: c.WeightMax}
}

// ToInterpreterConfig converts InputConfig to input.Config.
func (c InputConfig) ToInterpreterConfig() input.Config {
	return input.Config{
		HitRadius:     c.HitRadius,
		EdgeHitRadius: c.EdgeHitRadius,
		DragThreshold: c.DragThreshold,
	}
}

// ToRunnerConfig converts JobsConfig to jobs.Config.
func (c JobsConfig) ToRunnerConfig() jobs.Config {
	return jobs.Config{
		TraversalStep: c.TraversalStep,
		PathDelay:     c.PathDelay,
	}
}

// NewLogger builds a slog.Logger writing to w. It does not install it as the default.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
