package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/graphedit/models"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphedit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Graph.NodeCount)
	assert.Equal(t, 0.5, cfg.Graph.EdgeProbability)
	assert.Equal(t, models.WeightRange{Min: 1, Max: 10}, cfg.Graph.WeightRange())
	assert.Equal(t, 0.05, cfg.Input.HitRadius)
	assert.Equal(t, 0.05, cfg.Input.DragThreshold)
	assert.Less(t, cfg.Input.EdgeHitRadius, cfg.Input.HitRadius)
}

func TestLoad_EmptyOrMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
graph:
  node_count: 25
  edge_probability: 0.2
  layout: circle
jobs:
  traversal_step: 250ms
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Graph.NodeCount)
	assert.Equal(t, 0.2, cfg.Graph.EdgeProbability)
	assert.Equal(t, "circle", cfg.Graph.Layout)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.TraversalStep)
	assert.Equal(t, "json", cfg.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Graph.WeightMax)
	assert.Equal(t, 500*time.Millisecond, cfg.Jobs.PathDelay)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9000\n")
	t.Setenv("GRAPHEDIT_PORT", "9100")
	t.Setenv("GRAPHEDIT_NODE_COUNT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Graph.NodeCount)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeFile(t, "graph: [1, 2"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeFile(t, "graph:\n  edge_probability: 2\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nodes", func(c *Config) { c.Graph.NodeCount = 0 }},
		{"negative probability", func(c *Config) { c.Graph.EdgeProbability = -0.1 }},
		{"zero min weight", func(c *Config) { c.Graph.WeightMin = 0 }},
		{"inverted weights", func(c *Config) { c.Graph.WeightMin, c.Graph.WeightMax = 5, 2 }},
		{"zero hit radius", func(c *Config) { c.Input.HitRadius = 0 }},
		{"negative drag threshold", func(c *Config) { c.Input.DragThreshold = -1 }},
		{"negative step", func(c *Config) { c.Jobs.TraversalStep = -time.Second }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown level", func(c *Config) { c.Log.Level = "verbose" }},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	ic := cfg.Input.ToInterpreterConfig()
	assert.Equal(t, cfg.Input.HitRadius, ic.HitRadius)
	assert.Equal(t, cfg.Input.EdgeHitRadius, ic.EdgeHitRadius)

	rc := cfg.Jobs.ToRunnerConfig()
	assert.Equal(t, time.Second, rc.TraversalStep)
	assert.Equal(t, 500*time.Millisecond, rc.PathDelay)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf).Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	LogConfig{Level: "info", Format: "text"}.NewLogger(&buf).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
