package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"QUILDECK_QUBITS", "QUILDECK_DEFINITIONS", "QUILDECK_SNAPSHOT", "QUILDECK_OUTPUT", "QUILDECK_TOLERANCE", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Qubits)
	assert.Equal(t, "gate.quil", cfg.OutputPath)
	assert.Equal(t, 1e-8, cfg.Tolerance)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "quildeck.log", cfg.LogFile)
	assert.Empty(t, cfg.DefinitionsPath)
	assert.Empty(t, cfg.SnapshotPath)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("QUILDECK_QUBITS", "5")
	t.Setenv("QUILDECK_DEFINITIONS", "gates/")
	t.Setenv("QUILDECK_SNAPSHOT", "gates.msgpack")
	t.Setenv("QUILDECK_TOLERANCE", "1e-6")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Qubits)
	assert.Equal(t, "gates/", cfg.DefinitionsPath)
	assert.Equal(t, "gates.msgpack", cfg.SnapshotPath)
	assert.Equal(t, 1e-6, cfg.Tolerance)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("QUILDECK_QUBITS", "many")
	t.Setenv("QUILDECK_TOLERANCE", "tiny")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Qubits)
	assert.Equal(t, 1e-8, cfg.Tolerance)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Qubits: 2, Tolerance: 1e-8, OutputPath: "out.quil"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no qubits", func(c *Config) { c.Qubits = 0 }, "QUILDECK_QUBITS"},
		{"too many qubits", func(c *Config) { c.Qubits = maxQubits + 1 }, "QUILDECK_QUBITS"},
		{"zero tolerance", func(c *Config) { c.Tolerance = 0 }, "QUILDECK_TOLERANCE"},
		{"no output", func(c *Config) { c.OutputPath = "" }, "QUILDECK_OUTPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
