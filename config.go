package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const maxQubits = 8

// Config holds workbench configuration.
type Config struct {
	Qubits          int
	DefinitionsPath string
	SnapshotPath    string
	OutputPath      string
	Tolerance       float64
	LogLevel        string
	LogFile         string
}

// LoadConfig reads configuration from the environment and an optional .env file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Qubits:          getEnvAsInt("QUILDECK_QUBITS", 3),
		DefinitionsPath: getEnv("QUILDECK_DEFINITIONS", ""),
		SnapshotPath:    getEnv("QUILDECK_SNAPSHOT", ""),
		OutputPath:      getEnv("QUILDECK_OUTPUT", "gate.quil"),
		Tolerance:       getEnvAsFloat("QUILDECK_TOLERANCE", 1e-8),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", "quildeck.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges of the numeric settings.
func (c *Config) Validate() error {
	if c.Qubits < 1 || c.Qubits > maxQubits {
		return fmt.Errorf("QUILDECK_QUBITS must be between 1 and %d, got %d", maxQubits, c.Qubits)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("QUILDECK_TOLERANCE must be in (0, 1), got %g", c.Tolerance)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("QUILDECK_OUTPUT is required")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
