package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := newLogger(cfg.LogLevel, logFile)
	log.Info().Int("qubits", cfg.Qubits).Str("definitions", cfg.DefinitionsPath).Msg("Starting quildeck")

	reg, err := loadRegistry(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load definitions")
		fmt.Fprintf(os.Stderr, "definitions: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(cfg, reg, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("Program exited with error")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
