package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"quildeck/catalog"
	"quildeck/quil"
)

// loadRegistry builds the definition registry from the snapshot and the
// HCL definitions named in cfg. HCL definitions replace snapshot entries
// of the same name.
func loadRegistry(cfg *Config, log zerolog.Logger) (*quil.Registry, error) {
	reg := quil.NewRegistry()

	if cfg.SnapshotPath != "" {
		defs, err := catalog.ReadSnapshotFile(cfg.SnapshotPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Debug().Str("path", cfg.SnapshotPath).Msg("No snapshot yet")
		case err != nil:
			return nil, err
		default:
			if err := catalog.LoadInto(reg, defs); err != nil {
				return nil, err
			}
			log.Info().Str("path", cfg.SnapshotPath).Int("definitions", len(defs)).Msg("Loaded snapshot")
		}
	}

	if cfg.DefinitionsPath != "" {
		defs, err := catalog.LoadPath(cfg.DefinitionsPath, log)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if err := reg.Replace(def); err != nil {
				return nil, err
			}
		}
	}

	return reg, nil
}

// saveWorkspace writes text to path and, when snapshotPath is set, the
// registry definitions as a snapshot.
func saveWorkspace(path, text, snapshotPath string, reg *quil.Registry) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if snapshotPath == "" {
		return nil
	}
	return catalog.WriteSnapshotFile(snapshotPath, reg.Definitions())
}
