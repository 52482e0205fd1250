// Package config provides configuration management for kitkeeper commands.
package config

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/types"
)

// Config holds the full conversion surface shared by both phases.
// Values, not flags: the CLI layers flag overrides on top.
type Config struct {
	SamplesRoot      string
	MappingPath      string
	OutputDir        string
	GlobalSampleBase string

	ValidListingPath    string
	RejectedListingPath string

	MinTotal          int
	ExcludeOnlyOther  bool
	ExcludeMixedOther bool

	OverflowPolicy string
	TrashNotes     string // MIDI note list spec, e.g. "82-127"

	PadBaseMidi int
	PadCount    int

	DatabaseURL string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		MappingPath:         "mapping.txt",
		OutputDir:           "./presets",
		ValidListingPath:    "listing-valid.json",
		RejectedListingPath: "listing-rejected.json",
		MinTotal:            0,
		OverflowPolicy:      string(types.OverflowReject),
		TrashNotes:          "82-127",
		PadBaseMidi:         36, // C2
		PadCount:            64,
	}
}

// Policy returns the validated overflow policy.
func (c *Config) Policy() (types.OverflowPolicy, error) {
	return types.ParseOverflowPolicy(c.OverflowPolicy)
}

// TrashNoteList parses the trash note range spec.
func (c *Config) TrashNoteList() ([]int, error) {
	return mapping.ParseNoteList(c.TrashNotes)
}

// validateConfig checks ranges and enumerations at load time so both phases
// fail fast on the same bad input instead of mid-run.
func validateConfig(cfg *Config) error {
	if cfg.MinTotal < 0 {
		return fmt.Errorf("min_total must not be negative, got %d", cfg.MinTotal)
	}
	if _, err := cfg.Policy(); err != nil {
		return fmt.Errorf("overflow_policy %q: %w", cfg.OverflowPolicy, err)
	}
	if cfg.PadBaseMidi < types.MinMidiNote || cfg.PadBaseMidi > types.MaxMidiNote {
		return fmt.Errorf("pad_base_midi must be a MIDI note, got %d", cfg.PadBaseMidi)
	}
	if cfg.PadCount <= 0 {
		return fmt.Errorf("pad_count must be positive, got %d", cfg.PadCount)
	}
	if cfg.PadBaseMidi+cfg.PadCount > types.MaxMidiNote+1 {
		return fmt.Errorf("pad range %d..%d exceeds MIDI note space",
			cfg.PadBaseMidi, cfg.PadBaseMidi+cfg.PadCount-1)
	}
	if cfg.TrashNotes != "" {
		if _, err := cfg.TrashNoteList(); err != nil {
			return fmt.Errorf("trash_notes %q: %w", cfg.TrashNotes, err)
		}
	}
	return nil
}
