package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solatis/kitkeeper/internal/core/config"
	"github.com/solatis/kitkeeper/internal/core/db"
	"github.com/solatis/kitkeeper/internal/pad"
	"github.com/solatis/kitkeeper/internal/types"
)

// loadConfig resolves the layered configuration for a command invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	return cfg, nil
}

// padConfig builds the allocator bounds from configuration.
func padConfig(cfg *config.Config) (pad.Config, error) {
	trash, err := cfg.TrashNoteList()
	if err != nil {
		return pad.Config{}, fmt.Errorf("trash notes: %w", err)
	}
	return pad.Config{
		TrashNotes:  trash,
		PadBaseMidi: cfg.PadBaseMidi,
		PadCount:    cfg.PadCount,
	}, nil
}

// rejectionValidity maps an allocation error to the kit validity it implies.
func rejectionValidity(err error) types.KitValidity {
	switch {
	case errors.Is(err, types.ErrTrashRangeExhausted):
		return types.KitRejectedTrashRange
	case errors.Is(err, types.ErrInvalidPadRange):
		return types.KitRejectedPadRange
	}
	return types.KitRejectedOverflow
}

// recordRun persists run history when a database is configured.
// A missing database is not an error: history is an operator convenience,
// never a requirement for conversion.
func recordRun(logger *slog.Logger, cfg *config.Config, run db.RunRecord, results []db.KitResult) {
	if cfg.DatabaseURL == "" {
		return
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		return
	}
	if err := db.RecordRun(queries, run, results); err != nil {
		logger.Warn("failed to record run", "run_id", run.RunID, "error", err)
		return
	}
	logger.Debug("run recorded", "run_id", run.RunID)
}

// newRunRecord seeds the aggregate row for the current invocation.
func newRunRecord(phase string, policy types.OverflowPolicy) db.RunRecord {
	return db.RunRecord{
		RunID:     string(types.NewRunID()),
		Phase:     phase,
		Policy:    string(policy),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// noteName renders a MIDI note like "C2 (36)" for operator-facing output.
// Octave numbering follows TAL Drum's convention where note 36 is C2.
func noteName(n int) string {
	letters := [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
	return fmt.Sprintf("%s%d (%d)", letters[n%12], n/12-1, n)
}
