package cmd

import (
	"fmt"
	"os"

	"github.com/solatis/kitkeeper/internal/core/db"
	"github.com/solatis/kitkeeper/internal/listing"
	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/pad"
	"github.com/solatis/kitkeeper/internal/preset"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [listing.json]",
	Short: "Generate TAL Drum presets from a listing artifact",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("mapping", "", "mapping grammar file")
	generateCmd.Flags().String("output-dir", "", "preset output directory")
	generateCmd.Flags().String("global-sample-base", "", "sample library root for relative references")
	generateCmd.Flags().String("overflow-policy", "", "overflow policy (reject, truncate, trash, ignore)")
	generateCmd.Flags().String("trash-notes", "", "trash note range, e.g. 82-127")
	generateCmd.Flags().Int("pad-base-midi", 0, "lowest pad MIDI note")
	generateCmd.Flags().Int("pad-count", 0, "addressable pad count")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	listingPath := cfg.ValidListingPath
	if len(args) == 1 {
		listingPath = args[0]
	}
	if cmd.Flags().Changed("mapping") {
		cfg.MappingPath, _ = cmd.Flags().GetString("mapping")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("global-sample-base") {
		cfg.GlobalSampleBase, _ = cmd.Flags().GetString("global-sample-base")
	}
	if cmd.Flags().Changed("overflow-policy") {
		cfg.OverflowPolicy, _ = cmd.Flags().GetString("overflow-policy")
	}
	if cmd.Flags().Changed("trash-notes") {
		cfg.TrashNotes, _ = cmd.Flags().GetString("trash-notes")
	}
	if cmd.Flags().Changed("pad-base-midi") {
		cfg.PadBaseMidi, _ = cmd.Flags().GetInt("pad-base-midi")
	}
	if cmd.Flags().Changed("pad-count") {
		cfg.PadCount, _ = cmd.Flags().GetInt("pad-count")
	}

	if cfg.GlobalSampleBase == "" {
		return fmt.Errorf("global sample base required (--global-sample-base or convert.global_sample_base)")
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	padCfg, err := padConfig(cfg)
	if err != nil {
		return err
	}

	table, err := mapping.ParseFile(cfg.MappingPath)
	if err != nil {
		return err
	}
	l, err := listing.Load(listingPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	presetCfg := preset.Config{
		OutputDir:        cfg.OutputDir,
		GlobalSampleBase: cfg.GlobalSampleBase,
		PadBaseMidi:      cfg.PadBaseMidi,
		PadCount:         cfg.PadCount,
	}

	run := newRunRecord("generate", policy)
	run.SamplesTotal = l.TotalSamples()

	var rows [][]string
	var results []db.KitResult

	// Per-kit failures are isolated: one kit's rejection never aborts the
	// rest of the run.
	for _, k := range l.ToKits() {
		run.KitsTotal++
		total := k.TotalCount()

		result, err := pad.AllocateKit(k, table, policy, padCfg)
		if err != nil {
			validity := rejectionValidity(err)
			logger.Warn("kit skipped", "kit", k.Name, "reason", validity.String(), "error", err)
			run.KitsRejected++
			rows = append(rows, []string{k.Name, fmt.Sprintf("%d", total), db.StatusOverflowRejected, validity.String()})
			results = append(results, db.KitResult{
				KitName: k.Name, Status: db.StatusOverflowRejected, Reason: validity.String(), Samples: total,
			})
			continue
		}

		doc, path, err := preset.Build(k.Name, result.Assignments, presetCfg)
		if err != nil {
			logger.Warn("kit skipped", "kit", k.Name, "error", err)
			run.KitsRejected++
			rows = append(rows, []string{k.Name, fmt.Sprintf("%d", total), db.StatusRejected, err.Error()})
			results = append(results, db.KitResult{
				KitName: k.Name, Status: db.StatusRejected, Reason: err.Error(), Samples: total,
			})
			continue
		}
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("write preset %s: %w", path, err)
		}

		for _, d := range result.Dispositions {
			if d.Note >= 0 {
				logger.Debug("sample rerouted", "kit", k.Name, "sample", d.Sample.Path,
					"disposition", d.Kind.String(), "pad", noteName(d.Note))
			} else {
				logger.Debug("sample dropped", "kit", k.Name, "sample", d.Sample.Path,
					"disposition", d.Kind.String())
			}
		}

		run.KitsOK++
		rows = append(rows, []string{k.Name, fmt.Sprintf("%d", total), db.StatusGenerated, ""})
		results = append(results, db.KitResult{
			KitName: k.Name, Status: db.StatusGenerated, Samples: total,
		})
		logger.Info("preset written", "kit", k.Name, "pads", len(result.Assignments), "path", path)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"KIT", "SAMPLES", "STATUS", "REASON"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(cmd.OutOrStdout(), "%d kits: %d generated, %d skipped\n",
		run.KitsTotal, run.KitsOK, run.KitsRejected)

	recordRun(logger, cfg, run, results)
	return nil
}
