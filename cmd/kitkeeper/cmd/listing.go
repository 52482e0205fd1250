package cmd

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/classify"
	"github.com/solatis/kitkeeper/internal/core/db"
	"github.com/solatis/kitkeeper/internal/kit"
	"github.com/solatis/kitkeeper/internal/listing"
	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/pad"
	"github.com/solatis/kitkeeper/internal/scan"
	"github.com/solatis/kitkeeper/internal/types"
	"github.com/spf13/cobra"
)

var listingCmd = &cobra.Command{
	Use:   "listing [samples-root]",
	Short: "Scan samples and export valid/rejected kit listings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListing,
}

func init() {
	rootCmd.AddCommand(listingCmd)
	listingCmd.Flags().String("mapping", "", "mapping grammar file")
	listingCmd.Flags().Int("min-total", 0, "minimum samples per kit")
	listingCmd.Flags().Bool("exclude-only-other", false, "reject kits with only uncategorized samples")
	listingCmd.Flags().Bool("exclude-mixed-other", false, "reject kits with any uncategorized sample")
	listingCmd.Flags().String("overflow-policy", "", "overflow policy (reject, truncate, trash, ignore)")
	listingCmd.Flags().String("trash-notes", "", "trash note range, e.g. 82-127")
	listingCmd.Flags().String("export-valid", "", "valid listing output path")
	listingCmd.Flags().String("export-rejected", "", "rejected listing output path")
}

func runListing(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.SamplesRoot = args[0]
	}
	if cmd.Flags().Changed("mapping") {
		cfg.MappingPath, _ = cmd.Flags().GetString("mapping")
	}
	if cmd.Flags().Changed("min-total") {
		cfg.MinTotal, _ = cmd.Flags().GetInt("min-total")
	}
	if cmd.Flags().Changed("exclude-only-other") {
		cfg.ExcludeOnlyOther, _ = cmd.Flags().GetBool("exclude-only-other")
	}
	if cmd.Flags().Changed("exclude-mixed-other") {
		cfg.ExcludeMixedOther, _ = cmd.Flags().GetBool("exclude-mixed-other")
	}
	if cmd.Flags().Changed("overflow-policy") {
		cfg.OverflowPolicy, _ = cmd.Flags().GetString("overflow-policy")
	}
	if cmd.Flags().Changed("trash-notes") {
		cfg.TrashNotes, _ = cmd.Flags().GetString("trash-notes")
	}
	if cmd.Flags().Changed("export-valid") {
		cfg.ValidListingPath, _ = cmd.Flags().GetString("export-valid")
	}
	if cmd.Flags().Changed("export-rejected") {
		cfg.RejectedListingPath, _ = cmd.Flags().GetString("export-rejected")
	}

	if cfg.SamplesRoot == "" {
		return fmt.Errorf("samples root required (argument or convert.samples_root)")
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

	paths, err := scan.Samples(cfg.SamplesRoot)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "samples", len(paths), "root", cfg.SamplesRoot)

	agg := kit.NewAggregator()
	for _, path := range paths {
		agg.Add(classify.Classify(path, table))
	}

	valid, rejected := kit.Partition(agg.Kits(), kit.ValidationConfig{
		MinTotal:          cfg.MinTotal,
		ExcludeOnlyOther:  cfg.ExcludeOnlyOther,
		ExcludeMixedOther: cfg.ExcludeMixedOther,
	})

	// Same allocation entry point phase 2 uses: a kit that cannot survive
	// the policy is rejected here, before it ever reaches a listing.
	feasible := valid[:0]
	for _, k := range valid {
		if _, err := pad.AllocateKit(k, table, policy, padCfg); err != nil {
			k.Validity = rejectionValidity(err)
			rejected = append(rejected, k)
			logger.Warn("kit rejected", "kit", k.Name, "reason", k.Validity.String(), "error", err)
			continue
		}
		feasible = append(feasible, k)
	}
	valid = feasible

	if err := listing.Write(cfg.ValidListingPath, listing.FromKits(valid)); err != nil {
		return err
	}
	if err := listing.Write(cfg.RejectedListingPath, listing.FromKits(rejected)); err != nil {
		return err
	}

	run := newRunRecord("listing", policy)
	run.KitsTotal = len(valid) + len(rejected)
	run.KitsOK = len(valid)
	run.KitsRejected = len(rejected)
	run.SamplesTotal = agg.TotalSamples()

	var rows [][]string
	var results []db.KitResult
	for _, k := range valid {
		rows = append(rows, []string{k.Name, fmt.Sprintf("%d", k.TotalCount()), db.StatusValid, ""})
		results = append(results, db.KitResult{
			KitName: k.Name, Status: db.StatusValid, Samples: k.TotalCount(),
		})
	}
	for _, k := range rejected {
		status := db.StatusRejected
		if k.Validity == types.KitRejectedOverflow || k.Validity == types.KitRejectedTrashRange ||
			k.Validity == types.KitRejectedPadRange {
			status = db.StatusOverflowRejected
		}
		rows = append(rows, []string{k.Name, fmt.Sprintf("%d", k.TotalCount()), status, k.Validity.String()})
		results = append(results, db.KitResult{
			KitName: k.Name, Status: status, Reason: k.Validity.String(), Samples: k.TotalCount(),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"KIT", "SAMPLES", "STATUS", "REASON"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(cmd.OutOrStdout(), "%d kits: %d valid, %d rejected (%d samples)\n",
		run.KitsTotal, run.KitsOK, run.KitsRejected, run.SamplesTotal)

	recordRun(logger, cfg, run, results)
	return nil
}
