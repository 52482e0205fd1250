package cmd

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/core/db"
	"github.com/solatis/kitkeeper/internal/types"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show run history (recent runs, or one run's kit dispositions)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "number of runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--db-url required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	if len(args) == 1 {
		runID, err := types.ParseRunID(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		results, err := db.RunResults(queries, runID)
		if err != nil {
			return err
		}
		var rows [][]string
		for _, r := range results {
			rows = append(rows, []string{r.KitName, fmt.Sprintf("%d", r.Samples), r.Status, r.Reason})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"KIT", "SAMPLES", "STATUS", "REASON"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
		))
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := db.RecentRuns(queries, limit)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, r := range runs {
		rows = append(rows, []string{
			r.RunID, r.StartedAt, r.Phase, r.Policy,
			fmt.Sprintf("%d", r.KitsTotal),
			fmt.Sprintf("%d", r.KitsOK),
			fmt.Sprintf("%d", r.KitsRejected),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"RUN", "STARTED", "PHASE", "POLICY", "KITS", "OK", "REJECTED"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	return nil
}
