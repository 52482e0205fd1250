package cmd

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/core/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run-history store migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("status", false, "show migration status instead of applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
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

	if status, _ := cmd.Flags().GetBool("status"); status {
		statuses, err := db.MigrateStatus(database)
		if err != nil {
			return err
		}
		var rows [][]string
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			rows = append(rows, []string{s.ID, state, s.Checksum[:12]})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"MIGRATION", "STATE", "CHECKSUM"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft},
		))
		return nil
	}

	if err := db.MigrateUp(database); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
