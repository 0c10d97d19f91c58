package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mmynk/weighttrack/internal/metrics"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move every legacy data file into the current layout",
	Long: `Migrate moves users.json, entries-<user>.json and settings-<user>.json from the
root of the data directory into the per-domain layout. Documents that already
exist in the store are left alone. The server also does this lazily on first access.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, shim, err := openStore(cfg, metrics.New(prometheus.NewRegistry()))
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureLayout(cmd.Context()); err != nil {
			return err
		}
		report, err := shim.MigrateAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, name := range report.Migrated {
			fmt.Fprintf(out, "migrated %s\n", name)
		}
		for _, name := range report.Skipped {
			fmt.Fprintf(out, "skipped %s (already migrated)\n", name)
		}
		fmt.Fprintf(out, "%d migrated, %d skipped\n", len(report.Migrated), len(report.Skipped))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
