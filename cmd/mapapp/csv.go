package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scholarmap/internal/locations"
)

const csvTimeout = 30 * time.Second

func newImportCmd(g *globals) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert locations from a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), csvTimeout)
			defer cancel()

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			repo := locations.NewRepo(e.db, e.cfg.Database.Table)
			n, err := locations.ImportCSV(ctx, repo, f)
			if err != nil {
				e.log.Error("import locations", zap.String("csv", path), zap.Error(err))
				return err
			}
			e.log.Info("imported locations", zap.Int("rows", n), zap.String("csv", path))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d locations from %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "csv", "data/locations.csv", "input CSV path")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the locations table to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), csvTimeout)
			defer cancel()

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()

			repo := locations.NewRepo(e.db, e.cfg.Database.Table)
			n, err := locations.ExportCSV(ctx, repo, f)
			if err != nil {
				e.log.Error("export locations", zap.String("csv", path), zap.Error(err))
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", path, err)
			}
			e.log.Info("exported locations", zap.Int("rows", n), zap.String("csv", path))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d locations to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "csv", "data/locations.csv", "output CSV path")
	return cmd
}
