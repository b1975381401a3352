package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"pcadash/adapters/excel"
	"pcadash/internal/testkit"
)

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultFillingLineConfig()
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic filling-line run for demos",
		Long: `Generate a reproducible raw sensor table and matching PCA statistics.

Writes <out-dir>/raw/filling_line.csv and <out-dir>/pca_results.csv. Run "clean"
on the raw table and "limits" on the results to complete the dashboard inputs.

Example: preprocess generate --out-dir data --parts 1000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := testkit.NewFillingLineGenerator(config).Generate()
			if err != nil {
				return err
			}
			rawPath := filepath.Join(outDir, "raw", "filling_line.csv")
			resultsPath := filepath.Join(outDir, "pca_results.csv")
			if err := excel.WriteTable(rawPath, ds.Raw); err != nil {
				return err
			}
			if err := excel.WriteTable(resultsPath, ds.Results); err != nil {
				return err
			}

			slog.Default().Info("synthetic run written",
				slog.String("component", "generate"),
				slog.Int("parts", config.Parts),
				slog.Uint64("seed", config.Seed))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d parts to %s and %s\n", config.Parts, rawPath, resultsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "data", "directory for the generated files")
	cmd.Flags().IntVar(&config.Parts, "parts", config.Parts, "number of parts")
	cmd.Flags().IntVarP(&config.Components, "components", "k", config.Components, "principal components behind T2")
	cmd.Flags().Float64Var(&config.AnomalyRate, "anomaly-rate", config.AnomalyRate, "share of parts with a process shift")
	cmd.Flags().Float64Var(&config.MissingRate, "missing-rate", config.MissingRate, "share of raw sensor values left empty")
	cmd.Flags().Uint64Var(&config.Seed, "seed", config.Seed, "random seed")
	return cmd
}
