package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pcadash/adapters/excel"
	"pcadash/adapters/limitsfile"
	"pcadash/domain/limits"
	"pcadash/internal/errors"
)

func newLimitsCmd() *cobra.Command {
	params := limits.DefaultParams()
	var results, out string

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Derive T2 and Q control limits from in-control PCA results",
		Long: `Derive the Hotelling T2 limit from the F distribution and the Q (SPE) limit
from Box's chi-square approximation, then write them in the dashboard's limits
file format.

Example: preprocess limits --results data/reference_pca.csv --components 3 --alpha 0.01 --out data/limits.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := excel.LoadResults(results)
			if err != nil {
				return err
			}
			d, err := limits.Derive(table, params)
			if err != nil {
				return errors.WithCode(errors.CodeInvalidInput, err)
			}
			if err := limitsfile.Save(out, d.Limits); err != nil {
				return err
			}

			slog.Default().Info("limits written",
				slog.String("component", "limits"),
				slog.String("path", out),
				slog.Int("samples", d.Samples),
				slog.Float64("q_mean", d.QMean),
				slog.Float64("q_variance", d.QVariance))
			fmt.Fprintf(cmd.OutOrStdout(), "T2_limit=%.4f Q_limit=%.4f (n=%d, k=%d, alpha=%g) -> %s\n",
				d.Limits.T2Limit, d.Limits.QLimit, d.Samples, d.Components, d.Alpha, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&results, "results", "data/pca_results.csv", "in-control PCA results with T2 and Q columns")
	cmd.Flags().StringVar(&out, "out", "data/limits.json", "limits file to write")
	cmd.Flags().IntVarP(&params.Components, "components", "k", params.Components, "retained principal components")
	cmd.Flags().Float64Var(&params.Alpha, "alpha", params.Alpha, "false-alarm rate")
	return cmd
}
