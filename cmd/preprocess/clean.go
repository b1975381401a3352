package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pcadash/adapters/excel"
	"pcadash/domain/tabular"
	"pcadash/internal/errors"
)

type cleanOptions struct {
	in        string
	out       string
	scale     []string
	scalerOut string
}

func newCleanCmd() *cobra.Command {
	opts := cleanOptions{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Standardise column names and fill missing values",
		Long: `Read a raw CSV or XLSX table, replace spaces and hyphens in column names with
underscores, forward-fill then back-fill missing values and write the result.

With --scale the named (cleaned) columns are standardised to zero mean and unit
variance; --scaler-out keeps the fitted parameters.

Example: preprocess clean --in data/raw/line_a.xlsx --out data/processed/cleaned_data.csv --scale Fill_Volume,Fill_Time`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "raw input table (.csv or .xlsx)")
	cmd.Flags().StringVar(&opts.out, "out", "data/processed/cleaned_data.csv", "cleaned output table (.csv or .xlsx)")
	cmd.Flags().StringSliceVar(&opts.scale, "scale", nil, "numeric columns to standardise")
	cmd.Flags().StringVar(&opts.scalerOut, "scaler-out", "", "write fitted scaler parameters as JSON")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runClean(cmd *cobra.Command, opts cleanOptions) error {
	logger := slog.Default().With(slog.String("component", "clean"))

	raw, err := excel.ReadTable(opts.in)
	if err != nil {
		return err
	}
	missingBefore := countMissing(raw)

	cleaned := tabular.HandleMissingValues(tabular.CleanColumnNames(raw))
	logger.Debug("cleaned table",
		slog.Int("rows", len(cleaned.Rows)),
		slog.Int("columns", len(cleaned.Columns)),
		slog.Int("missing_before", missingBefore),
		slog.Int("missing_after", countMissing(cleaned)))

	if len(opts.scale) > 0 {
		scaled, scaler, err := tabular.ScaleNumericFeatures(cleaned, opts.scale)
		if err != nil {
			return errors.WithCode(errors.CodeInvalidInput, err)
		}
		if cleaned, err = tabular.ReplaceColumns(cleaned, opts.scale, scaled); err != nil {
			return err
		}
		if opts.scalerOut != "" {
			if err := writeScaler(opts.scalerOut, scaler); err != nil {
				return err
			}
			logger.Info("scaler written", slog.String("path", opts.scalerOut))
		}
	}

	if err := excel.WriteTable(opts.out, cleaned); err != nil {
		return err
	}
	logger.Info("cleaned table written", slog.String("path", opts.out), slog.Int("rows", len(cleaned.Rows)))
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows x %d columns to %s\n", len(cleaned.Rows), len(cleaned.Columns), opts.out)
	return nil
}

func writeScaler(path string, scaler *tabular.StandardScaler) error {
	raw, err := scaler.MarshalIndent()
	if err != nil {
		return errors.Wrap(err, "failed to encode scaler")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func countMissing(t tabular.Table) int {
	total := 0
	for _, n := range t.MissingCount() {
		total += n
	}
	return total
}
