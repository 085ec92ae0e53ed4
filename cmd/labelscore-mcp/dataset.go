package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscore-mcp/internal/labeling"
)

func newRelabelCommand(g *globalFlags) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "relabel",
		Short: "Recompute suitability_score in a dataset with the label formula",
		Long: `Recompute the suitability_score column of a CSV dataset from its
num_liked_matches, num_disliked_matches and num_allergen_matches columns.

Rows with unparsable counts are reported on stderr and left unchanged.
Without --out the result goes to <name>_updated.csv next to the input.
Pass --out with the input path to rewrite it in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			if out == "" {
				out = updatedPath(in)
			}
			return runRelabel(cmd.OutOrStdout(), in, out, cfg.Weights, lg)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV dataset (required)")
	cmd.Flags().StringVar(&out, "out", "", "output CSV, or - for stdout (default: <in>_updated.csv)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// updatedPath names the default relabel output: data.csv -> data_updated.csv.
func updatedPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_updated" + ext
}

func readDatasetFile(path string) (*labeling.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return labeling.ReadDataset(f)
}

// writeDatasetFile writes through a temporary file so an interrupted run
// never truncates the dataset.
func writeDatasetFile(path string, d *labeling.Dataset) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := d.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func runRelabel(stdout io.Writer, in, out string, w labeling.Weights, lg *slog.Logger) error {
	start := time.Now()
	d, err := readDatasetFile(in)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	rowErrs := labeling.Relabel(d, w)
	for _, re := range rowErrs {
		lg.Warn("row skipped", "row", re.Row, "error", re.Err)
	}

	if out == "-" {
		err = d.Write(stdout)
	} else {
		err = writeDatasetFile(out, d)
	}
	if err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	lg.Info("dataset relabelled", "rows", d.Len(), "skipped", len(rowErrs), "out", out, "elapsed", since(start))
	if len(rowErrs) > 0 {
		return &rowErrors{count: len(rowErrs)}
	}
	return nil
}

func newEvaluateCommand(g *globalFlags) *cobra.Command {
	var in string
	var asJSON, clamped bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report RMSE, MAE and R² of the model on a labelled dataset",
		Long: `Score every labelled row of a CSV dataset with the configured model and
compare against its suitability_score column.

Metrics use the raw model output by default, as the model was trained;
--clamped evaluates the served 0-100 score instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, closeLog, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			p, err := loadPredictor(cfg, lg)
			if err != nil {
				return err
			}
			if p == nil {
				return errors.New("evaluate needs a model: set --model or model.path")
			}
			defer p.Close()

			d, err := readDatasetFile(in)
			if err != nil {
				return fmt.Errorf("read dataset: %w", err)
			}
			records, rowErrs := d.Records()
			for _, re := range rowErrs {
				lg.Warn("row skipped", "row", re.Row, "error", re.Err)
			}

			predict := labeling.PredictFunc(p.PredictRaw)
			if clamped {
				predict = p.Predict
			}
			m, err := labeling.Evaluate(records, predict)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(m); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "rows: %d\nrmse: %.4f\nmae:  %.4f\nr2:   %.4f\n", m.N, m.RMSE, m.MAE, m.R2)
			}
			if len(rowErrs) > 0 {
				return &rowErrors{count: len(rowErrs)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "labelled CSV dataset (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metrics as JSON")
	cmd.Flags().BoolVar(&clamped, "clamped", false, "evaluate the clamped, rounded score")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
