package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/listlens/listlens/internal/eval"
	"github.com/listlens/listlens/internal/eval/dataset"
	"github.com/listlens/listlens/internal/eval/metrics"
	"github.com/listlens/listlens/internal/eval/results"
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var (
		datasetPath string
		sampleSize  int
		withReview  bool
		batchSize   int
		outputDir   string
		jsonPath    string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure categorization accuracy against labeled items",
		Long: `Scores the keyword classifier against a dataset of hand-labeled items and,
with --review, the configured model's review pass on top of it.

Datasets are JSONL or Parquet files whose rows have "name" and "category"
columns. Results are printed and saved as YAML under --output.`,
		Example: `  listlens eval --dataset testdata/items.jsonl
  listlens eval --dataset items.parquet --review --sample 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.NewLoader(datasetPath).LoadSample(sampleSize)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no labeled records in %s", datasetPath)
			}
			slog.Info("Loaded dataset", "path", datasetPath, "records", len(records))

			runOpts := eval.Options{BatchSize: batchSize}
			var provider, model string
			if withReview {
				cfg, err := opts.load()
				if err != nil {
					return err
				}
				a, err := openApp(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer a.Close()
				service, err := a.analysis()
				if err != nil {
					return err
				}
				runOpts.Reviewer = service
				provider, model = service.Provider(), service.Model()
			}

			start := time.Now()
			res, err := eval.Run(cmd.Context(), records, runOpts)
			if err != nil {
				return err
			}
			agg := metrics.AggregateEvaluationResults(res, provider, model)
			agg.Duration = time.Since(start)
			agg.PrintSummary(cmd.OutOrStdout())

			path, err := results.SaveToYAML(outputDir, datasetPath, agg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nEvaluation results saved to: %s\n", path)

			if jsonPath != "" {
				if err := agg.SaveToJSON(jsonPath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Labeled dataset (.jsonl or .parquet)")
	cmd.Flags().IntVar(&sampleSize, "sample", 0, "Only score the first N records (0 = all)")
	cmd.Flags().BoolVar(&withReview, "review", false, "Run the model review pass on top of the classifier")
	cmd.Flags().IntVar(&batchSize, "batch-size", eval.DefaultBatchSize, "Items per review request")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for YAML results")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Also write aggregate results as JSON to this path")
	_ = cmd.MarkFlagRequired("dataset")

	cmd.AddCommand(newEvalConvertCmd())

	return cmd
}

func newEvalConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <dataset> <out.parquet>",
		Short:   "Rewrite a labeled dataset as Parquet",
		Example: `  listlens eval convert testdata/items.jsonl items.parquet`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := convertDataset(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", n, args[1])
			return nil
		},
	}
}

// convertDataset loads every valid record of in and writes them to out as
// Parquet.
func convertDataset(in, out string) (int, error) {
	if !strings.EqualFold(filepath.Ext(out), ".parquet") {
		return 0, fmt.Errorf("output %s must have a .parquet extension", out)
	}
	records, err := dataset.NewLoader(in).Load()
	if err != nil {
		return 0, err
	}
	if err := dataset.WriteParquet(out, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
