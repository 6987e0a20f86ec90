package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Alias1177/ChainGuard/internal/analyze"
	"github.com/Alias1177/ChainGuard/models"
)

var detectInput string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Score a JSON array of feature vectors against generated reference data",
	Long: `Trains on generated normal reference data, scores the vectors in --input
("-" reads stdin) and prints JSON results to stdout. A summary goes to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := readFeatures(cmd, detectInput)
		if err != nil {
			return err
		}

		engine := newEngine(cfg)
		if err := engine.TrainModel(newGenerator(cfg).NormalBatch(cfg.ReferenceSize)); err != nil {
			return err
		}

		results, err := engine.DetectAnomalies(batch)
		if err != nil {
			return err
		}

		stderr := cmd.ErrOrStderr()
		fmt.Fprint(stderr, analyze.FormatSummary(analyze.Summarize(results)))
		for _, r := range analyze.TopAnomalies(results, 0) {
			fmt.Fprintln(stderr, analyze.FormatAnomaly(r))
		}
		fmt.Fprint(stderr, analyze.FormatComparison(analyze.CompareFeatures(results)))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectInput, "input", "", "JSON file with an array of feature vectors")
	_ = detectCmd.MarkFlagRequired("input")
}

func readFeatures(cmd *cobra.Command, path string) ([]models.FeatureVector, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var batch []models.FeatureVector
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("parsing input: %w", err)
	}
	return batch, nil
}
