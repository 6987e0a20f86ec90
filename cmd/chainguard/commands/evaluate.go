package commands

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ChainGuard/internal/evaluate"
)

var (
	evalRounds int
	evalJSON   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Measure detection quality on labeled synthetic batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		rounds := cfg.EvalRounds
		if cmd.Flags().Changed("rounds") {
			rounds = evalRounds
		}

		log.Info().Int("rounds", rounds).Int("batch_size", cfg.BatchSize).Msg("Running evaluation...")
		results, err := evaluate.Run(cmd.Context(), newGenerator(cfg), newEngine(cfg), evaluate.Options{
			Rounds:        rounds,
			BatchSize:     cfg.BatchSize,
			ReferenceSize: cfg.ReferenceSize,
		})
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}

		if evalJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		fmt.Fprint(cmd.OutOrStdout(), evaluate.FormatResults(results))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().IntVar(&evalRounds, "rounds", 10, "Number of labeled batches (overrides EVAL_ROUNDS)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Print results as JSON")
}
