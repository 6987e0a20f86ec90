package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ChainGuard/internal/config"
	"github.com/Alias1177/ChainGuard/internal/detection"
	"github.com/Alias1177/ChainGuard/internal/generator"
)

var (
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chainguard",
	Short: "Blockchain network anomaly detection",
	Long: `ChainGuard scores blockchain network metrics against a trained baseline,
flags outliers and classifies them as DDoS, double spending or 51% attacks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		setupLogging(cfg.LogLevel)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(reportCmd)
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)
}

func newEngine(c *config.Config) *detection.Engine {
	return detection.NewEngine(detection.Options{
		Percentile:    c.ThresholdPercentile,
		MaxIterations: c.ClusterMaxIterations,
		Seed:          c.ClusterSeed,
		Normalization: detection.NormalizationMode(c.NormalizationMode),
	})
}

func newGenerator(c *config.Config) *generator.Generator {
	return generator.New(c.GeneratorSeed, c.AnomalyRate)
}
