package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ChainGuard/internal/analyze"
	"github.com/Alias1177/ChainGuard/internal/database"
	"github.com/Alias1177/ChainGuard/internal/notify"
	"github.com/Alias1177/ChainGuard/models"
)

var (
	reportLimit int
	reportSend  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a digest of stored anomalies, optionally sending it to Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DBDriver == "" {
			return errors.New("DB_DRIVER must be set to read stored results")
		}

		ctx := cmd.Context()
		db, err := database.Open(ctx, cfg.DBDriver, cfg.DSN())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		counts, err := db.CountByAttack(ctx)
		if err != nil {
			return fmt.Errorf("counting anomalies: %w", err)
		}
		records, err := db.RecentAnomalies(ctx, reportLimit)
		if err != nil {
			return fmt.Errorf("loading recent anomalies: %w", err)
		}

		recent := make([]models.AnomalyResult, len(records))
		for i, rec := range records {
			recent[i] = rec.AnomalyResult
		}

		digest := analyze.FormatDigest(counts, recent)
		fmt.Fprint(cmd.OutOrStdout(), digest)

		if !reportSend {
			return nil
		}
		if cfg.TelegramBotToken == "" {
			return errors.New("TELEGRAM_BOT_TOKEN not set in environment")
		}

		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, notify.Options{ChatID: cfg.TelegramChatID})
		if err != nil {
			return err
		}
		if err := notifier.SendText(ctx, digest); err != nil {
			return fmt.Errorf("sending digest: %w", err)
		}
		log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("Digest sent")
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 10, "Number of recent anomalies to list")
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "Send the digest to TELEGRAM_CHAT_ID")
}
