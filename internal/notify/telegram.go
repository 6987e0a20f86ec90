package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/ChainGuard/internal/analyze"
	"github.com/Alias1177/ChainGuard/models"
)

// maxListed caps the anomalies listed in a single alert
const maxListed = 5

// Sender is the part of *tgbotapi.BotAPI the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Options holds alert settings
type Options struct {
	ChatID          int64
	MinConfidence   float64
	AlertsPerMinute int
	MaxRetries      int
	RetryInterval   time.Duration
}

// Notifier sends anomaly alerts to a Telegram chat
type Notifier struct {
	sender        Sender
	chatID        int64
	minConfidence float64
	limiter       *rate.Limiter
	maxRetries    int
	retryInterval time.Duration
	logger        zerolog.Logger
}

// NewTelegramNotifier authorizes the bot and returns a notifier for it
func NewTelegramNotifier(token string, opts Options) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing Telegram bot: %w", err)
	}
	n := NewNotifier(bot, opts)
	n.logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return n, nil
}

// NewNotifier creates a notifier on top of any Sender
func NewNotifier(sender Sender, opts Options) *Notifier {
	if opts.AlertsPerMinute <= 0 {
		opts.AlertsPerMinute = 20
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}

	return &Notifier{
		sender:        sender,
		chatID:        opts.ChatID,
		minConfidence: opts.MinConfidence,
		limiter:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.AlertsPerMinute)), opts.AlertsPerMinute),
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		logger:        log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Notify sends one alert for the batch if any anomaly reaches the confidence floor.
// It reports whether an alert was sent. Alerts over the rate limit are dropped.
func (n *Notifier) Notify(ctx context.Context, batchID string, summary models.BatchSummary, results []models.AnomalyResult) (bool, error) {
	flagged := analyze.TopAnomalies(results, n.minConfidence)
	if len(flagged) == 0 {
		return false, nil
	}

	if !n.limiter.Allow() {
		n.logger.Warn().Str("batch_id", batchID).Int("anomalies", len(flagged)).Msg("Alert rate limit reached, dropping alert")
		return false, nil
	}

	if err := n.SendText(ctx, FormatAlert(batchID, summary, flagged)); err != nil {
		return false, fmt.Errorf("sending alert: %w", err)
	}

	n.logger.Info().Str("batch_id", batchID).Int("anomalies", len(flagged)).Msg("Alert sent")
	return true, nil
}

// SendText delivers a plain text message to the configured chat, retrying with backoff
func (n *Notifier) SendText(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)

	operation := func() error {
		_, err := n.sender.Send(msg)
		if err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send message, retrying")
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = n.retryInterval
	strategy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(n.maxRetries)), ctx)

	return backoff.Retry(operation, strategy)
}

// FormatAlert renders the alert text for the flagged anomalies
func FormatAlert(batchID string, summary models.BatchSummary, flagged []models.AnomalyResult) string {
	var b strings.Builder

	b.WriteString("🚨 Blockchain anomaly alert\n\n")
	fmt.Fprintf(&b, "Batch: %s\n", batchID)
	fmt.Fprintf(&b, "Anomalies: %d of %d (%.1f%%)\n", summary.Anomalies, summary.Processed, summary.DetectionRate)

	for _, attack := range models.AttackTypes {
		if count := summary.ByAttack[attack]; count > 0 {
			fmt.Fprintf(&b, "• %s: %d\n", attack, count)
		}
	}

	b.WriteString("\nTop findings:\n")
	for i, r := range flagged {
		if i == maxListed {
			fmt.Fprintf(&b, "… and %d more\n", len(flagged)-maxListed)
			break
		}
		fmt.Fprintf(&b, "%d. %s, confidence %.1f (%s)\n", i+1, r.AttackType, r.Confidence, r.Risk())
	}

	return b.String()
}
