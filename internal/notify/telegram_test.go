package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ChainGuard/internal/analyze"
	"github.com/Alias1177/ChainGuard/models"
)

type fakeSender struct {
	failures int
	calls    int
	sent     []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: f.calls}, nil
}

func testOptions() Options {
	return Options{
		ChatID:          42,
		MinConfidence:   75,
		AlertsPerMinute: 60,
		MaxRetries:      2,
		RetryInterval:   time.Millisecond,
	}
}

func sampleResults() []models.AnomalyResult {
	label := 1
	return []models.AnomalyResult{
		{IsAnomaly: false},
		{IsAnomaly: true, Confidence: 90, AttackType: models.AttackDDoS, ClusterLabel: &label},
		{IsAnomaly: true, Confidence: 60, AttackType: models.AttackDoubleSpending, ClusterLabel: &label},
	}
}

func TestNotifySendsAlert(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testOptions())
	results := sampleResults()

	sent, err := n.Notify(context.Background(), "batch-1", analyze.Summarize(results), results)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "batch-1")
	assert.Contains(t, msg.Text, "Anomalies: 2 of 3")
	assert.Contains(t, msg.Text, "1. DDoS Attack, confidence 90.0 (HIGH)")
	assert.NotContains(t, msg.Text, "confidence 60.0", "below the confidence floor")
}

func TestNotifySkipsQuietBatches(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testOptions())
	results := []models.AnomalyResult{{IsAnomaly: true, Confidence: 50, AttackType: models.AttackUnknown}}

	sent, err := n.Notify(context.Background(), "batch", analyze.Summarize(results), results)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, sender.calls)
}

func TestNotifyRetriesFailedSends(t *testing.T) {
	sender := &fakeSender{failures: 2}
	n := NewNotifier(sender, testOptions())
	results := sampleResults()

	sent, err := n.Notify(context.Background(), "batch", analyze.Summarize(results), results)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 3, sender.calls)
}

func TestNotifyGivesUp(t *testing.T) {
	sender := &fakeSender{failures: 10}
	n := NewNotifier(sender, testOptions())
	results := sampleResults()

	sent, err := n.Notify(context.Background(), "batch", analyze.Summarize(results), results)
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, 3, sender.calls, "one attempt plus MaxRetries")
}

func TestNotifyRateLimit(t *testing.T) {
	sender := &fakeSender{}
	opts := testOptions()
	opts.AlertsPerMinute = 1
	n := NewNotifier(sender, opts)
	results := sampleResults()
	summary := analyze.Summarize(results)

	sent, err := n.Notify(context.Background(), "first", summary, results)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = n.Notify(context.Background(), "second", summary, results)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, sender.sent, 1)
}

func TestFormatAlertTruncates(t *testing.T) {
	flagged := make([]models.AnomalyResult, maxListed+3)
	for i := range flagged {
		flagged[i] = models.AnomalyResult{IsAnomaly: true, Confidence: 100, AttackType: models.Attack51Percent}
	}

	text := FormatAlert("b", analyze.Summarize(flagged), flagged)
	assert.Equal(t, maxListed, strings.Count(text, "51% Vulnerability, confidence"))
	assert.Contains(t, text, "and 3 more")
}

func TestSendText(t *testing.T) {
	sender := &fakeSender{failures: 1}
	n := NewNotifier(sender, testOptions())

	require.NoError(t, n.SendText(context.Background(), "digest"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "digest", sender.sent[0].Text)
}
