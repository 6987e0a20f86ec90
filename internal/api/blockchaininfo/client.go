package blockchaininfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ChainGuard/internal/platform/http"
	"github.com/Alias1177/ChainGuard/models"
)

// DefaultBaseURL is the public blockchain.com charts API
const DefaultBaseURL = "https://api.blockchain.info"

// ErrNoData is returned when the charts share no common day
var ErrNoData = errors.New("no aligned chart data")

// chartNames maps each FeatureVector component, in Values() order, to its chart
var chartNames = [models.FeatureCount]string{
	"blocks-size",
	"hash-rate",
	"difficulty",
	"estimated-transaction-volume-usd",
	"median-confirmation-time",
	"avg-block-size",
	"n-transactions",
}

// chartScales converts each chart from its published unit into the units the
// classifier thresholds are set in. The factors map a typical day of the
// charts onto the middle of the normal traffic range.
var chartScales = [models.FeatureCount]float64{
	4e-4,     // blocks-size: MB of chain -> 200..300
	140,      // hash-rate: TH/s -> 8e10..1.2e11
	1.0 / 60, // difficulty -> 1.5e12..2.5e12
	0.6,      // estimated-transaction-volume-usd -> 5e9..7e9
	1,        // median-confirmation-time: minutes
	0.7,      // avg-block-size: MB -> 1.0..1.3
	0.65,     // n-transactions -> 2.5e5..3.5e5
}

// Point is one sample of a chart series
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// ChartResponse represents the API response for one chart
type ChartResponse struct {
	Status string  `json:"status"`
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Period string  `json:"period"`
	Values []Point `json:"values"`
}

// Client is the blockchain.com charts API client
type Client struct {
	baseURL    string
	timespan   string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new charts client
type ClientOptions struct {
	BaseURL         string
	Timespan        string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new charts API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Timespan == "" {
		options.Timespan = "1year"
	}

	return &Client{
		baseURL:    options.BaseURL,
		timespan:   options.Timespan,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "blockchaininfo_client").Logger(),
	}
}

// GetChart fetches one chart series
func (c *Client) GetChart(ctx context.Context, name string) ([]Point, error) {
	endpoint := fmt.Sprintf("%s/charts/%s?timespan=%s&format=json",
		c.baseURL, url.PathEscape(name), url.QueryEscape(c.timespan))

	c.logger.Debug().Str("url", endpoint).Msg("Fetching chart")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var chart ChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		c.logger.Error().Err(err).Str("chart", name).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if chart.Status != "" && chart.Status != "ok" {
		return nil, fmt.Errorf("chart %s returned status %q", name, chart.Status)
	}

	c.logger.Debug().Str("chart", name).Int("count", len(chart.Values)).Msg("Fetched chart")
	return chart.Values, nil
}

// GetFeatures fetches every chart and joins them by day, oldest first
func (c *Client) GetFeatures(ctx context.Context) ([]models.FeatureVector, error) {
	byDay := make(map[int64]*[models.FeatureCount]float64)
	seen := make(map[int64]int)

	for i, name := range chartNames {
		points, err := c.GetChart(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", name, err)
		}
		for _, p := range points {
			day := p.X / 86400
			row, ok := byDay[day]
			if !ok {
				row = new([models.FeatureCount]float64)
				byDay[day] = row
			}
			row[i] = p.Y * chartScales[i]
			// count each chart once per day
			if seen[day] == i {
				seen[day] = i + 1
			}
		}
	}

	days := make([]int64, 0, len(byDay))
	for day, n := range seen {
		if n == models.FeatureCount {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	features := make([]models.FeatureVector, 0, len(days))
	for _, day := range days {
		f, err := models.FeatureVectorFromValues(byDay[day][:])
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}

	c.logger.Debug().Int("count", len(features)).Msg("Joined chart features")
	return features, nil
}

// ReferenceBatch implements models.FeatureSource with the oldest n days
func (c *Client) ReferenceBatch(ctx context.Context, n int) ([]models.FeatureVector, error) {
	features, err := c.GetFeatures(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(features) {
		features = features[:n]
	}
	return features, nil
}

// LiveBatch implements models.FeatureSource with the latest n days
func (c *Client) LiveBatch(ctx context.Context, n int) ([]models.FeatureVector, error) {
	features, err := c.GetFeatures(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(features) {
		features = features[len(features)-n:]
	}
	return features, nil
}
