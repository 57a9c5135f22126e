package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/barstream/ohlcv-aggregation-service/internal/domain"
	"github.com/barstream/ohlcv-aggregation-service/internal/ports"
	"github.com/barstream/ohlcv-aggregation-service/pkg/retry"
)

const (
	defaultBaseURL = "https://data.alpaca.markets"
	defaultFeed    = "iex"
	barsPathFmt    = "/v2/stocks/%s/bars"
	clockPath      = "/v2/clock"

	headerKeyID     = "APCA-API-KEY-ID"
	headerSecretKey = "APCA-API-SECRET-KEY"

	pageLimit = 10000
)

// Client implements the MarketDataProvider interface for the Alpaca
// Market Data API
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	secretKey  string
	feed       string
	retryConf  retry.Config
	logger     *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithCredentials sets the API key pair
func WithCredentials(keyID, secretKey string) ClientOption {
	return func(c *Client) {
		c.keyID = keyID
		c.secretKey = secretKey
	}
}

// WithFeed sets the data feed (iex, sip)
func WithFeed(feed string) ClientOption {
	return func(c *Client) {
		if feed != "" {
			c.feed = feed
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetry configures retry behavior
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConf.MaxRetries = maxRetries
		c.retryConf.InitialBackoff = backoff
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "alpaca_client")
	}
}

// NewClient creates a new Alpaca market data client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   defaultBaseURL,
		feed:      defaultFeed,
		retryConf: retry.DefaultConfig(),
		logger:    slog.Default().With("component", "alpaca_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("alpaca client configured",
		"base_url", c.baseURL,
		"feed", c.feed,
		"key_id", maskKey(c.keyID),
	)

	return c
}

// barPayload is one bar in the Alpaca bars response
type barPayload struct {
	Timestamp  time.Time `json:"t"`
	Open       float64   `json:"o"`
	High       float64   `json:"h"`
	Low        float64   `json:"l"`
	Close      float64   `json:"c"`
	Volume     int64     `json:"v"`
	TradeCount int64     `json:"n"`
	VWAP       float64   `json:"vw"`
}

// barsResponse is one page of the Alpaca bars endpoint
type barsResponse struct {
	Bars          []barPayload `json:"bars"`
	Symbol        string       `json:"symbol"`
	NextPageToken *string      `json:"next_page_token"`
}

// GetBars fetches all minute bars for a symbol on a trading date,
// following page tokens until the provider reports no more pages
func (c *Client) GetBars(ctx context.Context, symbol domain.Symbol, date domain.TradingDate) ([]*domain.OHLCVBar, error) {
	start := date.Time()
	end := start.Add(24 * time.Hour)

	var bars []*domain.OHLCVBar
	pageToken := ""

	for {
		page, err := c.fetchPage(ctx, symbol, start, end, pageToken)
		if err != nil {
			return nil, err
		}

		for _, payload := range page.Bars {
			bar, err := c.toDomainBar(symbol, payload)
			if err != nil {
				return nil, fmt.Errorf("%w: bar at %s: %v", domain.ErrInvalidResponse, payload.Timestamp, err)
			}
			bars = append(bars, bar)
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		pageToken = *page.NextPageToken
	}

	c.logger.Debug("fetched bars",
		"symbol", symbol.String(),
		"date", date.String(),
		"count", len(bars),
	)

	return bars, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol domain.Symbol, start, end time.Time, pageToken string) (*barsResponse, error) {
	return retry.DoWithResult(ctx, c.retryConf, func(ctx context.Context) (*barsResponse, error) {
		u, err := url.Parse(c.baseURL + fmt.Sprintf(barsPathFmt, symbol))
		if err != nil {
			return nil, err
		}

		q := u.Query()
		q.Set("timeframe", "1Min")
		q.Set("start", start.Format(time.RFC3339))
		q.Set("end", end.Format(time.RFC3339))
		q.Set("limit", fmt.Sprintf("%d", pageLimit))
		q.Set("adjustment", "raw")
		q.Set("feed", c.feed)
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("request failed, will retry", "error", err)
			return nil, retry.NewRetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn("rate limited by provider")
			return nil, retry.NewRetryableError(domain.ErrRateLimited)
		}

		if resp.StatusCode >= 500 {
			c.logger.Warn("provider server error", "status", resp.StatusCode)
			return nil, retry.NewRetryableError(domain.ErrProviderUnavailable)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			c.logger.Error("unexpected response",
				"status", resp.StatusCode,
				"body", string(body),
			)
			return nil, domain.ErrInvalidResponse
		}

		var page barsResponse
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &page, nil
	})
}

func (c *Client) toDomainBar(symbol domain.Symbol, payload barPayload) (*domain.OHLCVBar, error) {
	open, err := domain.NewPriceFromFloat(payload.Open)
	if err != nil {
		return nil, err
	}
	high, err := domain.NewPriceFromFloat(payload.High)
	if err != nil {
		return nil, err
	}
	low, err := domain.NewPriceFromFloat(payload.Low)
	if err != nil {
		return nil, err
	}
	clos, err := domain.NewPriceFromFloat(payload.Close)
	if err != nil {
		return nil, err
	}
	volume, err := domain.NewVolume(payload.Volume)
	if err != nil {
		return nil, err
	}

	bar, err := domain.NewOHLCVBar(symbol, domain.NewTimestamp(payload.Timestamp.UTC()),
		open, high, low, clos, volume)
	if err != nil {
		return nil, err
	}

	if payload.TradeCount > 0 {
		if err := bar.SetTradeCount(payload.TradeCount); err != nil {
			return nil, err
		}
	}
	if payload.VWAP > 0 {
		vwap, err := domain.NewPriceFromFloat(payload.VWAP)
		if err != nil {
			return nil, err
		}
		bar.SetVWAP(vwap)
	}

	return bar, nil
}

// Ping checks if the provider is reachable
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+clockPath, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return domain.ErrProviderUnavailable
	}
	return nil
}

// ProviderID identifies the provider in events and logs
func (c *Client) ProviderID() string { return "alpaca" }

// Feed identifies the data feed the client is configured for
func (c *Client) Feed() string { return c.feed }

func (c *Client) authorize(req *http.Request) {
	req.Header.Set(headerKeyID, c.keyID)
	req.Header.Set(headerSecretKey, c.secretKey)
}

// maskKey hides all but the last four characters of a credential
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// Ensure Client implements ports.MarketDataProvider
var _ ports.MarketDataProvider = (*Client)(nil)
