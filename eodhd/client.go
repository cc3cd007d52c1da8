// Package eodhd fetches end-of-day market data from eodhd.com and syncs it
// into a folio store.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/folio/cache"
	"github.com/etnz/folio/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the root of the eodhd API.
	DefaultBaseURL = "https://eodhd.com/api"
	// DefaultRateLimit is the number of requests allowed per second.
	DefaultRateLimit = 5
	DefaultTimeout   = 30 * time.Second
	// DefaultCacheTTL is how long a response is reused.
	DefaultCacheTTL = time.Hour
)

// Client is a rate limited eodhd API client. Successful responses are kept
// in memory for the cache TTL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache[[]byte]
	ttl        time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit sets the number of requests per second.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithCacheTTL sets how long responses are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// NewClient returns a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		ttl:        DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl > 0 {
		responses, err := cache.New[[]byte](1024, c.ttl)
		if err != nil {
			return nil, err
		}
		c.cache = responses
	}
	return c, nil
}

// Close releases the response cache.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// APIError is a non 200 answer of the API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eodhd API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get queries path and decodes the JSON answer into result.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	key := path + "?" + params.Encode()
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return json.Unmarshal(body, result)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("fmt", "json")
	query.Set("api_token", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("eodhd request")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Endpoint: path}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", path, err)
	}
	if c.cache != nil {
		c.cache.Put(key, body, 0)
	}
	return nil
}

// Bar is a daily record as returned by the eod endpoint.
type Bar struct {
	Date   date.Date       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Bars returns the daily bars of symbol within [from, to], bounds included.
// Symbols are in the "TICKER.EXCHANGE" form, e.g. "MCD.US".
func (c *Client) Bars(ctx context.Context, symbol string, from, to date.Date) ([]Bar, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.String())
	}
	if !to.IsZero() {
		params.Set("to", to.String())
	}
	var bars []Bar
	if err := c.get(ctx, "/eod/"+url.PathEscape(symbol), params, &bars); err != nil {
		return nil, fmt.Errorf("failed to fetch bars of %s: %w", symbol, err)
	}
	return bars, nil
}

// Split is a share split reported by the provider.
type Split struct {
	Date date.Date
	// Ratio is the number of new shares per old share.
	Ratio decimal.Decimal
}

// Splits returns the splits of symbol within [from, to].
func (c *Client) Splits(ctx context.Context, symbol string, from, to date.Date) ([]Split, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.String())
	}
	if !to.IsZero() {
		params.Set("to", to.String())
	}
	var content []struct {
		Date  date.Date `json:"date"`
		Split string    `json:"split"` // "4.000000/1.000000"
	}
	if err := c.get(ctx, "/splits/"+url.PathEscape(symbol), params, &content); err != nil {
		return nil, fmt.Errorf("failed to fetch splits of %s: %w", symbol, err)
	}
	splits := make([]Split, 0, len(content))
	for _, s := range content {
		ratio, err := parseRatio(s.Split)
		if err != nil {
			return nil, err
		}
		splits = append(splits, Split{Date: s.Date, Ratio: ratio})
	}
	return splits, nil
}

func parseRatio(s string) (decimal.Decimal, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("invalid split format from API: %q", s)
	}
	n, err := decimal.NewFromString(strings.TrimSpace(num))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid numerator in split %q: %w", s, err)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(den))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid denominator in split %q: %w", s, err)
	}
	if !n.IsPositive() || !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("invalid split %q", s)
	}
	return n.Div(d), nil
}

// SearchResult is one match of the search endpoint.
type SearchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Country  string `json:"Country"`
	Currency string `json:"Currency"`
	ISIN     string `json:"ISIN"`
}

// Symbol returns the "TICKER.EXCHANGE" symbol of r.
func (r SearchResult) Symbol() string { return r.Code + "." + r.Exchange }

// Search looks up securities by name, ticker or ISIN.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	var results []SearchResult
	if err := c.get(ctx, "/search/"+url.PathEscape(term), nil, &results); err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", term, err)
	}
	return results, nil
}
