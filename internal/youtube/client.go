package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/perspectize-backend/internal/pkg/cachekey"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	videoParts     = "snippet,contentDetails,statistics"

	maxBodyBytes = 4 << 20
)

// Config configures the metadata client
type Config struct {
	// APIKey may hold several comma-separated keys used round-robin
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// DefaultConfig returns the client defaults, without an API key
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		RetryDelay: 250 * time.Millisecond,
		CacheTTL:   time.Hour,
	}
}

// BodyCache stores raw upstream documents. *redis.Client satisfies it.
type BodyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Client fetches video metadata from the YouTube Data API
type Client struct {
	config     *Config
	httpClient *http.Client
	apiKeys    []string
	keyIndex   atomic.Uint32
	cache      BodyCache
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithCache enables the body cache. FetchVideo reads through it, GetVideo
// only writes to it.
func WithCache(cache BodyCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMetrics records lookups on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client. The configuration is copied.
func NewClient(cfg *Config, log *logger.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	conf := *cfg
	if conf.BaseURL == "" {
		conf.BaseURL = DefaultBaseURL
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 10 * time.Second
	}
	if conf.MaxRetries < 0 {
		conf.MaxRetries = 0
	}

	var keys []string
	for _, k := range strings.Split(conf.APIKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		config:  &conf,
		apiKeys: keys,
		logger:  log,
		httpClient: &http.Client{
			Timeout: conf.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetVideo fetches, decodes and validates the metadata of one video. The raw
// body is returned alongside so callers can store it verbatim. It always asks
// upstream; the cache is only refreshed.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, []byte, error) {
	body, err := c.fetchFresh(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}

	video, err := DecodeVideoList(body)
	if err != nil {
		return nil, nil, err
	}
	return video, body, nil
}

// FetchVideo returns the raw videos.list body for videoID, served from the
// cache when present. Non-2xx answers become *APIError.
func (c *Client) FetchVideo(ctx context.Context, videoID string) ([]byte, error) {
	if body, ok := c.cached(ctx, videoID); ok {
		c.metrics.RecordUpstream("cache", 0)
		return body, nil
	}
	return c.fetchFresh(ctx, videoID)
}

func (c *Client) fetchFresh(ctx context.Context, videoID string) ([]byte, error) {
	start := time.Now()
	body, err := c.fetchWithRetry(ctx, videoID)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordUpstream("error", elapsed)
		return nil, err
	}
	c.metrics.RecordUpstream("ok", elapsed)

	// only documents usable for ingestion are cached
	if _, verr := DecodeVideoList(body); verr == nil {
		c.store(ctx, videoID, body)
	}
	return body, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, videoID string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.fetchOnce(ctx, videoID)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
		c.logger.Warn("youtube request failed, retrying",
			zap.String("video_id", videoID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, videoID string) ([]byte, error) {
	q := url.Values{}
	q.Set("part", videoParts)
	q.Set("id", videoID)
	q.Set("key", c.nextKey())
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/videos?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build youtube request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read youtube response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}
	return body, nil
}

func (c *Client) nextKey() string {
	i := c.keyIndex.Add(1) - 1
	return c.apiKeys[int(i)%len(c.apiKeys)]
}

func (c *Client) cached(ctx context.Context, videoID string) ([]byte, bool) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return nil, false
	}
	body, err := c.cache.Get(ctx, cachekey.Video(videoID))
	if err != nil || len(body) == 0 {
		return nil, false
	}
	return body, true
}

func (c *Client) store(ctx context.Context, videoID string, body []byte) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, cachekey.Video(videoID), body, c.config.CacheTTL); err != nil {
		c.logger.Warn("failed to cache youtube response", zap.String("video_id", videoID), zap.Error(err))
	}
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

// upstreamMessage pulls error.message out of a Google API error body
func upstreamMessage(body []byte) string {
	var resp VideoListResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	return strings.TrimSpace(string(body))
}
