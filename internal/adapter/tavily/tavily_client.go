package tavily

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"course-advisor/internal/domain"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Tavily API endpoint.
const DefaultBaseURL = "https://api.tavily.com"

// Config carries the client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Depth      string
	Timeout    time.Duration
	RatePerSec float64
	RetryCount int
}

type searchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type errorResponse struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

// Client calls the Tavily search API.
type Client struct {
	client *resty.Client
	depth  string
	logger *slog.Logger
}

// NewClient builds a Tavily client with retries and an optional request rate limit.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	depth := cfg.Depth
	if depth == "" {
		depth = "basic"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryCondition)

	if cfg.RatePerSec > 0 {
		burst := max(1, int(cfg.RatePerSec))
		limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Client{client: client, depth: depth, logger: logger}
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429 || code == 408
}

// Search returns at most maxResults web results for query, in provider rank order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	start := time.Now()
	var out searchResponse
	var apiErr errorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query, MaxResults: maxResults, SearchDepth: c.depth}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily search request failed: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Detail.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("tavily search returned %d: %s", resp.StatusCode(), msg)
	}

	results := make([]domain.WebResult, 0, len(out.Results))
	for _, r := range out.Results {
		if maxResults > 0 && len(results) == maxResults {
			break
		}
		results = append(results, domain.WebResult{Title: r.Title, Content: r.Content, URL: r.URL})
	}

	c.logger.InfoContext(ctx, "web_search_completed",
		slog.Int("result_count", len(results)),
		slog.String("depth", c.depth),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

var _ domain.WebSearcher = (*Client)(nil)
