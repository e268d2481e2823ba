package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// requestTimeout bounds each provider call so a stalled provider cannot
// stall the request that triggered it.
const requestTimeout = 5 * time.Second

// Config holds newsdata.io configuration.
type Config struct {
	APIKey   string
	Language string // two-letter code, defaults to "en"
}

// Article is one raw provider result. Fields the provider omits decode to
// empty strings; callers apply their own defaults.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Link        string `json:"link"`
}

// Service queries the newsdata.io latest-news API.
type Service struct {
	config  Config
	client  *http.Client
	baseURL string
}

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.client = c
	}
}

// WithBaseURL overrides the provider endpoint, used in tests.
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = u
	}
}

// NewService creates a news service with the given configuration.
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	s := &Service{
		config:  cfg,
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: "https://newsdata.io/api/1/news",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured returns true if the API key is set.
func (s *Service) Configured() bool {
	return s.config.APIKey != ""
}

type apiResponse struct {
	Status  string    `json:"status"`
	Results []Article `json:"results"`
}

// Search returns the provider's latest articles for the query, most relevant
// first. A missing results field yields an empty slice, not an error.
func (s *Service) Search(ctx context.Context, query string) ([]Article, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("news service not configured: missing API key")
	}

	u := fmt.Sprintf(
		"%s?apikey=%s&q=%s&language=%s",
		s.baseURL, url.QueryEscape(s.config.APIKey), url.QueryEscape(query), url.QueryEscape(s.config.Language),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	return apiResp.Results, nil
}
