// Package googlebooks implements the catalog search provider backed by the
// Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production volumes endpoint.
const DefaultBaseURL = "https://www.googleapis.com/books/v1"

// MaxPageSize is the largest page the volumes API will return.
const MaxPageSize = 40

// Searcher defines the volume search operation the collector depends on.
type Searcher interface {
	SearchVolumes(ctx context.Context, query string, startIndex, maxResults int, opts SearchOptions) (*SearchResponse, error)
}

// SearchOptions contains optional parameters for a volume search.
type SearchOptions struct {
	PrintType    string
	LangRestrict string
}

// Client provides access to the Google Books API for searches.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Google Books client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("google books api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchVolumes fetches one page of search results starting at startIndex.
func (c *Client) SearchVolumes(ctx context.Context, query string, startIndex, maxResults int, opts SearchOptions) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if startIndex < 0 {
		return nil, fmt.Errorf("start index must be >= 0, got %d", startIndex)
	}
	if maxResults < 1 || maxResults > MaxPageSize {
		return nil, fmt.Errorf("max results must be 1..%d, got %d", MaxPageSize, maxResults)
	}

	endpoint, err := url.Parse(c.baseURL + "/volumes")
	if err != nil {
		return nil, fmt.Errorf("parse google books url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("orderBy", "newest")
	params.Set("key", c.apiKey)
	if opts.PrintType != "" {
		params.Set("printType", opts.PrintType)
	}
	if opts.LangRestrict != "" {
		params.Set("langRestrict", opts.LangRestrict)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google books response: %w", err)
	}
	return &payload, nil
}
