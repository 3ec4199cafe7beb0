// client.go
package nix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNotInCache indicates the binary cache has no narinfo for a store path
var ErrNotInCache = errors.New("not in binary cache")

// StatusError reports a non-200 response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client handles HTTP requests to Nix services
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new Nix HTTP client with default timeout
func NewClient() *Client {
	return NewClientWithTimeout(30 * time.Second)
}

// NewClientWithTimeout creates a new Nix HTTP client with custom timeout
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "uenv/1.0",
	}
}

// Get performs an HTTP GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// GetString fetches a URL and returns the body as a string
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(body), nil
}

// CacheClient queries a binary cache for prebuilt store paths
type CacheClient struct {
	client   *Client
	cacheURL string
	logger   *log.Logger
}

// NewCacheClient creates a binary cache client
func NewCacheClient(cfg CacheConfig) *CacheClient {
	if cfg.CacheURL == "" {
		cfg.CacheURL = DefaultCacheURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &CacheClient{
		client:   NewClientWithTimeout(cfg.Timeout),
		cacheURL: strings.TrimSuffix(cfg.CacheURL, "/"),
		logger:   cfg.Logger,
	}
}

// NARInfo retrieves the narinfo for a store path
func (c *CacheClient) NARInfo(ctx context.Context, storePath string) (*NARInfo, error) {
	digest, err := StoreDigest(storePath)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s.narinfo", c.cacheURL, digest)
	c.logger.Debug("fetching narinfo", "url", url)

	content, err := c.client.GetString(ctx, url)
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotInCache, storePath)
		}
		return nil, fmt.Errorf("fetching narinfo for %s: %w", storePath, err)
	}

	info, err := ParseNARInfo(content)
	if err != nil {
		return nil, fmt.Errorf("narinfo for %s: %w", storePath, err)
	}
	if info.StorePath != storePath {
		return nil, fmt.Errorf("narinfo for %s describes %s", storePath, info.StorePath)
	}
	return info, nil
}

// Substitutable reports whether the cache can serve storePath
func (c *CacheClient) Substitutable(ctx context.Context, storePath string) (bool, error) {
	_, err := c.NARInfo(ctx, storePath)
	if errors.Is(err, ErrNotInCache) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
