package tiles

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"tile-timelapse/internal/common"
)

// StatusError is returned when the tile endpoint answers with a non-2xx status
type StatusError struct {
	Coord      common.TileCoord
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tile %s request failed with status: %d", e.Coord, e.StatusCode)
}

// Options configures a tile Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MaxConnsPerHost caps parallel connections to the endpoint; 0 leaves it unlimited
	MaxConnsPerHost int
	// Transport overrides the default transport (tests)
	Transport http.RoundTripper
}

// Client downloads raw tile bytes from a {base}/{x}/{y}.png endpoint.
// One Client (and therefore one connection pool) is shared by every
// concurrent fetch of a batch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a tile client with system proxy support
func NewClient(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		// Use http.ProxyFromEnvironment to respect system proxy settings
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   32,
			MaxConnsPerHost:       opts.MaxConnsPerHost,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = common.DefaultTileBaseURL
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = common.DefaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// TileURL builds the URL of one tile
func (c *Client) TileURL(coord common.TileCoord) string {
	return fmt.Sprintf("%s/%d/%d.png", c.baseURL, coord.X, coord.Y)
}

// FetchTile downloads the raw bytes of one tile
func (c *Client) FetchTile(ctx context.Context, coord common.TileCoord) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TileURL(coord), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/png,image/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile %s: %w", coord, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused by sibling fetches
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Coord: coord, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %s: %w", coord, err)
	}
	return data, nil
}
