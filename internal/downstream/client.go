// Package downstream contains typed HTTP clients for the backing services
// (author, paper, fulltext, thumbnail, stats). Every call forwards the
// correlation id carried by the context and decodes into the model types, so
// schema drift fails here instead of leaking into the joining logic.
//
// Clients never retry; a failure is surfaced once to the caller.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docfront/internal/config"
	"docfront/internal/requestid"
)

// Service names a backing service.
type Service string

const (
	ServiceAuthor    Service = "author"
	ServicePaper     Service = "paper"
	ServiceFulltext  Service = "fulltext"
	ServiceThumbnail Service = "thumbnail"
	ServiceStats     Service = "stats"
)

// Services lists every backing service in a stable order.
func Services() []Service {
	return []Service{ServiceAuthor, ServicePaper, ServiceFulltext, ServiceThumbnail, ServiceStats}
}

// maxBinaryBytes caps raw downloads (PDF, PNG) read into memory.
const maxBinaryBytes = 64 << 20

// ErrTooLarge reports a binary response exceeding maxBinaryBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response from a backing service.
type StatusError struct {
	Service    Service
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %s: HTTP %d", e.Service, e.Method, e.URL, e.StatusCode)
}

// StatusCodeOf returns the downstream HTTP status wrapped in err, or 0 when err
// did not come from a non-2xx response.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsNotFound reports whether err wraps a downstream 404.
func IsNotFound(err error) bool {
	return StatusCodeOf(err) == http.StatusNotFound
}

// Client is a set of typed wrappers sharing one connection pool.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	http  *http.Client
	bases map[Service]string
}

var _ API = (*Client)(nil)

// New builds a Client over a pooled transport. Outbound requests are traced
// with otelhttp and carry the correlation id header.
func New(svc config.ServicesConfig, pool config.HTTPClientConfig) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if pool.MaxIdleConnsPerHost > 0 {
		base.MaxIdleConnsPerHost = pool.MaxIdleConnsPerHost
	}
	if pool.IdleConnTimeoutSec > 0 {
		base.IdleConnTimeout = time.Duration(pool.IdleConnTimeoutSec) * time.Second
	}

	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(&requestIDTransport{base: base}),
		},
		bases: map[Service]string{
			ServiceAuthor:    svc.Author.BaseURL(),
			ServicePaper:     svc.Paper.BaseURL(),
			ServiceFulltext:  svc.Fulltext.BaseURL(),
			ServiceThumbnail: svc.Thumbnail.BaseURL(),
			ServiceStats:     svc.Stats.BaseURL(),
		},
	}
}

// Close releases idle pooled connections. Call once at shutdown.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// URL builds the absolute URL of path on svc with optional query parameters.
func (c *Client) URL(svc Service, path string, query url.Values) string {
	u := c.bases[svc] + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// requestIDTransport forwards the context correlation id as a request header.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := requestid.FromContext(req.Context())
	if id == "" || req.Header.Get(requestid.Header) != "" {
		return t.base.RoundTrip(req)
	}
	// Clone so the caller's request is not mutated.
	r := req.Clone(req.Context())
	r.Header.Set(requestid.Header, id)
	return t.base.RoundTrip(r)
}

func (c *Client) do(ctx context.Context, svc Service, method, u string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", svc, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", svc, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %s %s: %w", svc, method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection returns to the pool.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &StatusError{Service: svc, Method: method, URL: u, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, svc Service, u string, out any) error {
	resp, err := c.do(ctx, svc, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", svc, u, err)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, svc Service, u string) ([]byte, error) {
	resp, err := c.do(ctx, svc, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// One byte past the cap tells a truncated body from an exact fit.
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBinaryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", svc, u, err)
	}
	if len(b) > maxBinaryBytes {
		return nil, fmt.Errorf("%s: read %s: %w (limit %d bytes)", svc, u, ErrTooLarge, maxBinaryBytes)
	}
	return b, nil
}

func (c *Client) postJSON(ctx context.Context, svc Service, u string, body, out any) error {
	resp, err := c.do(ctx, svc, http.MethodPost, u, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", svc, u, err)
	}
	return nil
}
