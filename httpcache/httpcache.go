// Package httpcache contains http utils to deal with remote market data services.
package httpcache

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/folio/date"
	"github.com/rs/zerolog"
)

// Timeout is the default timeout of clients returned by this package.
const Timeout = 10 * time.Second

// StatusError is returned by GetJSON when the server answers with a non 200 status.
type StatusError struct {
	Code   int
	Status string
	Host   string
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http GET %v%v: %v", e.Host, e.Path, e.Status)
}

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base   http.RoundTripper
	period date.Period
	dir    string
	today  func() date.Date
	log    zerolog.Logger
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If a fresh cached response is not found, it proceeds
// with the actual HTTP request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	// the key changes with the period identifier, so entries expire with the period.
	key := fmt.Sprintf("%s %s %s", c.period.Identifier(c.today()), req.Method, req.URL.String())
	key = fmt.Sprintf("folio-%s-%x", c.period, sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	if err := c.put(key, resp); err != nil {
		c.log.Warn().Err(err).Msg("cache write error (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// New returns a plain client with the default timeout.
func New() *http.Client {
	return &http.Client{Timeout: Timeout}
}

// NewCaching returns an http.Client that uses a disk cache in the temp dir where entries expire with period.
// Requests and cache failures are logged to log.
func NewCaching(period date.Period, log zerolog.Logger) *http.Client {
	return NewCachingIn(os.TempDir(), period, log)
}

// NewCachingIn is like NewCaching but stores entries in dir.
func NewCachingIn(dir string, period date.Period, log zerolog.Logger) *http.Client {
	return &http.Client{
		Timeout:   Timeout,
		Transport: &diskCache{base: http.DefaultTransport, period: period, dir: dir, today: date.Today, log: log},
	}
}

// GetJSON performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
func GetJSON(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	// some providers reject the default go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; folio)")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Host: req.URL.Host, Path: req.URL.Path}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	if err := json.Unmarshal(buf.Bytes(), data); err != nil {
		return fmt.Errorf("cannot decode response from %v%v: %w", req.URL.Host, req.URL.Path, err)
	}
	return nil
}
