package infrastructure

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"slidecast/config"
)

// HTTPClient provides a pooled HTTP client for upload traffic
type HTTPClient struct {
	client *http.Client
	config *config.Config
}

// NewHTTPClient creates a client tuned for large request bodies.
// A zero timeout falls back to the configured HTTP client timeout.
func NewHTTPClient(cfg *config.Config, timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
		WriteBufferSize:   64 * 1024, // uploads are body-heavy
		ReadBufferSize:    64 * 1024,
	}

	if timeout <= 0 {
		timeout = cfg.HTTPClientTimeout
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		config: cfg,
	}
}

// PostJSON streams body as JSON to url without buffering the whole payload.
func (c *HTTPClient) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(json.NewEncoder(pw).Encode(body))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

// Do performs a custom HTTP request
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// GetClient returns the underlying HTTP client
func (c *HTTPClient) GetClient() *http.Client {
	return c.client
}
