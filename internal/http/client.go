package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/handiism/manifest-downloader/internal/model"
	"github.com/pkg/errors"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "manifest-downloader"

// Client wraps HTTP operations for manifest downloads.
//
// Client provides:
//   - Configured User-Agent header
//   - Connection and response-header timeouts
//   - Streaming GET with the announced content length
//   - File size retrieval via HEAD requests
//
// There is no overall request timeout, since a large file may
// legitimately take hours to transfer. Transparent gzip decoding is
// disabled so the bytes on disk are the bytes the server sent.
//
// Example usage:
//
//	client := NewClient(30*time.Second, "")
//
//	resp, err := client.Open(ctx, "https://example.com/foo.tar.gz")
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//	fmt.Println(resp.Size) // "12 MB" or "unknown"
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - timeout applied to dialing, the TLS handshake and waiting for response headers
//   - userAgent as User-Agent header, or DefaultUserAgent when empty
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	return NewClientWith(&http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			DisableCompression:    true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}, userAgent)
}

// NewClientWith wraps an existing *http.Client, e.g. one returned by
// httptest.Server.Client.
func NewClientWith(httpClient *http.Client, userAgent string) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{httpClient: httpClient, userAgent: userAgent}
}

// Response is an open download stream.
type Response struct {
	// Body is the response body. The caller must close it.
	Body io.ReadCloser

	// Size is the announced Content-Length, or model.UnknownSize.
	Size model.Size
}

// Open performs a GET request and returns the body as a stream.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 2xx
func (c *Client) Open(ctx context.Context, url string) (*Response, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	return &Response{
		Body: resp.Body,
		Size: model.KnownSize(resp.ContentLength),
	}, nil
}

// GetFileSize returns the size of a file at the given URL via HEAD request.
//
// A server that sends no Content-Length yields model.UnknownSize rather
// than an error.
//
// Example:
//
//	size, err := client.GetFileSize(ctx, fileURL)
//	fmt.Printf("File is %s\n", size)
func (c *Client) GetFileSize(ctx context.Context, url string) (model.Size, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return model.UnknownSize, err
	}
	resp.Body.Close()

	return model.KnownSize(resp.ContentLength), nil
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, url)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.WithStack(&StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	return resp, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %s", e.URL, e.Status)
}
