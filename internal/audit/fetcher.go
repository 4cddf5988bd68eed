package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserAgent identifies the auditor to target sites as a regular desktop browser
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 10 << 20

// TransportMetadata describes the HTTP response of the audited page
type TransportMetadata struct {
	URL        string
	StatusCode int
	Header     http.Header
	Elapsed    time.Duration
	BodySize   int
}

// FetchResult is the body and metadata of a fetched page
type FetchResult struct {
	Body []byte
	Meta TransportMetadata
}

// Fetcher retrieves the page under audit
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	metrics RequestRecorder
}

// RequestRecorder records outbound HTTP requests
type RequestRecorder interface {
	RecordHTTPClientRequest(statusCode int, duration float64, method, requestType string)
}

type noopRecorder struct{}

func (noopRecorder) RecordHTTPClientRequest(int, float64, string, string) {}

// NewFetcher creates a fetcher. A zero timeout keeps the client's own timeout.
func NewFetcher(client *http.Client, timeout time.Duration, rec RequestRecorder) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Fetcher{client: client, timeout: timeout, metrics: rec}
}

// Fetch issues one GET against rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ConfigError("fetch", fmt.Sprintf("invalid url: %v", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.RecordHTTPClientRequest(0, time.Since(start).Seconds(), req.Method, "page_fetch")
		return nil, NetworkError("fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	f.metrics.RecordHTTPClientRequest(resp.StatusCode, elapsed.Seconds(), req.Method, "page_fetch")
	if err != nil {
		return nil, NetworkError("read body", err)
	}

	header := resp.Header.Clone()
	// the transport strips the encoding header when it decompresses transparently
	if resp.Uncompressed && header.Get("Content-Encoding") == "" {
		header.Set("Content-Encoding", "gzip")
	}

	return &FetchResult{
		Body: body,
		Meta: TransportMetadata{
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Header:     header,
			Elapsed:    elapsed,
			BodySize:   len(body),
		},
	}, nil
}

// NormalizeURL prefixes a scheme when missing and returns the URL with its host
func NormalizeURL(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ConfigError("normalize url", "url is required")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", ConfigError("normalize url", fmt.Sprintf("invalid url format: %v", err))
	}
	if u.Host == "" {
		return "", "", ConfigError("normalize url", "hostname is required")
	}

	return u.String(), u.Host, nil
}

// describeRequestError renders transport failures the way link and file checks report them
func describeRequestError(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "Connection timeout"
		}
		return fmt.Sprintf("Connection error: %s", urlErr.Err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Connection timeout"
	}
	return fmt.Sprintf("Request failed: %s", err.Error())
}
