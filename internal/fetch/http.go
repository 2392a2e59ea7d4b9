package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/logger"
)

// maxBodyBytes bounds a program page; the largest venue listing is well under 5 MB
const maxBodyBytes = 16 << 20

// ErrBodyTooLarge reports a response body over the fetcher's size limit
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPFetcher fetches server-rendered pages with a single GET request
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
}

// NewHTTPFetcher creates a direct fetcher with a bounded timeout
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		userAgent: userAgent,
		timeout:   timeout,
		maxBody:   maxBodyBytes,
	}
}

// Fetch issues the GET request and returns the body.
// Non-2xx responses and transport errors fail immediately as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, r Request) (string, error) {
	timeout := f.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", &FetchError{URL: r.URL, Kind: KindNetwork, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "cs,en;q=0.8")

	logger.Debug("Fetching page", logger.Fields{"url": r.URL, "fetcher": "http"})

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: r.URL, Kind: classify(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: r.URL, Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", &FetchError{URL: r.URL, Kind: classify(ctx, err), Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return "", &FetchError{URL: r.URL, Kind: KindNetwork, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, f.maxBody)}
	}

	return string(body), nil
}
