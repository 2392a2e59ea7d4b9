package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/concert-calendar/internal/logger"
)

const (
	DefaultSettle      = 3 * time.Second
	DefaultScrollPause = 1500 * time.Millisecond
	DefaultMaxScrolls  = 10
)

// Engine launches isolated rendering contexts
type Engine interface {
	Open(ctx context.Context) (Page, error)
}

// Page is one live browser tab. Close releases the whole rendering context and must be
// safe to call after any failure.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	Content(ctx context.Context) (string, error)
	Close() error
}

// BrowserFetcher renders JavaScript-heavy pages through an Engine
type BrowserFetcher struct {
	engine  Engine
	timeout time.Duration
	settle  time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewBrowserFetcher creates a scripted-browser fetcher
func NewBrowserFetcher(engine Engine, timeout, settle time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &BrowserFetcher{
		engine:  engine,
		timeout: timeout,
		settle:  settle,
		sleep:   sleepContext,
	}
}

// Fetch opens a page, waits for readiness, optionally scrolls, and returns the markup.
// The page is closed on every return path.
func (f *BrowserFetcher) Fetch(ctx context.Context, r Request) (html string, err error) {
	timeout := f.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}

	page, err := f.engine.Open(ctx)
	if err != nil {
		return "", &FetchError{URL: r.URL, Kind: KindNavigation, Err: fmt.Errorf("launching browser: %w", err)}
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			logger.Warn("Closing browser failed", logger.Fields{"url": r.URL, "error": cerr.Error()})
		}
	}()

	logger.Info("Opening browser", logger.Fields{"url": r.URL})

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	err = page.Navigate(navCtx, r.URL)
	cancel()
	if err != nil {
		return "", browserError(r.URL, KindNavigation, err)
	}

	if r.WaitFor != "" {
		logger.Debug("Waiting for selector", logger.Fields{"url": r.URL, "selector": r.WaitFor})
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err = page.WaitVisible(waitCtx, r.WaitFor)
		cancel()
		if err != nil {
			return "", browserError(r.URL, KindWait, err)
		}
	} else if err := f.sleep(ctx, f.settle); err != nil {
		return "", browserError(r.URL, KindTimeout, err)
	}

	if r.Scroll != nil {
		if err := f.scroll(ctx, page, r, timeout); err != nil {
			return "", browserError(r.URL, KindNavigation, err)
		}
	}

	captureCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	html, err = page.Content(captureCtx)
	if err != nil {
		return "", browserError(r.URL, KindNavigation, fmt.Errorf("capturing markup: %w", err))
	}

	logger.Info("Fetched page with browser", logger.Fields{"url": r.URL, "bytes": len(html)})
	return html, nil
}

// scroll runs scroll cycles until the page stops growing or the attempt ceiling is hit.
// Every browser call of a cycle is bounded by timeout.
func (f *BrowserFetcher) scroll(ctx context.Context, page Page, r Request, timeout time.Duration) error {
	maxScrolls := r.Scroll.MaxScrolls
	if maxScrolls <= 0 {
		maxScrolls = DefaultMaxScrolls
	}
	pause := r.Scroll.Pause
	if pause <= 0 {
		pause = DefaultScrollPause
	}

	var previous int64
	for attempt := 0; attempt < maxScrolls; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		height, err := page.ScrollHeight(stepCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("measuring page height: %w", err)
		}
		if height == previous {
			logger.Debug("Reached bottom", logger.Fields{"url": r.URL, "scrolls": attempt})
			return nil
		}
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		err = page.ScrollToBottom(stepCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
		if err := f.sleep(ctx, pause); err != nil {
			return err
		}
		previous = height
	}
	return nil
}

func browserError(url string, kind ErrorKind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		if kind == KindNavigation {
			kind = KindTimeout
		}
	}
	return &FetchError{URL: url, Kind: kind, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
