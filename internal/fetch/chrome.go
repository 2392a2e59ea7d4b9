package fetch

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// ChromeEngine launches a fresh headless Chrome per page via chromedp
type ChromeEngine struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

// NewChromeEngine creates an engine with the desktop user agent
func NewChromeEngine(headless bool, execPath string) *ChromeEngine {
	return &ChromeEngine{Headless: headless, ExecPath: execPath, UserAgent: UserAgent}
}

// Open starts a browser process and a tab. Cancelling ctx tears the browser down too.
func (e *ChromeEngine) Open(ctx context.Context) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.Headless),
		chromedp.UserAgent(e.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	if e.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser; it must use the tab context itself
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &chromePage{tab: tabCtx, tabCancel: tabCancel, allocCancel: allocCancel}, nil
}

type chromePage struct {
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := p.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height))
	return height, err
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	var height int64
	return p.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`, &height))
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close shuts the browser down gracefully, then releases the allocator
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.tab)
	p.tabCancel()
	p.allocCancel()
	return err
}
