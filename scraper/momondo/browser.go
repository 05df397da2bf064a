package momondo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"travel-scout/config"
	"travel-scout/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Browser is one isolated browser session. Every call honours ctx.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	// ResolveRedirect opens url in a fresh tab, waits for network idle and
	// returns the final landing URL.
	ResolveRedirect(ctx context.Context, url string) (string, error)
	Close() error
}

// Launcher starts browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// ChromeLauncher starts a headless Chrome per session via chromedp
type ChromeLauncher struct {
	cfg    config.ScraperConfig
	logger *utils.Logger
}

// NewChromeLauncher creates a ChromeLauncher
func NewChromeLauncher(cfg config.ScraperConfig, logger *utils.Logger) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg, logger: logger}
}

// Launch allocates a browser process and its first tab. The process outlives ctx
// and is released only by Close.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := startTarget(ctx, tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}
	l.logger.Debug("Browser session started")

	return &chromeBrowser{
		tab:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// startTarget performs the first Run on a chromedp context. That Run must not carry
// a deadline or the target dies with it, so ctx only bounds how long we wait.
func startTarget(ctx, target context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(target)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type chromeBrowser struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// run executes actions on target, bounded by both target and ctx
func (b *chromeBrowser) run(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, b.tab, chromedp.Navigate(url))
}

func (b *chromeBrowser) Click(ctx context.Context, selector string) error {
	return b.run(ctx, b.tab, chromedp.Click(selector, chromedp.ByQuery))
}

func (b *chromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.tab, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (b *chromeBrowser) ResolveRedirect(ctx context.Context, url string) (string, error) {
	tab, cancel := chromedp.NewContext(b.tab)
	defer cancel()
	if err := startTarget(ctx, tab); err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}

	if err := b.run(ctx, tab, page.SetLifecycleEventsEnabled(true)); err != nil {
		return "", fmt.Errorf("enable lifecycle events: %w", err)
	}

	idle := make(chan struct{}, 1)
	var navigating atomic.Bool
	chromedp.ListenTarget(tab, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.Name != "networkIdle" || !navigating.Load() {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})

	navigating.Store(true)
	if err := b.run(ctx, tab, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	select {
	case <-idle:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	var final string
	if err := b.run(ctx, tab, chromedp.Location(&final)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return final, nil
}

// Close shuts the browser down. Safe to call more than once.
func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.tab)
		b.cancelTab()
		b.cancelAlloc()
	})
	return b.closeErr
}
