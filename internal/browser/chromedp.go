package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ChromedpFetcher drives Chrome through the DevTools protocol. Every call
// allocates its own browser and cancels it on return.
type ChromedpFetcher struct {
	cfg    Config
	logger zerolog.Logger
}

// NewChromedpFetcher creates a chromedp-backed fetcher.
func NewChromedpFetcher(cfg Config) *ChromedpFetcher {
	return &ChromedpFetcher{
		cfg:    cfg,
		logger: log.With().Str("component", "browser").Str("driver", DriverChromedp).Logger(),
	}
}

// Name returns the driver name.
func (f *ChromedpFetcher) Name() string {
	return DriverChromedp
}

func (f *ChromedpFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("no-sandbox", f.cfg.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
	)
	if f.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.cfg.UserAgent))
	}
	if f.cfg.BinPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.BinPath))
	}
	return opts
}

// Fetch navigates to req.URL and returns the rendered HTML.
func (f *ChromedpFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	// Start the browser on the undecorated context so later timeouts only end their own actions.
	if err := chromedp.Run(taskCtx); err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(req.URL)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", req.URL, err)
	}

	if req.LocationInput != "" && req.Pincode != "" {
		stepCtx, cancelStep := context.WithTimeout(taskCtx, f.cfg.LocationStepTimeout)
		err := chromedp.Run(stepCtx, chromedp.SendKeys(req.LocationInput, req.Pincode+kb.Enter, chromedp.ByQuery))
		cancelStep()
		if err != nil {
			f.logger.Debug().Err(err).Str("selector", req.LocationInput).Msg("Location step failed, continuing")
		}
	}

	if req.WaitSelector != "" {
		if err := chromedp.Run(navCtx, chromedp.WaitVisible(req.WaitSelector, chromedp.ByQuery)); err != nil {
			f.logger.Debug().Err(err).Str("selector", req.WaitSelector).Msg("Wait selector not visible")
		}
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}
