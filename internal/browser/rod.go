package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RodFetcher drives a stealth-patched Chromium through go-rod. Every call
// launches its own browser process.
type RodFetcher struct {
	cfg    Config
	logger zerolog.Logger
}

// NewRodFetcher creates a rod-backed fetcher.
func NewRodFetcher(cfg Config) *RodFetcher {
	return &RodFetcher{
		cfg:    cfg,
		logger: log.With().Str("component", "browser").Str("driver", DriverRod).Logger(),
	}
}

// Name returns the driver name.
func (f *RodFetcher) Name() string {
	return DriverRod
}

// Fetch navigates to req.URL and returns the rendered HTML.
func (f *RodFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	l := launcher.New().
		Context(ctx).
		Headless(f.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")
	if f.cfg.NoSandbox {
		l = l.Set("no-sandbox")
	}
	if f.cfg.BinPath != "" {
		l = l.Bin(f.cfg.BinPath)
	}
	defer func() {
		l.Kill()
		l.Cleanup()
	}()

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer b.Close()

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("stealth page: %w", err)
	}

	if f.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.cfg.UserAgent}); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	if err := page.Timeout(f.cfg.NavigationTimeout).Navigate(req.URL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", req.URL, err)
	}
	if err := page.Timeout(f.cfg.NavigationTimeout).WaitStable(f.cfg.StableWait); err != nil {
		f.logger.Debug().Err(err).Str("url", req.URL).Msg("Page stability timeout, continuing")
	}

	f.setLocation(page, req)

	if req.WaitSelector != "" {
		if _, err := page.Timeout(f.cfg.NavigationTimeout).Element(req.WaitSelector); err != nil {
			f.logger.Debug().Err(err).Str("selector", req.WaitSelector).Msg("Wait selector not found")
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

// setLocation types the pincode into the site's location picker. Failures are logged only.
func (f *RodFetcher) setLocation(page *rod.Page, req Request) {
	if req.LocationInput == "" || req.Pincode == "" {
		return
	}
	p := page.Timeout(f.cfg.LocationStepTimeout)
	el, err := p.Element(req.LocationInput)
	if err != nil {
		f.logger.Debug().Err(err).Str("selector", req.LocationInput).Msg("Location picker not found")
		return
	}
	if err := el.Input(req.Pincode); err != nil {
		f.logger.Debug().Err(err).Msg("Failed to type pincode")
		return
	}
	if err := el.Type(input.Enter); err != nil {
		f.logger.Debug().Err(err).Msg("Failed to submit pincode")
		return
	}
	if err := p.WaitStable(f.cfg.StableWait); err != nil {
		f.logger.Debug().Err(err).Msg("Page did not settle after location step")
	}
}
