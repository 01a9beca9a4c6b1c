package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/agentscrape/engine"
	"github.com/use-agent/agentscrape/models"
	"github.com/ysmood/gson"
)

// pageOptions tunes one page flow.
type pageOptions struct {
	url     string
	stealth bool
	timeout time.Duration
}

// withPage borrows a tab from the pool, prepares it for targetURL and runs fn
// against a context-bound copy of it.
//
// Lifecycle:
//
//  1. Timeout guard     – hard deadline on the entire flow
//  2. Acquire page      – borrow a tab from the pool (or create one)
//  3. DEFER: release    – about:blank + return to pool, or close if unhealthy
//  4. Stealth injection – before navigation, or it has no effect
//  5. Headers           – Referer and user agent
//  6. Hijack mount      – block heavy resources and ad hosts
//  7. Context binding   – propagate the deadline to all rod operations
//
// The release step uses the original page reference (without the request
// context), so cleanup succeeds even after the deadline has passed.
func (s *Scraper) withPage(ctx context.Context, opts pageOptions, fn func(p *rod.Page) error) (err error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = s.scraperCfg.PageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		// Return the empty slot, otherwise the pool shrinks for good.
		s.pagePool.Put(nil)
		return models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. Release ────────────────────────────────────────────────────
	defer func() {
		if s.recordPage(page, err == nil) {
			slog.Info("retiring unhealthy page")
			_ = page.Close()
			s.pagePool.Put(nil)
			return
		}
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection ──────────────────────────────────────────
	if opts.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// ── 5. Headers ────────────────────────────────────────────────────
	if u, parseErr := url.Parse(opts.url); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}
	if s.browserCfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.browserCfg.UserAgent})
	}

	// ── 6. Hijack ─────────────────────────────────────────────────────
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockAds)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 7. Bind context ───────────────────────────────────────────────
	return fn(page.Context(ctx))
}

// navigate loads targetURL and waits for the DOM to settle.
func navigate(p *rod.Page, targetURL string) error {
	if err := p.Navigate(targetURL); err != nil {
		return categorizeError(err, "navigation to "+targetURL+" failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

// Render loads a single page and returns its rendered HTML. It is the render
// function behind the dispatcher's rod tiers and never calls the dispatcher.
func (s *Scraper) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	var result *engine.FetchResult
	err := s.withPage(ctx, pageOptions{url: req.URL, stealth: req.Stealth, timeout: req.Timeout}, func(p *rod.Page) error {
		if err := navigate(p, req.URL); err != nil {
			return err
		}
		if req.WaitSelector != "" {
			_ = runSteps(p.GetContext(), p, []step{
				waitSelectorStep(req.WaitSelector, s.scraperCfg.ListingWaitTimeout, true),
			})
		}

		rawHTML, err := p.HTML()
		if err != nil {
			return categorizeError(err, "failed to extract page HTML")
		}

		finalURL := evalStringOrEmpty(p, `() => window.location.href`)
		if finalURL == "" {
			finalURL = req.URL
		}
		result = &engine.FetchResult{
			HTML:       rawHTML,
			Title:      evalStringOrEmpty(p, `() => document.title`),
			StatusCode: navigationStatus(p),
			FinalURL:   finalURL,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// navigationStatus reads the main document's HTTP status from the
// Navigation Timing API (0 when unavailable). Listening for network events
// would conflict with the hijack router.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
