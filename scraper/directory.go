package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/agentscrape/engine"
	"github.com/use-agent/agentscrape/extract"
	"github.com/use-agent/agentscrape/models"
	"github.com/use-agent/agentscrape/source"
)

const (
	profileLinkSelector  = `a[href*='/profile/']`
	rosterCardSelector   = `.agent-card`
	profileReadySelector = "h1"

	rosterLinkText     = "Agent List"
	rosterLinkFallback = `a[href*="agent"]`
	rosterLoadingText  = "Loading agents..."

	scrollTimeout = 30 * time.Second
)

// errNoAgentData rejects profile pages that rendered without any agent
// fields, such as a client-side shell or a soft 404.
var errNoAgentData = errors.New("page has no agent data")

// FetchSummaries loads the search listing and returns one summary per
// distinct profile link.
func (s *Scraper) FetchSummaries(ctx context.Context, searchLabel string) ([]models.AgentRecord, error) {
	target := source.SearchURL(s.siteCfg.BaseURL, searchLabel)
	start := time.Now()

	var rawHTML string
	err := s.withPage(ctx, pageOptions{url: target, stealth: s.scraperCfg.Stealth}, func(p *rod.Page) error {
		if err := navigate(p, target); err != nil {
			return err
		}
		if err := runSteps(p.GetContext(), p, []step{
			sleepStep(s.scraperCfg.SettleDelay),
			waitSelectorStep(profileLinkSelector, s.scraperCfg.ListingWaitTimeout, true),
			autoScrollStep(scrollTimeout),
		}); err != nil {
			return err
		}
		var err error
		rawHTML, err = outerHTML(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	agents, err := extract.ParseListing(rawHTML, s.siteCfg.BaseURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse agent listing", err)
	}
	slog.Info("listing scraped",
		"search_label", searchLabel,
		"agents", len(agents),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return agents, nil
}

// FetchDetail loads one profile page. It returns (nil, nil) when the
// profile does not exist or renders without agent data.
func (s *Scraper) FetchDetail(ctx context.Context, id string) (*models.AgentRecord, error) {
	target := source.ProfileURL(s.siteCfg.BaseURL, id)
	req := &engine.FetchRequest{
		URL:          target,
		Timeout:      s.scraperCfg.PageTimeout,
		Stealth:      s.scraperCfg.Stealth,
		WaitSelector: profileReadySelector,
		Validate: func(r *engine.FetchResult) error {
			rec, err := extract.ParseProfile(r.HTML, target)
			if err != nil {
				return err
			}
			if rec.IsEmpty() {
				return errNoAgentData
			}
			return nil
		},
	}

	var (
		result *engine.FetchResult
		err    error
	)
	if s.dispatcher != nil {
		result, err = s.dispatcher.Dispatch(ctx, req)
		if errors.Is(err, engine.ErrNotFound) || errors.Is(err, errNoAgentData) {
			slog.Info("profile not found", "id", id, "reason", err)
			return nil, nil
		}
	} else {
		result, err = s.Render(ctx, req)
		if err == nil && result.StatusCode == http.StatusNotFound {
			return nil, nil
		}
	}
	if err != nil {
		return nil, err
	}

	rec, err := extract.ParseProfile(result.HTML, target)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse profile", err)
	}
	if rec.IsEmpty() {
		return nil, nil
	}
	slog.Debug("profile scraped", "id", id, "engine", result.EngineName)
	return &rec, nil
}

// FetchRoster opens the roster page, switches to its agent list and returns
// the identity records it shows.
func (s *Scraper) FetchRoster(ctx context.Context, baseURL string) ([]models.AgentRecord, error) {
	if baseURL == "" {
		baseURL = s.siteCfg.RosterBaseURL
	}
	target := source.RosterURL(baseURL)
	timeout := s.scraperCfg.PageTimeout + s.scraperCfg.RosterLoadTimeout + s.scraperCfg.RosterSettleDelay

	var rawHTML string
	err := s.withPage(ctx, pageOptions{url: target, stealth: s.scraperCfg.Stealth, timeout: timeout}, func(p *rod.Page) error {
		if err := navigate(p, target); err != nil {
			return err
		}
		if err := runSteps(p.GetContext(), p, []step{
			sleepStep(2 * time.Second),
			clickTextStep(rosterLinkText, rosterLinkFallback),
			waitTextGoneStep(rosterLoadingText, s.scraperCfg.RosterLoadTimeout),
			sleepStep(s.scraperCfg.RosterSettleDelay),
			waitSelectorStep(rosterCardSelector, s.scraperCfg.ListingWaitTimeout, true),
			autoScrollStep(scrollTimeout),
		}); err != nil {
			return err
		}
		var err error
		rawHTML, err = outerHTML(p)
		return err
	})
	if err != nil {
		return nil, err
	}

	agents, err := extract.ParseRoster(rawHTML)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse roster", err)
	}
	slog.Info("roster scraped", "url", target, "agents", len(agents))
	return agents, nil
}
