// Package mcpdriver drives the directory site through a Playwright MCP
// server. It is an alternative transport to the rod scraper and
// implements source.Source.
package mcpdriver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/use-agent/agentscrape/config"
	"github.com/use-agent/agentscrape/extract"
	"github.com/use-agent/agentscrape/models"
	"github.com/use-agent/agentscrape/source"
)

const clientVersion = "1.0.0"

// Connector opens a started MCP client. Each page flow gets its own
// connection because a Playwright MCP server drives a single tab.
type Connector func(ctx context.Context) (client.MCPClient, error)

// StdioConnector launches the configured MCP server command per session.
func StdioConnector(cfg config.MCPConfig) Connector {
	return func(context.Context) (client.MCPClient, error) {
		c, err := client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("mcp: start %s: %w", cfg.Command, err)
		}
		return c, nil
	}
}

// Waits holds the pauses of each page flow.
type Waits struct {
	Settle       time.Duration // after navigation
	RosterClick  time.Duration // before looking for the roster link
	RosterSettle time.Duration // after the roster finished loading
}

// WaitsFromConfig derives the page flow pauses from the scraper settings.
func WaitsFromConfig(cfg config.ScraperConfig) Waits {
	return Waits{
		Settle:       cfg.SettleDelay,
		RosterClick:  2 * time.Second,
		RosterSettle: cfg.RosterSettleDelay,
	}
}

// Driver implements source.Source over MCP browser tools.
type Driver struct {
	connect     Connector
	site        config.SiteConfig
	waits       Waits
	callTimeout time.Duration
}

// New creates a Driver.
func New(connect Connector, site config.SiteConfig, waits Waits, callTimeout time.Duration) *Driver {
	return &Driver{
		connect:     connect,
		site:        site,
		waits:       waits,
		callTimeout: callTimeout,
	}
}

// Name identifies this transport.
func (d *Driver) Name() string { return "playwright-mcp" }

// withSession opens and initializes a connection, runs fn and closes it.
func (d *Driver) withSession(ctx context.Context, fn func(s *session) error) error {
	c, err := d.connect(ctx)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeTransportUnavailable, "failed to connect to MCP server", err)
	}
	s := &session{c: c, callTimeout: d.callTimeout}
	defer s.close()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "agentscrape", Version: clientVersion}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return models.NewScrapeError(models.ErrCodeTransportUnavailable, "MCP initialize failed", err)
	}
	return fn(s)
}

// snapshot is what snapshotJS returns.
type snapshot struct {
	Status int    `json:"status"`
	HTML   string `json:"html"`
}

const snapshotJS = `() => {
	let status = 0;
	try {
		const nav = performance.getEntriesByType("navigation");
		if (nav.length > 0) status = nav[0].responseStatus || 0;
	} catch (e) {}
	return { status, html: document.documentElement.outerHTML };
}`

const waitProfileLinksJS = `async () => {
	const deadline = Date.now() + 10000;
	while (Date.now() < deadline) {
		if (document.querySelectorAll('a[href*="/profile/"]').length > 0) return true;
		await new Promise((r) => setTimeout(r, 200));
	}
	return false;
}`

const autoScrollJS = `async () => {
	await new Promise((resolve) => {
		let total = 0;
		const timer = setInterval(() => {
			window.scrollBy(0, 400);
			total += 400;
			if (total >= document.body.scrollHeight) {
				clearInterval(timer);
				resolve();
			}
		}, 100);
	});
	return true;
}`

const clickRosterLinkJS = `() => {
	const el = Array.from(document.querySelectorAll('a, button, div'))
		.find((e) => e.innerText && e.innerText.includes('Agent List'));
	if (!el) return false;
	el.click();
	return true;
}`

// load navigates to url, runs the optional steps and returns the page
// snapshot. Step failures are logged and skipped.
func (d *Driver) load(ctx context.Context, s *session, url string, steps ...func() error) (snapshot, error) {
	var snap snapshot
	if err := s.navigate(ctx, url); err != nil {
		return snap, models.NewScrapeError(models.ErrCodeNavigation, "navigation to "+url+" failed", err)
	}
	for _, run := range steps {
		if err := run(); err != nil {
			slog.Debug("mcp page step failed, continuing", "url", url, "error", err)
		}
	}
	if err := s.evaluate(ctx, snapshotJS, &snap); err != nil {
		return snap, models.NewScrapeError(models.ErrCodeExtraction, "failed to read page HTML", err)
	}
	return snap, nil
}

// FetchSummaries implements source.Source.
func (d *Driver) FetchSummaries(ctx context.Context, searchLabel string) ([]models.AgentRecord, error) {
	target := source.SearchURL(d.site.BaseURL, searchLabel)

	var agents []models.AgentRecord
	err := d.withSession(ctx, func(s *session) error {
		snap, err := d.load(ctx, s, target,
			func() error { return s.sleep(ctx, d.waits.Settle) },
			func() error { return s.evaluate(ctx, waitProfileLinksJS, nil) },
			func() error { return s.evaluate(ctx, autoScrollJS, nil) },
		)
		if err != nil {
			return err
		}
		agents, err = extract.ParseListing(snap.HTML, d.site.BaseURL)
		if err != nil {
			return models.NewScrapeError(models.ErrCodeExtraction, "failed to parse agent listing", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("listing scraped via MCP", "search_label", searchLabel, "agents", len(agents))
	return agents, nil
}

// FetchDetail implements source.Source.
func (d *Driver) FetchDetail(ctx context.Context, id string) (*models.AgentRecord, error) {
	target := source.ProfileURL(d.site.BaseURL, id)

	var rec *models.AgentRecord
	err := d.withSession(ctx, func(s *session) error {
		snap, err := d.load(ctx, s, target,
			func() error { return s.sleep(ctx, d.waits.Settle) },
		)
		if err != nil {
			return err
		}
		if snap.Status == http.StatusNotFound {
			return nil
		}
		parsed, err := extract.ParseProfile(snap.HTML, target)
		if err != nil {
			return models.NewScrapeError(models.ErrCodeExtraction, "failed to parse profile", err)
		}
		if !parsed.IsEmpty() {
			rec = &parsed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FetchRoster implements source.Source.
func (d *Driver) FetchRoster(ctx context.Context, baseURL string) ([]models.AgentRecord, error) {
	if baseURL == "" {
		baseURL = d.site.RosterBaseURL
	}
	target := source.RosterURL(baseURL)

	var agents []models.AgentRecord
	err := d.withSession(ctx, func(s *session) error {
		snap, err := d.load(ctx, s, target,
			func() error { return s.sleep(ctx, d.waits.RosterClick) },
			func() error {
				var clicked bool
				if err := s.evaluate(ctx, clickRosterLinkJS, &clicked); err != nil {
					return err
				}
				if !clicked {
					return fmt.Errorf("roster link not found")
				}
				return nil
			},
			func() error { return s.waitTextGone(ctx, "Loading agents...") },
			func() error { return s.sleep(ctx, d.waits.RosterSettle) },
			func() error { return s.evaluate(ctx, autoScrollJS, nil) },
		)
		if err != nil {
			return err
		}
		agents, err = extract.ParseRoster(snap.HTML)
		if err != nil {
			return models.NewScrapeError(models.ErrCodeExtraction, "failed to parse roster", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("roster scraped via MCP", "url", target, "agents", len(agents))
	return agents, nil
}
