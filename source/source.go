// Package source defines the collaborator interface that browser transports
// implement, plus decorators layered on top of it.
package source

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/agentscrape/cache"
	"github.com/use-agent/agentscrape/models"
)

// Source fetches agent data from the directory site. Both the rod scraper
// and the Playwright MCP driver implement it.
type Source interface {
	// Name identifies the transport in logs and cache keys.
	Name() string

	// FetchSummaries returns the summary records listed for searchLabel.
	FetchSummaries(ctx context.Context, searchLabel string) ([]models.AgentRecord, error)

	// FetchDetail returns the full record for a profile id, or nil when the
	// profile does not exist.
	FetchDetail(ctx context.Context, id string) (*models.AgentRecord, error)

	// FetchRoster returns the identity records from the roster page under
	// baseURL.
	FetchRoster(ctx context.Context, baseURL string) ([]models.AgentRecord, error)
}

// SearchURL returns the listing URL for searchLabel under base.
func SearchURL(base, searchLabel string) string {
	return base + "/search-agent?search_label=" + url.QueryEscape(searchLabel)
}

// ProfileURL returns the profile page URL for id under base.
func ProfileURL(base, id string) string {
	return base + "/profile/" + url.PathEscape(id)
}

// RosterURL returns the roster page URL under base.
func RosterURL(base string) string {
	return base + "/static/index.html"
}

// Cached wraps a Source so that successful detail fetches are served from c
// until they expire. Summary and roster fetches always hit the transport.
type Cached struct {
	Source
	cache *cache.Cache
}

// WithCache returns src unchanged when c is nil.
func WithCache(src Source, c *cache.Cache) Source {
	if c == nil {
		return src
	}
	return &Cached{Source: src, cache: c}
}

// FetchDetail implements Source.
func (s *Cached) FetchDetail(ctx context.Context, id string) (*models.AgentRecord, error) {
	key := cache.Key(s.Name(), id)
	if rec, ok := s.cache.Get(key); ok {
		slog.Debug("profile cache hit", "source", s.Name(), "id", id)
		return rec, nil
	}

	start := time.Now()
	rec, err := s.Source.FetchDetail(ctx, id)
	if err != nil || rec == nil || rec.IsEmpty() {
		return rec, err
	}
	s.cache.Set(key, *rec)
	slog.Debug("profile cached", "source", s.Name(), "id", id, "fetch_ms", time.Since(start).Milliseconds())
	return rec, nil
}
