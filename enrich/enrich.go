// Package enrich turns summary records from a listing page into full records
// by fetching each agent's profile page with bounded parallelism.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync/atomic"

	"github.com/use-agent/agentscrape/models"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrentFetches caps the number of detail fetches in flight for one
// Enrich call. Each fetch holds a browser tab, and the directory site starts
// throttling above this.
const MaxConcurrentFetches = 3

// DetailFetcher loads the full record for one profile identifier. A nil
// record with a nil error means the profile was not found.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (*models.AgentRecord, error)
}

var profileIDPattern = regexp.MustCompile(`/profile/([^/?]+)`)

// ProfileID extracts the identifier from a profile URL. The identifier is the
// path segment after "/profile/", ending at the next "/" or "?".
func ProfileID(profileURL string) (string, bool) {
	m := profileIDPattern.FindStringSubmatch(profileURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Enrich fetches a detail record for every summary whose profile URL carries
// an identifier and merges it over the summary.
//
// The result has one entry per summary, in input order. A summary without an
// identifier passes through unchanged and is not counted as a failure. A
// fetch that errors, panics or returns nothing leaves the summary unchanged and
// increments failures. Enrich itself never fails.
func Enrich(ctx context.Context, fetcher DetailFetcher, summaries []models.AgentRecord) ([]models.AgentRecord, int) {
	merged := make([]models.AgentRecord, len(summaries))
	var failures atomic.Int32

	var g errgroup.Group
	g.SetLimit(MaxConcurrentFetches)

	for i, summary := range summaries {
		id, ok := ProfileID(summary.ProfileURL)
		if !ok {
			slog.Info("no profile id in summary, skipping detail fetch",
				"name", summary.Name,
				"profile_url", summary.ProfileURL,
			)
			merged[i] = summary
			continue
		}

		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("detail fetch panicked", "id", id, "panic", r)
					failures.Add(1)
					merged[i] = summary
				}
			}()

			detail, err := fetcher.FetchDetail(ctx, id)
			switch {
			case err != nil:
				slog.Warn("detail fetch failed", "id", id, "error", err)
			case detail == nil || detail.IsEmpty():
				slog.Warn("detail fetch returned no data", "id", id)
			default:
				merged[i] = Merge(summary, *detail)
				return nil
			}
			failures.Add(1)
			merged[i] = summary
			return nil
		})
	}

	_ = g.Wait()

	slog.Info("enrichment finished",
		"total", len(summaries),
		"failed", failures.Load(),
	)
	return merged, int(failures.Load())
}

// Merge combines a summary and a detail record field by field. A non-empty
// detail value wins; otherwise the summary value is kept. ProfileURL always
// comes from the summary.
func Merge(summary, detail models.AgentRecord) models.AgentRecord {
	return models.AgentRecord{
		Name:    pick(detail.Name, summary.Name),
		Email:   pick(detail.Email, summary.Email),
		Phone:   pick(detail.Phone, summary.Phone),
		License: pick(detail.License, summary.License),

		Location:        pick(detail.Location, summary.Location),
		Bio:             pick(detail.Bio, summary.Bio),
		YearsExperience: pick(detail.YearsExperience, summary.YearsExperience),
		Office:          pick(detail.Office, summary.Office),
		ImageURL:        pick(detail.ImageURL, summary.ImageURL),

		Specialties: pickList(detail.Specialties, summary.Specialties),
		Languages:   pickList(detail.Languages, summary.Languages),

		ProfileURL: summary.ProfileURL,
		Website:    pick(detail.Website, summary.Website),
		Facebook:   pick(detail.Facebook, summary.Facebook),
		Instagram:  pick(detail.Instagram, summary.Instagram),
	}
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

func pickList(preferred, fallback []string) []string {
	if len(preferred) > 0 {
		return preferred
	}
	return fallback
}

// FailureMessage appends the partial-failure note used by the batch
// endpoints to msg. It returns msg unchanged when failures is zero.
func FailureMessage(msg string, failures int) string {
	if failures == 0 {
		return msg
	}
	return fmt.Sprintf("%s (%d profiles failed to load details)", msg, failures)
}
