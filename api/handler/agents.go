package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/agentscrape/enrich"
	"github.com/use-agent/agentscrape/models"
	"github.com/use-agent/agentscrape/source"
)

// Via describes the browser transport behind a handler. Label is appended
// to success messages and is empty for the default transport.
type Via struct {
	Source source.Source
	Label  string
}

func (v Via) suffix(format string) string {
	if v.Label == "" {
		return ""
	}
	return fmt.Sprintf(format, v.Label)
}

// ScrapeAgents returns a handler for GET /scrape-agents.
//
// Summary records only; no profile pages are fetched.
func ScrapeAgents(src source.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		searchLabel := c.Query("search_label")

		agents, err := src.FetchSummaries(c.Request.Context(), searchLabel)
		if err != nil {
			respondError(c, err, "Error scraping agents")
			return
		}

		c.JSON(http.StatusOK, models.AgentsResponse{
			Success:     true,
			TotalAgents: len(agents),
			Agents:      nonNil(agents),
			Message:     fmt.Sprintf("Successfully scraped %d agents", len(agents)),
		})
	}
}

// ScrapeAgentsFull returns a handler for GET /scrape-agents-full and its
// MCP variant.
//
// Orchestration flow:
//  1. FetchSummaries → summary records; failure aborts with 500.
//  2. enrich.Enrich  → detail fetch + merge per record, 3 at a time.
//  3. Report the number of profiles that fell back to their summary.
func ScrapeAgentsFull(via Via) gin.HandlerFunc {
	return func(c *gin.Context) {
		if via.Source == nil {
			respondError(c, errTransportDisabled, "")
			return
		}
		start := time.Now()
		searchLabel := c.Query("search_label")

		// ── 1. Summaries ────────────────────────────────────────────
		summaries, err := via.Source.FetchSummaries(c.Request.Context(), searchLabel)
		if err != nil {
			prefix := "Error scraping agents with full details"
			if via.Label != "" {
				prefix = "Error scraping agents with " + via.Label
			}
			respondError(c, err, prefix)
			return
		}
		if len(summaries) == 0 {
			c.JSON(http.StatusOK, models.AgentsResponse{
				Success: true,
				Agents:  []models.AgentRecord{},
				Message: "No agents found",
			})
			return
		}

		// ── 2. Enrich ───────────────────────────────────────────────
		agents, failures := enrich.Enrich(c.Request.Context(), via.Source, summaries)

		// ── 3. Respond ──────────────────────────────────────────────
		msg := fmt.Sprintf("Successfully scraped %d agents with full details%s", len(agents), via.suffix(" using %s"))
		slog.Info("full scrape complete",
			"transport", via.Source.Name(),
			"search_label", searchLabel,
			"agents", len(agents),
			"failures", failures,
			"total_ms", time.Since(start).Milliseconds(),
		)
		c.JSON(http.StatusOK, models.AgentsResponse{
			Success:     true,
			TotalAgents: len(agents),
			Agents:      agents,
			Message:     enrich.FailureMessage(msg, failures),
		})
	}
}

// ScrapeProfile returns a handler for GET /scrape-profile/:id.
func ScrapeProfile(src source.Source) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		rec, err := src.FetchDetail(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Error scraping profile")
			return
		}
		if rec == nil {
			respondError(c, models.NewScrapeError(
				models.ErrCodeNotFound,
				fmt.Sprintf("Agent profile '%s' not found", id),
				nil,
			), "")
			return
		}

		c.JSON(http.StatusOK, models.ProfileResponse{Success: true, Agent: rec})
	}
}

// ScrapeLocalAgents returns a handler for GET /scrape-local-agents.
func ScrapeLocalAgents(src source.Source, defaultBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		baseURL := c.DefaultQuery("base_url", defaultBaseURL)

		agents, err := src.FetchRoster(c.Request.Context(), baseURL)
		if err != nil {
			respondError(c, err, "Error scraping agents")
			return
		}

		c.JSON(http.StatusOK, models.AgentsResponse{
			Success:     true,
			TotalAgents: len(agents),
			Agents:      nonNil(agents),
			Message:     fmt.Sprintf("Successfully scraped %d agents from page", len(agents)),
		})
	}
}

// nonNil makes empty results encode as [] rather than null.
func nonNil(agents []models.AgentRecord) []models.AgentRecord {
	if agents == nil {
		return []models.AgentRecord{}
	}
	return agents
}
