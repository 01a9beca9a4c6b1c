package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/agentscrape/match"
	"github.com/use-agent/agentscrape/models"
)

// VerifyAgent returns a handler for POST /verify-agent and its MCP variant.
//
// The identity in the body is checked against every record on the roster
// page at ?base_url (default defaultBaseURL). All supplied fields must match
// one record.
func VerifyAgent(via Via, defaultBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.PartialIdentity
		if err := c.ShouldBindJSON(&query); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request body", err), "")
			return
		}
		if query.IsZero() {
			respondError(c, models.NewScrapeError(
				models.ErrCodeInvalidInput,
				"At least one field (name, email, phone, or license) must be provided",
				nil,
			), "")
			return
		}
		if via.Source == nil {
			respondError(c, errTransportDisabled, "")
			return
		}

		baseURL := c.DefaultQuery("base_url", defaultBaseURL)
		candidates, err := via.Source.FetchRoster(c.Request.Context(), baseURL)
		if err != nil {
			prefix := "Error verifying agent"
			if via.Label != "" {
				prefix += " with " + via.Label
			}
			respondError(c, err, prefix)
			return
		}

		resp := models.VerifyResponse{ProvidedDetails: query}
		if rec, ok := match.FindMatch(query, candidates); ok {
			resp.Match = true
			resp.MatchedAgent = &rec
			resp.Message = "Agent details match found on website" + via.suffix(" (via %s)")
		} else {
			resp.Message = "Agent details not found on website" + via.suffix(" (via %s)")
		}
		c.JSON(http.StatusOK, resp)
	}
}
