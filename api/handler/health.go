package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/agentscrape/models"
)

// Health returns a handler for GET /health. The payload is fixed so that
// liveness probes never depend on the browser.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy"})
	}
}

// Index returns a handler for GET / listing the available endpoints.
func Index() gin.HandlerFunc {
	resp := models.IndexResponse{
		Message: "OneReal Agent Scraper API",
		Endpoints: map[string]string{
			"/scrape-agents":               "Scrape all agents from search page",
			"/scrape-profile/{profile_id}": "Scrape specific agent profile",
			"/scrape-agents-full":          "Scrape all agents with full detailed information",
			"/scrape-agents-full-mcp":      "Scrape all agents with full detailed information (Playwright MCP)",
			"/scrape-local-agents":         "Scrape agents from the roster page",
			"/verify-agent":                "Verify agent details against website",
			"/verify-agent-mcp":            "Verify agent details against website (Playwright MCP)",
			"/health":                      "Liveness probe",
		},
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
