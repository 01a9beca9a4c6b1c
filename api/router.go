package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/agentscrape/api/handler"
	"github.com/use-agent/agentscrape/config"
	"github.com/use-agent/agentscrape/source"
)

// Sources are the browser transports behind the routes. MCP is nil when the
// Playwright MCP transport is disabled; its routes then answer 503.
type Sources struct {
	Browser source.Source
	MCP     source.Source
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
func NewRouter(src Sources, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	browser := handler.Via{Source: src.Browser}
	mcp := handler.Via{Source: src.MCP, Label: "Playwright MCP"}
	roster := cfg.Site.RosterBaseURL

	r.GET("/", handler.Index())
	r.GET("/health", handler.Health())

	// Directory listing and profiles
	r.GET("/scrape-agents", handler.ScrapeAgents(src.Browser))
	r.GET("/scrape-agents-full", handler.ScrapeAgentsFull(browser))
	r.GET("/scrape-agents-full-mcp", handler.ScrapeAgentsFull(mcp))
	r.GET("/scrape-profile/:id", handler.ScrapeProfile(src.Browser))

	// Roster and verification
	r.GET("/scrape-local-agents", handler.ScrapeLocalAgents(src.Browser, roster))
	r.POST("/verify-agent", handler.VerifyAgent(browser, roster))
	r.POST("/verify-agent-mcp", handler.VerifyAgent(mcp, roster))

	return r
}
