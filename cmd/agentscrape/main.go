package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/agentscrape/api"
	"github.com/use-agent/agentscrape/cache"
	"github.com/use-agent/agentscrape/config"
	"github.com/use-agent/agentscrape/engine"
	"github.com/use-agent/agentscrape/mcpdriver"
	"github.com/use-agent/agentscrape/scraper"
	"github.com/use-agent/agentscrape/source"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("agentscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"site", cfg.Site.BaseURL,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Site)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 3b. Multi-engine dispatcher for profile pages ───────────────
	if cfg.Engine.EnableMultiEngine {
		// sc.Render bypasses the dispatcher; engine/ never imports scraper/.
		engines := []engine.Engine{
			engine.NewHTTPEngine(cfg.Engine.HTTPTimeout, cfg.Browser.UserAgent),
			engine.NewRodEngine(sc.Render, false),
			engine.NewRodEngine(sc.Render, true),
		}
		memory := engine.NewDomainMemory(cfg.Engine.DomainMemoryTTL)
		defer memory.Stop()

		sc.SetDispatcher(engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory))
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
	}

	// ── 4. Profile cache ────────────────────────────────────────────
	var profiles *cache.Cache
	if cfg.Cache.ProfileTTL > 0 {
		profiles = cache.New(cfg.Cache.MaxEntries, cfg.Cache.ProfileTTL)
		defer profiles.Close()
		slog.Info("profile cache enabled", "ttl", cfg.Cache.ProfileTTL, "maxEntries", cfg.Cache.MaxEntries)
	}
	sources := api.Sources{Browser: source.WithCache(sc, profiles)}

	// ── 4b. Playwright MCP transport ────────────────────────────────
	if cfg.MCP.Enabled {
		driver := mcpdriver.New(
			mcpdriver.StdioConnector(cfg.MCP),
			cfg.Site,
			mcpdriver.WaitsFromConfig(cfg.Scraper),
			cfg.MCP.CallTimeout,
		)
		sources.MCP = source.WithCache(driver, profiles)
		slog.Info("playwright MCP transport enabled", "command", cfg.MCP.Command, "args", cfg.MCP.Args)
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(sources, cfg)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	stats := sc.Stats()
	slog.Info("shutdown signal received",
		"signal", sig.String(),
		"activePages", stats.ActivePages,
		"maxPages", stats.MaxPages,
	)

	// Full scrapes take minutes; give in-flight requests a while to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close() runs via defer: drains page pool and kills Chrome.
	slog.Info("agentscrape stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
