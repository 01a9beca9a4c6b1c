package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Site    SiteConfig
	Engine  EngineConfig
	MCP     MCPConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 6

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// UserAgent overrides the browser's user agent when non-empty.
	UserAgent string
}

// ScraperConfig controls page flows on the directory site.
type ScraperConfig struct {
	// PageTimeout bounds one page flow (navigate, wait, extract).
	PageTimeout time.Duration // default: 90s

	// ListingWaitTimeout is how long to wait for profile links to render.
	ListingWaitTimeout time.Duration // default: 30s

	// SettleDelay is the pause after navigation before extraction starts.
	SettleDelay time.Duration // default: 3s

	// RosterLoadTimeout is how long to wait for the roster's loading text
	// to disappear.
	RosterLoadTimeout time.Duration // default: 20s

	// RosterSettleDelay is the extra wait after the roster loads.
	RosterSettleDelay time.Duration // default: 15s

	// Stealth injects go-rod/stealth before every navigation.
	Stealth bool // default: true

	// BlockAds blocks requests to known ad and tracking hosts.
	BlockAds bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// SiteConfig names the pages that are scraped.
type SiteConfig struct {
	// BaseURL is the agent directory origin.
	BaseURL string // default: "https://onereal.com"

	// RosterBaseURL is the default origin of the roster page used by the
	// verify endpoints.
	RosterBaseURL string // default: "https://dreproxy.onrender.com"
}

// EngineConfig controls the multi-engine dispatcher used for profile pages.
type EngineConfig struct {
	// EnableMultiEngine toggles the multi-engine dispatcher.
	EnableMultiEngine bool // default: true

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// DomainMemoryTTL is how long a winning engine is remembered per host.
	DomainMemoryTTL time.Duration // default: 24h
}

// MCPConfig controls the Playwright MCP transport.
type MCPConfig struct {
	// Enabled toggles the *-mcp endpoints.
	Enabled bool // default: false

	// Command and Args start the MCP server over stdio.
	Command string   // default: "npx"
	Args    []string // default: ["@playwright/mcp@latest", "--headless"]

	// Env is passed to the MCP server process as KEY=VALUE pairs.
	Env []string

	// CallTimeout bounds a single tool call.
	CallTimeout time.Duration // default: 60s
}

// CacheConfig controls the profile detail cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached profiles.
	MaxEntries int // default: 1000

	// ProfileTTL is how long a fetched profile is reused. Zero disables
	// the cache.
	ProfileTTL time.Duration // default: 0
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// LoadEnvFile loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("AGENTSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("AGENTSCRAPE_PORT", 8000),
			Mode: envOr("AGENTSCRAPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("AGENTSCRAPE_HEADLESS", true),
			MaxPages:     envIntOr("AGENTSCRAPE_MAX_PAGES", 6),
			DefaultProxy: os.Getenv("AGENTSCRAPE_PROXY"),
			NoSandbox:    envBoolOr("AGENTSCRAPE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("AGENTSCRAPE_BROWSER_BIN"),
			UserAgent:    os.Getenv("AGENTSCRAPE_USER_AGENT"),
		},
		Scraper: ScraperConfig{
			PageTimeout:        envDurationOr("AGENTSCRAPE_PAGE_TIMEOUT", 90*time.Second),
			ListingWaitTimeout: envDurationOr("AGENTSCRAPE_LISTING_WAIT", 30*time.Second),
			SettleDelay:        envDurationOr("AGENTSCRAPE_SETTLE_DELAY", 3*time.Second),
			RosterLoadTimeout:  envDurationOr("AGENTSCRAPE_ROSTER_LOAD_TIMEOUT", 20*time.Second),
			RosterSettleDelay:  envDurationOr("AGENTSCRAPE_ROSTER_SETTLE_DELAY", 15*time.Second),
			Stealth:            envBoolOr("AGENTSCRAPE_STEALTH", true),
			BlockAds:           envBoolOr("AGENTSCRAPE_BLOCK_ADS", true),
			BlockedResourceTypes: envSliceOr("AGENTSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Site: SiteConfig{
			BaseURL:       strings.TrimRight(envOr("AGENTSCRAPE_SITE_URL", "https://onereal.com"), "/"),
			RosterBaseURL: strings.TrimRight(envOr("AGENTSCRAPE_ROSTER_URL", "https://dreproxy.onrender.com"), "/"),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("AGENTSCRAPE_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("AGENTSCRAPE_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("AGENTSCRAPE_HTTP_TIMEOUT", 5*time.Second),
			DomainMemoryTTL:   envDurationOr("AGENTSCRAPE_DOMAIN_MEMORY_TTL", 24*time.Hour),
		},
		MCP: MCPConfig{
			Enabled:     envBoolOr("AGENTSCRAPE_MCP_ENABLED", false),
			Command:     envOr("AGENTSCRAPE_MCP_COMMAND", "npx"),
			Args:        envFieldsOr("AGENTSCRAPE_MCP_ARGS", []string{"@playwright/mcp@latest", "--headless"}),
			Env:         envSliceOr("AGENTSCRAPE_MCP_ENV", nil),
			CallTimeout: envDurationOr("AGENTSCRAPE_MCP_CALL_TIMEOUT", 60*time.Second),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("AGENTSCRAPE_CACHE_MAX_ENTRIES", 1000),
			ProfileTTL: envDurationOr("AGENTSCRAPE_PROFILE_CACHE_TTL", 0),
		},
		Log: LogConfig{
			Level:  envOr("AGENTSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("AGENTSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envFieldsOr splits on whitespace, for command lines.
func envFieldsOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return strings.Fields(v)
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
