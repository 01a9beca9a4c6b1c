package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/agentscrape/config"
	"github.com/use-agent/agentscrape/models"
)

type fakeSource struct {
	name       string
	summaries  []models.AgentRecord
	summaryErr error
	details    map[string]*models.AgentRecord
	detailErrs map[string]error
	roster     []models.AgentRecord
	rosterErr  error

	mu          sync.Mutex
	rosterBases []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchSummaries(context.Context, string) ([]models.AgentRecord, error) {
	return f.summaries, f.summaryErr
}

func (f *fakeSource) FetchDetail(_ context.Context, id string) (*models.AgentRecord, error) {
	if err := f.detailErrs[id]; err != nil {
		return nil, err
	}
	return f.details[id], nil
}

func (f *fakeSource) FetchRoster(_ context.Context, baseURL string) ([]models.AgentRecord, error) {
	f.mu.Lock()
	f.rosterBases = append(f.rosterBases, baseURL)
	f.mu.Unlock()
	return f.roster, f.rosterErr
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Site:   config.SiteConfig{BaseURL: "https://onereal.com", RosterBaseURL: "https://roster.example.com"},
	}
}

func serve(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestHealth(t *testing.T) {
	r := NewRouter(Sources{Browser: &fakeSource{}}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "healthy"}, body)
}

func TestIndex(t *testing.T) {
	r := NewRouter(Sources{Browser: &fakeSource{}}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["endpoints"], "/verify-agent")
}

func TestScrapeAgents(t *testing.T) {
	src := &fakeSource{summaries: []models.AgentRecord{{Name: "Jane Doe"}, {Name: "Sam Lee"}}}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-agents?search_label=austin", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["total_agents"])
	assert.Equal(t, "Successfully scraped 2 agents", body["message"])
}

func TestScrapeAgentsFull_PartialFailure(t *testing.T) {
	src := &fakeSource{
		summaries: []models.AgentRecord{
			{Name: "Jane", ProfileURL: "https://onereal.com/profile/jane"},
			{Name: "Sam", ProfileURL: "https://onereal.com/profile/sam"},
			{Name: "No Link"},
		},
		details: map[string]*models.AgentRecord{
			"jane": {Name: "Jane Doe", Email: "jane@example.com", ProfileURL: "https://elsewhere/jane"},
		},
		detailErrs: map[string]error{"sam": errors.New("timeout")},
	}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-agents-full", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["total_agents"])
	assert.Equal(t, "Successfully scraped 3 agents with full details (1 profiles failed to load details)", body["message"])

	agents := body["agents"].([]any)
	jane := agents[0].(map[string]any)
	assert.Equal(t, "Jane Doe", jane["name"])
	assert.Equal(t, "https://onereal.com/profile/jane", jane["profile_url"])
	assert.Equal(t, map[string]any{"name": "Sam", "profile_url": "https://onereal.com/profile/sam"}, agents[1])
	assert.Equal(t, map[string]any{"name": "No Link"}, agents[2])
}

func TestScrapeAgentsFull_NoAgents(t *testing.T) {
	r := NewRouter(Sources{Browser: &fakeSource{}}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-agents-full", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body["total_agents"])
	assert.Equal(t, []any{}, body["agents"])
	assert.Equal(t, "No agents found", body["message"])
}

func TestScrapeAgentsFull_SummaryFailure(t *testing.T) {
	src := &fakeSource{summaryErr: models.NewScrapeError(models.ErrCodeTimeout, "listing timed out", nil)}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-agents-full", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, models.ErrCodeTimeout, errBody["code"])
	assert.Equal(t, "Error scraping agents with full details: listing timed out", errBody["message"])
}

func TestScrapeAgentsFullMCP(t *testing.T) {
	mcpSrc := &fakeSource{name: "playwright-mcp", summaries: []models.AgentRecord{{Name: "Jane"}}}

	disabled := NewRouter(Sources{Browser: &fakeSource{}}, testConfig())
	w, body := serve(t, disabled, http.MethodGet, "/scrape-agents-full-mcp", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, models.ErrCodeTransportUnavailable, body["error"].(map[string]any)["code"])

	enabled := NewRouter(Sources{Browser: &fakeSource{}, MCP: mcpSrc}, testConfig())
	w, body = serve(t, enabled, http.MethodGet, "/scrape-agents-full-mcp", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully scraped 1 agents with full details using Playwright MCP", body["message"])
}

func TestScrapeProfile(t *testing.T) {
	src := &fakeSource{
		details:    map[string]*models.AgentRecord{"jane": {Name: "Jane Doe"}},
		detailErrs: map[string]error{"broken": errors.New("browser crashed")},
	}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-profile/jane", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane Doe", body["agent"].(map[string]any)["name"])

	w, body = serve(t, r, http.MethodGet, "/scrape-profile/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Agent profile 'ghost' not found", body["error"].(map[string]any)["message"])

	w, _ = serve(t, r, http.MethodGet, "/scrape-profile/broken", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestScrapeLocalAgents(t *testing.T) {
	src := &fakeSource{roster: []models.AgentRecord{{Name: "Jane"}}}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodGet, "/scrape-local-agents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Successfully scraped 1 agents from page", body["message"])

	serve(t, r, http.MethodGet, "/scrape-local-agents?base_url=http://localhost:9000", "")
	assert.Equal(t, []string{"https://roster.example.com", "http://localhost:9000"}, src.rosterBases)
}

func TestVerifyAgent(t *testing.T) {
	src := &fakeSource{roster: []models.AgentRecord{
		{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-123-4567"},
		{Name: "Sam Lee", Email: "sam@example.com"},
	}}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodPost, "/verify-agent", `{"name":" JANE DOE ","phone":"(555) 123-4567"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["match"])
	assert.Equal(t, "Agent details match found on website", body["message"])
	assert.Equal(t, "jane@example.com", body["matched_agent"].(map[string]any)["email"])
	assert.Equal(t, " JANE DOE ", body["provided_details"].(map[string]any)["name"])

	w, body = serve(t, r, http.MethodPost, "/verify-agent", `{"name":"Jane Doe","email":"sam@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["match"])
	assert.Equal(t, "Agent details not found on website", body["message"])
	assert.NotContains(t, body, "matched_agent")
}

func TestVerifyAgent_EmptyIdentity(t *testing.T) {
	src := &fakeSource{}
	r := NewRouter(Sources{Browser: src}, testConfig())

	w, body := serve(t, r, http.MethodPost, "/verify-agent", `{"name":"","email":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeInvalidInput, body["error"].(map[string]any)["code"])
	assert.Empty(t, src.rosterBases, "validation happens before any fetch")

	w, _ = serve(t, r, http.MethodPost, "/verify-agent", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyAgentMCP(t *testing.T) {
	mcpSrc := &fakeSource{roster: []models.AgentRecord{{Name: "Jane Doe"}}}
	r := NewRouter(Sources{Browser: &fakeSource{}, MCP: mcpSrc}, testConfig())

	w, body := serve(t, r, http.MethodPost, "/verify-agent-mcp?base_url=http://localhost:9000", `{"name":"jane doe"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Agent details match found on website (via Playwright MCP)", body["message"])
	assert.Equal(t, []string{"http://localhost:9000"}, mcpSrc.rosterBases)

	disabled := NewRouter(Sources{Browser: &fakeSource{}}, testConfig())
	w, _ = serve(t, disabled, http.MethodPost, "/verify-agent-mcp", `{"name":"jane doe"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
