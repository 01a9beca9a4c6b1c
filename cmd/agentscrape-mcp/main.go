package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/agentscrape/config"
	"github.com/use-agent/agentscrape/models"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	apiURL := strings.TrimRight(os.Getenv("AGENTSCRAPE_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}

	if err := server.ServeStdio(newServer(apiURL)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newServer registers the agent directory tools, each backed by the
// agentscrape HTTP API at apiURL.
func newServer(apiURL string) *server.MCPServer {
	s := server.NewMCPServer(
		"agentscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("scrape_agents",
		mcp.WithDescription("List real estate agents from the onereal.com directory search page (name, photo, location and profile URL only)."),
		mcp.WithString("search_label",
			mcp.Description("Optional search text, e.g. a city or an agent name"),
		),
	), handleScrapeAgents(apiURL, "/scrape-agents"))

	s.AddTool(mcp.NewTool("scrape_agents_full",
		mcp.WithDescription("List agents from the directory search page and load every agent's profile for contact details, license, bio and specialties. Slow: profiles are fetched three at a time."),
		mcp.WithString("search_label",
			mcp.Description("Optional search text, e.g. a city or an agent name"),
		),
	), handleScrapeAgents(apiURL, "/scrape-agents-full"))

	s.AddTool(mcp.NewTool("scrape_profile",
		mcp.WithDescription("Load one agent profile by its identifier (the path segment after /profile/ in a profile URL)."),
		mcp.WithString("profile_id",
			mcp.Required(),
			mcp.Description("Profile identifier, e.g. 'janedoe'"),
		),
	), handleScrapeProfile(apiURL))

	s.AddTool(mcp.NewTool("verify_agent",
		mcp.WithDescription("Check whether an agent with the given details appears on the roster page. Every supplied field must match the same agent; at least one field is required."),
		mcp.WithString("name", mcp.Description("Agent full name")),
		mcp.WithString("email", mcp.Description("Agent email address")),
		mcp.WithString("phone", mcp.Description("Agent phone number, any formatting")),
		mcp.WithString("license", mcp.Description("Agent license number")),
		mcp.WithString("base_url", mcp.Description("Roster site origin (default: server setting)")),
	), handleVerifyAgent(apiURL))

	return s
}

// apiDo sends a request to the agentscrape API and returns the status code
// and response body.
func apiDo(ctx context.Context, client *http.Client, method, target string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// apiError renders a failed API response as a tool error.
func apiError(status int, body []byte) *mcp.CallToolResult {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", e.Error.Code, e.Error.Message))
	}
	return mcp.NewToolResultError(fmt.Sprintf("API returned status %d", status))
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func handleScrapeAgents(apiURL, path string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := apiURL + path + "?search_label=" + url.QueryEscape(request.GetString("search_label", ""))

		status, body, err := apiDo(ctx, client, http.MethodGet, target, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return apiError(status, body), nil
		}

		var resp models.AgentsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		result := fmt.Sprintf("%s\nTotal agents: %d\n\n%s", resp.Message, resp.TotalAgents, prettyJSON(resp.Agents))
		return mcp.NewToolResultText(result), nil
	}
}

func handleScrapeProfile(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("profile_id")
		if err != nil || strings.TrimSpace(id) == "" {
			return mcp.NewToolResultError("profile_id is required"), nil
		}

		status, body, err := apiDo(ctx, client, http.MethodGet, apiURL+"/scrape-profile/"+url.PathEscape(id), nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return apiError(status, body), nil
		}

		var resp models.ProfileResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		return mcp.NewToolResultText(prettyJSON(resp.Agent)), nil
	}
}

func handleVerifyAgent(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := models.PartialIdentity{
			Name:    request.GetString("name", ""),
			Email:   request.GetString("email", ""),
			Phone:   request.GetString("phone", ""),
			License: request.GetString("license", ""),
		}
		if query.IsZero() {
			return mcp.NewToolResultError("at least one of name, email, phone or license is required"), nil
		}

		target := apiURL + "/verify-agent"
		if base := request.GetString("base_url", ""); base != "" {
			target += "?base_url=" + url.QueryEscape(base)
		}

		status, body, err := apiDo(ctx, client, http.MethodPost, target, query)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if status != http.StatusOK {
			return apiError(status, body), nil
		}

		var resp models.VerifyResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		result := fmt.Sprintf("Match: %t\n%s", resp.Match, resp.Message)
		if resp.MatchedAgent != nil {
			result += "\n\n" + prettyJSON(resp.MatchedAgent)
		}
		return mcp.NewToolResultText(result), nil
	}
}
