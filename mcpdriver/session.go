package mcpdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Playwright MCP tool names.
const (
	toolNavigate = "browser_navigate"
	toolWaitFor  = "browser_wait_for"
	toolEvaluate = "browser_evaluate"
	toolClose    = "browser_close"
)

// resultHeader opens the section of a tool response that carries the
// evaluated value. Everything after the next "###" heading is commentary.
const resultHeader = "### Result"

// closeTimeout bounds session teardown, independent of the caller's context
// and of the per-call timeout.
var closeTimeout = 5 * time.Second

// session is one initialized MCP connection driving a single browser tab.
type session struct {
	c           client.MCPClient
	callTimeout time.Duration
}

func (s *session) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	res, err := s.c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mcp: %s: %w", tool, err)
	}
	text := joinText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("mcp: %s: tool error: %s", tool, strings.TrimSpace(text))
	}
	return text, nil
}

func (s *session) navigate(ctx context.Context, url string) error {
	_, err := s.call(ctx, toolNavigate, map[string]any{"url": url})
	return err
}

// sleep waits d inside the browser. Zero is a no-op.
func (s *session) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := s.call(ctx, toolWaitFor, map[string]any{"time": d.Seconds()})
	return err
}

func (s *session) waitTextGone(ctx context.Context, text string) error {
	_, err := s.call(ctx, toolWaitFor, map[string]any{"textGone": text})
	return err
}

// evaluate runs fn in the page and decodes its JSON result into out.
func (s *session) evaluate(ctx context.Context, fn string, out any) error {
	text, err := s.call(ctx, toolEvaluate, map[string]any{"function": fn})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(evaluatedValue(text)), out); err != nil {
		return fmt.Errorf("mcp: %s: decode result: %w", toolEvaluate, err)
	}
	return nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_, _ = s.call(ctx, toolClose, nil)
	_ = s.c.Close()
}

// joinText concatenates the text parts of a tool result.
func joinText(content []mcp.Content) string {
	var b strings.Builder
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// evaluatedValue extracts the JSON value from a browser_evaluate response.
// Newer servers wrap it in a markdown "### Result" section; older ones
// return the bare value.
func evaluatedValue(text string) string {
	idx := strings.Index(text, resultHeader)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	body := text[idx+len(resultHeader):]
	if end := strings.Index(body, "\n###"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
