package models

// AgentsResponse is the batch envelope returned by the listing endpoints
// (/scrape-agents, /scrape-agents-full, /scrape-local-agents).
type AgentsResponse struct {
	// Success indicates whether the summary fetch completed.
	Success bool `json:"success"`

	// TotalAgents is len(Agents).
	TotalAgents int `json:"total_agents"`

	Agents []AgentRecord `json:"agents"`

	// Message is a human-readable summary. On partial enrichment failure it
	// reports how many profiles fell back to their summary record.
	Message string `json:"message,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// ProfileResponse is the response for GET /scrape-profile/{id}.
type ProfileResponse struct {
	Success bool         `json:"success"`
	Agent   *AgentRecord `json:"agent,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// VerifyResponse is the response for POST /verify-agent.
type VerifyResponse struct {
	Match           bool            `json:"match"`
	Message         string          `json:"message"`
	MatchedAgent    *AgentRecord    `json:"matched_agent,omitempty"`
	ProvidedDetails PartialIdentity `json:"provided_details"`
}

// ErrorResponse is the generic failure envelope used by endpoints whose
// success shape has no error slot.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// HealthResponse is the fixed liveness payload for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// IndexResponse is the response for GET /.
type IndexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}
