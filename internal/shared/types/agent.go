package types

// AgentResult is the structured output of one agent invocation
type AgentResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Actions  []AgentAction  `json:"actions,omitempty"`
}

// AgentAction describes an action an agent requests the shell to perform
type AgentAction struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
