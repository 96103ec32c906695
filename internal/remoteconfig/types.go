package remoteconfig

import "encoding/json"

// Bundle is the versioned tool/prompt configuration served by the backend
// at /mcp/config. The payload is opaque to this package except for
// SchemaVersion, which gates acceptance.
type Bundle struct {
	SchemaVersion string             `json:"schema_version"`
	Tools         []ToolDefinition   `json:"tools"`
	Prompts       []PromptDefinition `json:"prompts"`
	Instructions  string             `json:"instructions,omitempty"`
}

// ToolDefinition describes one remotely-configured tool. The input schema
// is passed through verbatim to the protocol layer.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// PromptDefinition describes one remotely-configured prompt.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
	// Messages carries the prompt's canned conversation, when the backend
	// provides one.
	Messages []PromptMessage `json:"messages,omitempty"`
}

// PromptArgument is a named parameter a prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptMessage is one turn of a prompt's canned conversation.
type PromptMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
