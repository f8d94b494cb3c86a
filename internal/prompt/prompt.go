// Package prompt builds the model prompts for profile analysis and sequence generation.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Roles used in the system + user message pair.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt is a system + user message pair with an optional structured-output schema.
type Prompt struct {
	System         string
	User           string
	SchemaName     string
	ResponseSchema map[string]any
}

// Messages returns the role pair in send order.
func (p Prompt) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}

// Transcript is the exact prompt document persisted with a generation record.
func (p Prompt) Transcript() (json.RawMessage, error) {
	doc := struct {
		Messages       []Message      `json:"messages"`
		SchemaName     string         `json:"schema_name,omitempty"`
		ResponseSchema map[string]any `json:"response_schema,omitempty"`
	}{
		Messages:       p.Messages(),
		SchemaName:     p.SchemaName,
		ResponseSchema: p.ResponseSchema,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompt transcript: %w", err)
	}
	return b, nil
}

// indentJSON pretty-prints a JSON document without altering its content.
// Invalid JSON is embedded as-is.
func indentJSON(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
