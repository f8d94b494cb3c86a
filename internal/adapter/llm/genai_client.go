package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	"google.golang.org/genai"
)

// ProviderGemini names the Gemini backend in provenance records.
const ProviderGemini = "gemini"

// GenAIClient adapts the Gemini API to LLMClient.
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient creates a Gemini client. baseURL may be empty to use the public endpoint.
func NewGenAIClient(ctx context.Context, baseURL, apiKey string, timeout time.Duration) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// Provider implements LLMClient.
func (c *GenAIClient) Provider() string {
	return ProviderGemini
}

// CreateChatCompletion maps the system message to a system instruction and the
// remaining messages to user content.
func (c *GenAIClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	config := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			config.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("request has no user content")
	}

	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}
	if req.MaxTokens != nil {
		config.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if _, schema, ok := responseSchema(req.ResponseFormat); ok {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGenAISchema(schema)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: GenAI request failed: %w", domain.ErrUpstreamUnavailable, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: GenAI response has no candidates", domain.ErrUpstreamMalformed)
	}

	out := &ChatCompletionResponse{
		ID:      resp.ResponseID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      &ChatMessage{Role: "assistant", Content: resp.Text()},
			FinishReason: strings.ToLower(string(resp.Candidates[0].FinishReason)),
		}},
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// toGenAISchema converts the JSON-schema subset used by the prompts into a genai.Schema.
// additionalProperties has no equivalent and is dropped.
func toGenAISchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "array":
		s.Type = genai.TypeArray
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = toGenAISchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toGenAISchema(items)
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = append([]string(nil), req...)
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}
