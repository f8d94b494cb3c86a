package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xiaot623/gogo/outreach/internal/prompt"
)

// ProviderMock names the offline mock in provenance records.
const ProviderMock = "mock"

var cadencePattern = regexp.MustCompile(`For N=(\d+) the cadence is`)

// MockClient is a deterministic offline implementation of LLMClient.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Provider implements LLMClient.
func (m *MockClient) Provider() string {
	return ProviderMock
}

// CreateChatCompletion returns a profile summary for plain requests and a valid
// sequence following prompt.Cadence for json_schema requests.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var responseContent string
	if _, _, ok := responseSchema(req.ResponseFormat); ok {
		content, err := m.generateSequence(req)
		if err != nil {
			return nil, err
		}
		responseContent = content
	} else {
		responseContent = m.generateAnalysis(req)
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: responseContent,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(responseContent) / 4,
			TotalTokens:      m.estimateTokens(req) + len(responseContent)/4,
		},
	}, nil
}

func (m *MockClient) generateAnalysis(req *ChatCompletionRequest) string {
	user := lastUserMessage(req)
	if user == "" {
		return "[MOCK] No profile data was provided."
	}
	return fmt.Sprintf("[MOCK] Profile summary based on %d characters of profile data. "+
		"Likely priorities: team efficiency and reliable delivery. Suggested angle: concrete, low-effort next step.", len(user))
}

func (m *MockClient) generateSequence(req *ChatCompletionRequest) (string, error) {
	n := 3
	if match := cadencePattern.FindStringSubmatch(lastUserMessage(req)); match != nil {
		if v, err := strconv.Atoi(match[1]); err == nil {
			n = v
		}
	}
	days, err := prompt.Cadence(n)
	if err != nil {
		return "", fmt.Errorf("mock cadence: %w", err)
	}

	type message struct {
		Step       int     `json:"step"`
		Content    string  `json:"msg_content"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
		DelayDays  int     `json:"delay_days"`
	}
	out := struct {
		SequenceLength int       `json:"sequence_length"`
		Messages       []message `json:"messages"`
	}{SequenceLength: n}

	for i, day := range days {
		step := i + 1
		content, rationale := "[MOCK] Quick follow-up with one concrete idea for your team.", "Follow-up adding a new angle."
		switch {
		case step == 1:
			content, rationale = "[MOCK] Hi, noticed your work on platform reliability and wanted to share a short idea.", "Opener referencing the profile."
		case step == n && n > 1:
			content, rationale = "[MOCK] I will close the loop here. Happy to reconnect whenever timing is better.", "Polite breakup message."
		}
		out.Messages = append(out.Messages, message{
			Step:       step,
			Content:    content,
			Confidence: 50,
			Rationale:  rationale,
			DelayDays:  day,
		})
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal mock sequence: %w", err)
	}
	return string(b), nil
}

func lastUserMessage(req *ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}
