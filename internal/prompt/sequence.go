package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/tone"
)

// SequenceSchemaName names the structured-output constraint sent to the model.
const SequenceSchemaName = "message_sequence"

// Message limits stated in the prompt.
const MaxMessageChars = 400

const sequenceSystem = "You are an expert outbound sales copywriter. You write short, specific LinkedIn messages and you always answer with strictly valid JSON."

// CadenceContract is reproduced verbatim in every sequence prompt; the model computes delay_days from it.
const CadenceContract = `SEQUENCE STRUCTURE (let N be the sequence length):
- Step 1 (Day 0): COLLECT request note (no pitch, no links)
- Steps 2...(N-1): FOLLOW UP messages that each introduce exactly ONE new angle, chosen from: pain, insight, proof, question, objection-handling, offer-resource
- Step N: BREAKUP message (polite close)

CADENCE RULES:
- Include "delay_days" for each step.
- Use this default cadence as a baseline: [0, 2, 5, 9, 14].
- If N < 5, take the first (N-1) offsets from [0, 2, 5, 9] and always end with the breakup at day 14 (or the last available offset if you must).
- If N > 5, keep Day 0 and Day 14, and evenly distribute the extra follow-ups between day 2 and day 13 (integers, strictly increasing).

MESSAGE RULES:
- Each message <= 400 characters.
- No links anywhere.
- No "just bumping this" / "circling back" filler.
- Ask at most one question per message.`

// SequenceInput is everything embedded in a sequence-generation prompt.
type SequenceInput struct {
	CompanyContext   string
	Prospect         *domain.Prospect
	Analysis         string
	Tone             tone.Directives
	// ToneInstructions is optional free text appended to the tone directives.
	ToneInstructions string
	Length           int
}

type profileSnapshot struct {
	LinkedInURL   string          `json:"linkedin_url"`
	FirstName     string          `json:"fname"`
	MiddleInitial string          `json:"middle_initial,omitempty"`
	LastName      string          `json:"lname"`
	Headline      string          `json:"headline,omitempty"`
	ProfileData   json.RawMessage `json:"profile_data"`
}

// BuildSequencePrompt asks for an N-step sequence as JSON matching SequenceResponseSchema.
func BuildSequencePrompt(in SequenceInput) (Prompt, error) {
	if in.Prospect == nil {
		return Prompt{}, fmt.Errorf("prospect is required")
	}
	cadence, err := Cadence(in.Length)
	if err != nil {
		return Prompt{}, err
	}

	data := in.Prospect.ProfileData
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	profile, err := json.Marshal(profileSnapshot{
		LinkedInURL:   in.Prospect.LinkedInURL,
		FirstName:     in.Prospect.FirstName,
		MiddleInitial: in.Prospect.MiddleInitial,
		LastName:      in.Prospect.LastName,
		Headline:      in.Prospect.Headline,
		ProfileData:   data,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to marshal prospect profile: %w", err)
	}
	analysis, err := json.Marshal(in.Analysis)
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to marshal profile analysis: %w", err)
	}
	schema, err := json.MarshalIndent(SequenceResponseSchema(), "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("failed to marshal response schema: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COMPANY CONTEXT:\n%s\n\n", in.CompanyContext)
	fmt.Fprintf(&b, "PROSPECT PROFILE (JSON):\n%s\n\n", profile)
	fmt.Fprintf(&b, "PROSPECT PROFILE ANALYSIS (LLM-GENERATED):\n%s\n\n", analysis)
	fmt.Fprintf(&b, "TONE OF VOICE:\n%s\n", strings.Join(in.Tone.Lines(), "\n"))
	if instructions := strings.TrimSpace(in.ToneInstructions); instructions != "" {
		fmt.Fprintf(&b, "Additional tone instructions: %s\n", instructions)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "TASK:\nGenerate a %d-step LinkedIn message sequence that follows a fixed unhappy path.\n\n", in.Length)
	fmt.Fprintf(&b, "%s\n\n", CadenceContract)
	fmt.Fprintf(&b, "For N=%d the cadence is: %s\n\n", in.Length, formatDays(cadence))
	b.WriteString(`ADDITIONAL RULES:
- Do not invent facts not in the profile or company context; if something is unclear, fall back to safe, generic wording.
- For every message, provide a confidence score (0-100) for how much concrete personalization signal you had.
- For every message, provide 1-2 sentences of rationale for why the message is structured the way it is.
- "sequence_length" must equal N and "messages" must contain exactly N items with steps 1..N in order.

Return only valid JSON, with no explanatory text and no unescaped newlines, matching this schema:
`)
	b.Write(schema)

	return Prompt{
		System:         sequenceSystem,
		User:           b.String(),
		SchemaName:     SequenceSchemaName,
		ResponseSchema: SequenceResponseSchema(),
	}, nil
}

func formatDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SequenceResponseSchema is the JSON schema the sequence response must satisfy.
func SequenceResponseSchema() map[string]any {
	message := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"step":        map[string]any{"type": "integer"},
			"msg_content": map[string]any{"type": "string"},
			"confidence":  map[string]any{"type": "number"},
			"rationale":   map[string]any{"type": "string"},
			"delay_days":  map[string]any{"type": "integer"},
		},
		"required":             []string{"step", "msg_content", "confidence", "rationale", "delay_days"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sequence_length": map[string]any{"type": "integer"},
			"messages": map[string]any{
				"type":  "array",
				"items": message,
			},
		},
		"required":             []string{"sequence_length", "messages"},
		"additionalProperties": false,
	}
}
