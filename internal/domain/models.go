package domain

import (
	"encoding/json"
	"time"
)

// Prospect is a sales prospect identified by its LinkedIn profile URL.
type Prospect struct {
	ID            string          `json:"id"`
	LinkedInURL   string          `json:"linkedin_url"`
	FirstName     string          `json:"fname"`
	MiddleInitial string          `json:"middle_initial,omitempty"`
	LastName      string          `json:"lname"`
	Headline      string          `json:"headline,omitempty"`
	ProfileData   json.RawMessage `json:"profile_data"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToneConfig is a stored tone-of-voice triple. Scores are integers on a 0-100 scale.
type ToneConfig struct {
	ID           string    `json:"id"`
	Formality    int       `json:"formality"`
	Warmth       int       `json:"warmth"`
	Directness   int       `json:"directness"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageSequence is one generated outbound sequence for a prospect.
type MessageSequence struct {
	ID               string          `json:"id"`
	ProspectID       string          `json:"prospect_id"`
	ToneConfigID     string          `json:"tov_config_id"`
	CompanyContext   string          `json:"company_context"`
	ProspectAnalysis json.RawMessage `json:"prospect_analysis"`
	SequenceLength   int             `json:"sequence_length"`
	CurrentStep      int             `json:"current_step"`
	ResponseReceived bool            `json:"response_received"`
	CreatedAt        time.Time       `json:"created_at"`
	LastSentAt       *time.Time      `json:"last_sent_at,omitempty"`
	Messages         []Message       `json:"messages,omitempty"`
}

// Message is a single step of a MessageSequence.
type Message struct {
	ID                string      `json:"id"`
	MessageSequenceID string      `json:"message_sequence_id"`
	Step              int         `json:"step"`
	Content           string      `json:"msg_content"`
	Confidence        float64     `json:"confidence"`
	Rationale         string      `json:"rationale"`
	TriggerType       TriggerType `json:"trigger_type"`
	DelayDays         int         `json:"delay_days"`
}

// AiGeneration is an immutable provenance record of one model call.
type AiGeneration struct {
	ID             string          `json:"id"`
	SequenceID     *string         `json:"sequence_id,omitempty"`
	Provider       string          `json:"provider"`
	Model          string          `json:"model"`
	Prompt         json.RawMessage `json:"prompt"`
	Response       json.RawMessage `json:"response"`
	GenerationType GenerationType  `json:"generation_type"`
	TokenUsage     json.RawMessage `json:"token_usage,omitempty"`
	CostUSD        *float64        `json:"cost_usd,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TokenUsage is the token accounting stored with a generation.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// GeneratedMessage is one message as returned by the model.
type GeneratedMessage struct {
	Step       int     `json:"step"`
	Content    string  `json:"msg_content"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	DelayDays  int     `json:"delay_days"`
}

// GeneratedSequence is the validated structured output of the sequence model call.
type GeneratedSequence struct {
	SequenceLength int                `json:"sequence_length"`
	Messages       []GeneratedMessage `json:"messages"`
}

// SequenceRecord carries everything written by the persistence transaction.
type SequenceRecord struct {
	ProspectID       string
	ToneConfigID     string
	CompanyContext   string
	ProspectAnalysis json.RawMessage
	SequenceLength   int
	Messages         []GeneratedMessage
	// Generations are inserted linked to the new sequence id.
	Generations []AiGeneration
}
