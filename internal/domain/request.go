package domain

// ToneInput is the tone-of-voice part of a generation request. Scores are
// either normalized (0..1) or percentages (0..100).
type ToneInput struct {
	Formality    *float64 `json:"formality"`
	Warmth       *float64 `json:"warmth"`
	Directness   *float64 `json:"directness"`
	Instructions string   `json:"instructions,omitempty"`
}

// GenerateSequenceRequest represents the request to generate a message sequence.
type GenerateSequenceRequest struct {
	ProspectURL    string    `json:"prospect_url"`
	ToneConfig     ToneInput `json:"tov_config"`
	CompanyContext string    `json:"company_context"`
	SequenceLength int       `json:"sequence_length"`
}

// GenerateSequenceResult is the outcome of a successful pipeline run.
type GenerateSequenceResult struct {
	SequenceID      string
	ProspectID      string
	ToneConfigID    string
	ProfileAnalysis string
	Sequence        GeneratedSequence
	PolicyFlags     []string
}

// GenerateSequenceResponse is the HTTP body returned on success.
type GenerateSequenceResponse struct {
	OK                       bool              `json:"ok"`
	SequenceID               string            `json:"sequence_id"`
	ProfileAnalysisResult    string            `json:"profile_analysis_result"`
	SequenceGenerationResult GeneratedSequence `json:"sequence_generation_result"`
}

// ErrorBody is the error detail returned to API callers.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the HTTP body returned on failure.
type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

// SequenceDetail is a stored sequence with its provenance records.
type SequenceDetail struct {
	Sequence    *MessageSequence `json:"sequence"`
	Generations []AiGeneration   `json:"generations"`
}
