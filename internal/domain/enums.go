// Package domain defines the core domain models for the outreach service.
package domain

// TriggerType decides when a queued message step is sent.
type TriggerType string

const (
	TriggerTypeNoResponse TriggerType = "no_response"
	TriggerTypeAlwaysSend TriggerType = "always_send"
	TriggerTypeManual     TriggerType = "manual"
)

// GenerationType tags a provenance record with the model call that produced it.
type GenerationType string

const (
	GenerationTypeProfileAnalysis   GenerationType = "profile_analysis"
	GenerationTypeMessageGeneration GenerationType = "message_generation"
)

// PipelineState is a step of the generation pipeline.
type PipelineState string

const (
	PipelineStateIdle                PipelineState = "IDLE"
	PipelineStateResolvingReferences PipelineState = "RESOLVING_REFERENCES"
	PipelineStateAnalyzingProfile    PipelineState = "ANALYZING_PROFILE"
	PipelineStateGeneratingSequence  PipelineState = "GENERATING_SEQUENCE"
	PipelineStateValidatingResponse  PipelineState = "VALIDATING_RESPONSE"
	PipelineStatePersisting          PipelineState = "PERSISTING"
	PipelineStateDone                PipelineState = "DONE"
	PipelineStateFailed              PipelineState = "FAILED"
)

// Default values applied to generated messages.
const (
	DefaultTriggerType = TriggerTypeNoResponse
	DefaultDelayDays   = 2
)

// Request bounds accepted by the public API.
const (
	MinSequenceLength = 1
	MaxSequenceLength = 5
)
