package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/outreach/internal/adapter/llm"
	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/prompt"
	"github.com/xiaot623/gogo/outreach/internal/tone"
	"github.com/xiaot623/gogo/outreach/internal/validate"
	"github.com/xiaot623/gogo/outreach/policy"
)

// pipelineRun tracks the state of one GenerateSequence call.
type pipelineRun struct {
	state  domain.PipelineState
	start  time.Time
	logger *zap.Logger
}

func (r *pipelineRun) transition(next domain.PipelineState) {
	r.logger.Debug("pipeline transition", zap.String("from", string(r.state)), zap.String("to", string(next)))
	r.state = next
}

// fail moves the run to FAILED and returns the typed failure for the state it failed in.
func (r *pipelineRun) fail(err error) error {
	failed := &domain.PipelineError{State: r.state, Err: err}
	r.logger.Warn("pipeline failed",
		zap.String("state", string(r.state)),
		zap.Duration("elapsed", time.Since(r.start)),
		zap.Error(err),
	)
	r.state = domain.PipelineStateFailed
	return failed
}

// modelCall is one completed model round trip.
type modelCall struct {
	prompt   json.RawMessage
	response json.RawMessage
	content  string
	model    string
	usage    *llm.Usage
}

// GenerateSequence runs the generation pipeline for one request. Reference rows written
// while resolving are kept on later failures; everything else is written atomically.
func (s *Service) GenerateSequence(ctx context.Context, req *domain.GenerateSequenceRequest) (*domain.GenerateSequenceResult, error) {
	run := &pipelineRun{
		state: domain.PipelineStateIdle,
		start: time.Now(),
		logger: s.logger.With(
			zap.String("prospect_url", requestURL(req)),
			zap.Int("sequence_length", requestLength(req)),
		),
	}

	if err := ValidateRequest(req); err != nil {
		return nil, run.fail(err)
	}
	toneCfg, err := toneConfig(req.ToneConfig)
	if err != nil {
		return nil, run.fail(err)
	}
	// Bands come from the request values; the stored row holds the rounded scale.
	t := req.ToneConfig
	directives, err := tone.Encode(*t.Formality, *t.Warmth, *t.Directness)
	if err != nil {
		return nil, run.fail(err)
	}
	prospect, err := s.profiles.Fetch(ctx, req.ProspectURL)
	if err != nil {
		return nil, run.fail(fmt.Errorf("failed to fetch profile: %w", err))
	}

	run.transition(domain.PipelineStateResolvingReferences)
	prospectID, toneID, err := s.resolveReferences(ctx, prospect, &toneCfg)
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.PipelineStateAnalyzingProfile)
	analysisCall, err := s.complete(ctx, prompt.BuildAnalysisPrompt(prospect))
	if err != nil {
		return nil, run.fail(err)
	}
	analysis := strings.TrimSpace(analysisCall.content)
	if analysis == "" {
		return nil, run.fail(fmt.Errorf("%w: profile analysis is empty", domain.ErrUpstreamEmptyResponse))
	}

	run.transition(domain.PipelineStateGeneratingSequence)
	seqPrompt, err := prompt.BuildSequencePrompt(prompt.SequenceInput{
		CompanyContext:   req.CompanyContext,
		Prospect:         prospect,
		Analysis:         analysis,
		Tone:             directives,
		ToneInstructions: toneCfg.Instructions,
		Length:           req.SequenceLength,
	})
	if err != nil {
		return nil, run.fail(err)
	}
	seqCall, err := s.complete(ctx, seqPrompt)
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.PipelineStateValidatingResponse)
	raw := strings.TrimSpace(seqCall.content)
	if raw == "" {
		return nil, run.fail(fmt.Errorf("%w: sequence response is empty", domain.ErrUpstreamEmptyResponse))
	}
	if !json.Valid([]byte(raw)) {
		run.logger.Warn("model returned non-JSON sequence", zap.String("raw_response", raw))
		return nil, run.fail(fmt.Errorf("%w: sequence response is not valid JSON", domain.ErrUpstreamMalformed))
	}
	seq, err := validate.SequenceResponse([]byte(raw))
	if err == nil {
		err = validate.Consistency(seq, req.SequenceLength)
	}
	if err != nil {
		run.logger.Warn("model returned invalid sequence", zap.String("raw_response", raw))
		return nil, run.fail(err)
	}
	flags, err := s.auditContent(ctx, run.logger, req, seq)
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.PipelineStatePersisting)
	analysisBlob, err := json.Marshal(analysis)
	if err != nil {
		return nil, run.fail(fmt.Errorf("%w: failed to marshal analysis: %w", domain.ErrPersistenceFailure, err))
	}
	stored, err := s.store.PersistSequence(ctx, &domain.SequenceRecord{
		ProspectID:       prospectID,
		ToneConfigID:     toneID,
		CompanyContext:   req.CompanyContext,
		ProspectAnalysis: analysisBlob,
		SequenceLength:   seq.SequenceLength,
		Messages:         seq.Messages,
		Generations: []domain.AiGeneration{
			s.generation(domain.GenerationTypeProfileAnalysis, analysisCall),
			s.generation(domain.GenerationTypeMessageGeneration, seqCall),
		},
	})
	if err != nil {
		return nil, run.fail(err)
	}

	run.transition(domain.PipelineStateDone)
	run.logger.Info("sequence generated",
		zap.String("sequence_id", stored.ID),
		zap.String("prospect_id", prospectID),
		zap.String("tov_config_id", toneID),
		zap.Strings("policy_flags", flags),
		zap.Duration("elapsed", time.Since(run.start)),
	)

	return &domain.GenerateSequenceResult{
		SequenceID:      stored.ID,
		ProspectID:      prospectID,
		ToneConfigID:    toneID,
		ProfileAnalysis: analysis,
		Sequence:        *seq,
		PolicyFlags:     flags,
	}, nil
}

// resolveReferences resolves the prospect and tone config concurrently. The first
// failure cancels the shared context and the other result is discarded.
func (s *Service) resolveReferences(ctx context.Context, prospect *domain.Prospect, toneCfg *domain.ToneConfig) (string, string, error) {
	var prospectID, toneID string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := s.store.ResolveProspect(gctx, prospect)
		if err != nil {
			return fmt.Errorf("failed to resolve prospect: %w", err)
		}
		prospectID = id
		return nil
	})
	g.Go(func() error {
		id, err := s.store.ResolveToneConfig(gctx, toneCfg)
		if err != nil {
			return fmt.Errorf("failed to resolve tone config: %w", err)
		}
		toneID = id
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	return prospectID, toneID, nil
}

// complete sends p to the model. Failures that carry no upstream kind are
// reported as domain.ErrUpstreamUnavailable.
func (s *Service) complete(ctx context.Context, p prompt.Prompt) (*modelCall, error) {
	transcript, err := p.Transcript()
	if err != nil {
		return nil, err
	}

	temperature := s.config.LLMTemperature
	req := &llm.ChatCompletionRequest{
		Model:       s.config.LLMModel,
		Temperature: &temperature,
	}
	for _, m := range p.Messages() {
		req.Messages = append(req.Messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	if p.ResponseSchema != nil {
		req.ResponseFormat = llm.JSONSchemaFormat(p.SchemaName, p.ResponseSchema)
	}

	started := time.Now()
	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		s.logger.Warn("model call failed",
			zap.String("provider", s.llmClient.Provider()),
			zap.Bool("timeout", llm.IsTimeout(err)),
			zap.Duration("latency", time.Since(started)),
			zap.Error(err),
		)
		if !isUpstreamKind(err) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal model response: %w", domain.ErrUpstreamMalformed, err)
	}
	model := resp.Model
	if model == "" {
		model = s.config.LLMModel
	}
	s.logger.Debug("model call done",
		zap.String("provider", s.llmClient.Provider()),
		zap.String("model", model),
		zap.Duration("latency", time.Since(started)),
	)
	return &modelCall{
		prompt:   transcript,
		response: body,
		content:  resp.Content(),
		model:    model,
		usage:    resp.Usage,
	}, nil
}

func isUpstreamKind(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnavailable) ||
		errors.Is(err, domain.ErrUpstreamMalformed) ||
		errors.Is(err, domain.ErrUpstreamEmptyResponse)
}

// auditContent runs the content policy. Flags are advisory; a block decision fails the run.
func (s *Service) auditContent(ctx context.Context, logger *zap.Logger, req *domain.GenerateSequenceRequest, seq *domain.GeneratedSequence) ([]string, error) {
	if s.policyEngine == nil {
		return nil, nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		CompanyContext: req.CompanyContext,
		SequenceLength: seq.SequenceLength,
		Messages:       seq.Messages,
	})
	if err != nil {
		logger.Warn("content policy evaluation failed", zap.Error(err))
		return nil, nil
	}

	switch decision.Decision {
	case policy.DecisionFlag:
		logger.Warn("content policy flagged sequence", zap.Strings("reasons", decision.Reasons))
		return decision.Reasons, nil
	case policy.DecisionBlock:
		return nil, fmt.Errorf("%w: blocked by content policy: %s", domain.ErrInvalidModelResponse, strings.Join(decision.Reasons, "; "))
	default:
		return nil, nil
	}
}

// generation builds the provenance record for one model call.
func (s *Service) generation(kind domain.GenerationType, call *modelCall) domain.AiGeneration {
	g := domain.AiGeneration{
		Provider:       s.llmClient.Provider(),
		Model:          call.model,
		Prompt:         call.prompt,
		Response:       call.response,
		GenerationType: kind,
	}
	if call.usage != nil {
		usage := domain.TokenUsage{
			InputTokens:  call.usage.PromptTokens,
			OutputTokens: call.usage.CompletionTokens,
			TotalTokens:  call.usage.TotalTokens,
		}
		if b, err := json.Marshal(usage); err == nil {
			g.TokenUsage = b
		}
		g.CostUSD = s.cost(usage)
	}
	return g
}

// cost prices usage with the configured per-1K rates, or returns nil when pricing is unset.
func (s *Service) cost(usage domain.TokenUsage) *float64 {
	if !s.config.PricingConfigured() {
		return nil
	}
	c := float64(usage.InputTokens)/1000*s.config.PriceInputPer1K +
		float64(usage.OutputTokens)/1000*s.config.PriceOutputPer1K
	return &c
}

func requestURL(req *domain.GenerateSequenceRequest) string {
	if req == nil {
		return ""
	}
	return req.ProspectURL
}

func requestLength(req *domain.GenerateSequenceRequest) int {
	if req == nil {
		return 0
	}
	return req.SequenceLength
}
