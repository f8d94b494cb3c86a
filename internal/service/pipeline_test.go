package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/outreach/internal/adapter/llm"
	"github.com/xiaot623/gogo/outreach/internal/adapter/profile"
	"github.com/xiaot623/gogo/outreach/internal/config"
	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/prompt"
	store "github.com/xiaot623/gogo/outreach/internal/repository"
	"github.com/xiaot623/gogo/outreach/policy"
	"github.com/xiaot623/gogo/outreach/tests/helpers"
)

type reply struct {
	content string
	err     error
}

// scriptedLLM answers calls in order from replies.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []reply
	calls   []*llm.ChatCompletionRequest
}

func (f *scriptedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	i := len(f.calls) - 1
	if i >= len(f.replies) {
		return nil, fmt.Errorf("unexpected model call %d", i+1)
	}
	if f.replies[i].err != nil {
		return nil, f.replies[i].err
	}
	return &llm.ChatCompletionResponse{
		ID:    fmt.Sprintf("c%d", i),
		Model: "test-model",
		Choices: []llm.Choice{{
			Message: &llm.ChatMessage{Role: "assistant", Content: f.replies[i].content},
		}},
		Usage: &llm.Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500},
	}, nil
}

func (f *scriptedLLM) Provider() string { return "test" }

func (f *scriptedLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func validSequence(t *testing.T, n int) string {
	t.Helper()
	days, err := prompt.Cadence(n)
	require.NoError(t, err)
	msgs := make([]string, n)
	for i, d := range days {
		msgs[i] = fmt.Sprintf(`{"step":%d,"msg_content":"Message %d","confidence":75,"rationale":"why","delay_days":%d}`, i+1, i+1, d)
	}
	return fmt.Sprintf(`{"sequence_length":%d,"messages":[%s]}`, n, strings.Join(msgs, ","))
}

func ptr(v float64) *float64 { return &v }

func testRequest(n int) *domain.GenerateSequenceRequest {
	return &domain.GenerateSequenceRequest{
		ProspectURL:    "https://www.linkedin.com/in/jane-doe",
		ToneConfig:     domain.ToneInput{Formality: ptr(0.5), Warmth: ptr(0.7), Directness: ptr(0.2)},
		CompanyContext: "We help platform teams cut incident response time.",
		SequenceLength: n,
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LLMModel = "test-model"
	return &cfg
}

func newTestService(t *testing.T, client llm.LLMClient, engine *policy.Engine) (*Service, *store.SQLiteStore) {
	t.Helper()
	st := helpers.NewTestSQLiteStore(t)
	return New(st, client, profile.NewStubSource(), testConfig(), engine, nil), st
}

func count(t *testing.T, st *store.SQLiteStore, table string) int {
	t.Helper()
	n, err := st.CountRows(context.Background(), table)
	require.NoError(t, err)
	return n
}

func requirePipelineError(t *testing.T, err error, state domain.PipelineState, kind error) {
	t.Helper()
	require.Error(t, err)
	var perr *domain.PipelineError
	require.True(t, errors.As(err, &perr), "expected PipelineError, got %T", err)
	assert.Equal(t, state, perr.State)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}

func TestGenerateSequenceEndToEnd(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	svc, st := newTestService(t, llm.NewMockClient(), engine)

	res, err := svc.GenerateSequence(ctx, testRequest(4))
	require.NoError(t, err)
	assert.NotEmpty(t, res.SequenceID)
	assert.NotEmpty(t, res.ProfileAnalysis)
	assert.Equal(t, 4, res.Sequence.SequenceLength)

	assert.Equal(t, 1, count(t, st, "message_sequences"))
	assert.Equal(t, 4, count(t, st, "messages"))
	assert.Equal(t, 2, count(t, st, "ai_generations"))

	detail, err := svc.GetSequenceDetail(ctx, res.SequenceID)
	require.NoError(t, err)
	for i, m := range detail.Sequence.Messages {
		assert.Equal(t, i+1, m.Step)
	}
	require.Len(t, detail.Generations, 2)
	kinds := map[domain.GenerationType]bool{}
	for _, g := range detail.Generations {
		kinds[g.GenerationType] = true
		assert.Equal(t, llm.ProviderMock, g.Provider)
		assert.NotEmpty(t, g.Prompt)
		assert.NotEmpty(t, g.Response)
		assert.Nil(t, g.CostUSD, "pricing is not configured")
	}
	assert.True(t, kinds[domain.GenerationTypeProfileAnalysis])
	assert.True(t, kinds[domain.GenerationTypeMessageGeneration])

	var analysis string
	require.NoError(t, json.Unmarshal(detail.Sequence.ProspectAnalysis, &analysis))
	assert.Equal(t, res.ProfileAnalysis, analysis)
}

func TestGenerateSequenceSendsSchemaOnlyForSequenceCall(t *testing.T) {
	client := &scriptedLLM{replies: []reply{{content: "Jane leads platform engineering."}, {content: validSequence(t, 3)}}}
	svc, _ := newTestService(t, client, nil)

	_, err := svc.GenerateSequence(context.Background(), testRequest(3))
	require.NoError(t, err)
	require.Len(t, client.calls, 2)

	assert.Nil(t, client.calls[0].ResponseFormat)
	assert.Equal(t, "json_schema", client.calls[1].ResponseFormat["type"])
	for _, call := range client.calls {
		require.Len(t, call.Messages, 2)
		assert.Equal(t, "system", call.Messages[0].Role)
		assert.Equal(t, "user", call.Messages[1].Role)
		assert.Equal(t, "test-model", call.Model)
	}
	assert.Contains(t, client.calls[1].Messages[1].Content, "Jane leads platform engineering.")
	assert.Contains(t, client.calls[1].Messages[1].Content, "For N=3 the cadence is: [0, 2, 14]")
}

func TestGenerateSequenceBandsToneFromRequestValues(t *testing.T) {
	ctx := context.Background()
	client := &scriptedLLM{replies: []reply{{content: "Jane leads platform engineering."}, {content: validSequence(t, 2)}}}
	svc, st := newTestService(t, client, nil)

	req := testRequest(2)
	req.ToneConfig = domain.ToneInput{Formality: ptr(0.329999), Warmth: ptr(0.659999), Directness: ptr(0.66)}
	res, err := svc.GenerateSequence(ctx, req)
	require.NoError(t, err)
	require.Len(t, client.calls, 2)

	user := client.calls[1].Messages[1].Content
	assert.Contains(t, user, "Use casual language.")
	assert.NotContains(t, user, "Use a professional but conversational tone.")
	assert.Contains(t, user, "Sound friendly and approachable")
	assert.NotContains(t, user, "Use warm, personable language.")
	assert.Contains(t, user, "Be direct and explicit about the desired next step.")

	stored, err := st.GetToneConfig(ctx, res.ToneConfigID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 33, stored.Formality)
	assert.Equal(t, 66, stored.Warmth)
	assert.Equal(t, 66, stored.Directness)
}

func TestGenerateSequenceComputesCost(t *testing.T) {
	ctx := context.Background()
	client := &scriptedLLM{replies: []reply{{content: "analysis"}, {content: validSequence(t, 2)}}}
	st := helpers.NewTestSQLiteStore(t)
	cfg := testConfig()
	cfg.PriceInputPer1K = 0.5
	cfg.PriceOutputPer1K = 1.5
	svc := New(st, client, profile.NewStubSource(), cfg, nil, nil)

	res, err := svc.GenerateSequence(ctx, testRequest(2))
	require.NoError(t, err)

	gens, err := st.ListGenerations(ctx, res.SequenceID)
	require.NoError(t, err)
	for _, g := range gens {
		require.NotNil(t, g.CostUSD)
		assert.InDelta(t, 1.25, *g.CostUSD, 1e-9)
		var usage domain.TokenUsage
		require.NoError(t, json.Unmarshal(g.TokenUsage, &usage))
		assert.Equal(t, domain.TokenUsage{InputTokens: 1000, OutputTokens: 500, TotalTokens: 1500}, usage)
	}
}

func TestGenerateSequenceEmptyAnalysis(t *testing.T) {
	client := &scriptedLLM{replies: []reply{{content: "  \n\t "}}}
	svc, st := newTestService(t, client, nil)

	_, err := svc.GenerateSequence(context.Background(), testRequest(3))
	requirePipelineError(t, err, domain.PipelineStateAnalyzingProfile, domain.ErrUpstreamEmptyResponse)
	assert.Equal(t, 1, client.callCount())

	// Reference rows are committed independently of the failed run.
	assert.Equal(t, 1, count(t, st, "prospects"))
	assert.Equal(t, 1, count(t, st, "tov_configs"))
	assert.Equal(t, 0, count(t, st, "message_sequences"))
	assert.Equal(t, 0, count(t, st, "ai_generations"))
}

func TestGenerateSequenceRejectsBadModelOutput(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		kind  error
	}{
		{"empty", "", domain.ErrUpstreamEmptyResponse},
		{"not json", "Here is your sequence!", domain.ErrUpstreamMalformed},
		{"length mismatch", validSequence(t, 2), domain.ErrInvalidModelResponse},
		{"wrong type", `{"sequence_length":3,"messages":"none"}`, domain.ErrInvalidModelResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &scriptedLLM{replies: []reply{{content: "analysis"}, {content: tc.reply}}}
			svc, st := newTestService(t, client, nil)

			_, err := svc.GenerateSequence(context.Background(), testRequest(3))
			requirePipelineError(t, err, domain.PipelineStateValidatingResponse, tc.kind)
			assert.Equal(t, 0, count(t, st, "message_sequences"))
			assert.Equal(t, 0, count(t, st, "messages"))
			assert.Equal(t, 0, count(t, st, "ai_generations"))
		})
	}
}

func TestGenerateSequenceModelUnavailable(t *testing.T) {
	client := &scriptedLLM{replies: []reply{{content: "analysis"}, {err: errors.New("connection reset")}}}
	svc, _ := newTestService(t, client, nil)

	_, err := svc.GenerateSequence(context.Background(), testRequest(3))
	requirePipelineError(t, err, domain.PipelineStateGeneratingSequence, domain.ErrUpstreamUnavailable)
}

func TestGenerateSequenceInvalidRequestWritesNothing(t *testing.T) {
	cases := map[string]func(*domain.GenerateSequenceRequest){
		"tone out of range": func(r *domain.GenerateSequenceRequest) { r.ToneConfig.Formality = ptr(150) },
		"negative tone":     func(r *domain.GenerateSequenceRequest) { r.ToneConfig.Warmth = ptr(-0.1) },
		"missing tone":      func(r *domain.GenerateSequenceRequest) { r.ToneConfig.Directness = nil },
		"length too long":   func(r *domain.GenerateSequenceRequest) { r.SequenceLength = 6 },
		"length zero":       func(r *domain.GenerateSequenceRequest) { r.SequenceLength = 0 },
		"relative url":      func(r *domain.GenerateSequenceRequest) { r.ProspectURL = "in/jane-doe" },
		"no context":        func(r *domain.GenerateSequenceRequest) { r.CompanyContext = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			client := &scriptedLLM{}
			svc, st := newTestService(t, client, nil)
			req := testRequest(3)
			mutate(req)

			_, err := svc.GenerateSequence(context.Background(), req)
			requirePipelineError(t, err, domain.PipelineStateIdle, domain.ErrValidation)
			assert.Equal(t, 0, client.callCount())
			assert.Equal(t, 0, count(t, st, "prospects"))
			assert.Equal(t, 0, count(t, st, "tov_configs"))
		})
	}
}

func TestGenerateSequencePercentAndFractionShareToneRow(t *testing.T) {
	ctx := context.Background()
	client := &scriptedLLM{replies: []reply{
		{content: "a"}, {content: validSequence(t, 1)},
		{content: "a"}, {content: validSequence(t, 1)},
	}}
	svc, st := newTestService(t, client, nil)

	first := testRequest(1)
	first.ToneConfig = domain.ToneInput{Formality: ptr(0.5), Warmth: ptr(0.25), Directness: ptr(1)}
	second := testRequest(1)
	second.ToneConfig = domain.ToneInput{Formality: ptr(50), Warmth: ptr(25), Directness: ptr(100)}

	a, err := svc.GenerateSequence(ctx, first)
	require.NoError(t, err)
	b, err := svc.GenerateSequence(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, a.ToneConfigID, b.ToneConfigID)
	assert.Equal(t, a.ProspectID, b.ProspectID)
	assert.Equal(t, 1, count(t, st, "tov_configs"))
	assert.Equal(t, 2, count(t, st, "message_sequences"))
}

func TestGenerateSequenceBlockedByPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, `
package content_policy

decision = "block" {
	count(input.messages) > 1
}

default decision = "allow"
`)
	require.NoError(t, err)
	client := &scriptedLLM{replies: []reply{{content: "analysis"}, {content: validSequence(t, 2)}}}
	svc, st := newTestService(t, client, engine)

	_, err = svc.GenerateSequence(ctx, testRequest(2))
	requirePipelineError(t, err, domain.PipelineStateValidatingResponse, domain.ErrInvalidModelResponse)
	assert.Equal(t, 0, count(t, st, "message_sequences"))
}

func TestGenerateSequenceFlagsAreAdvisory(t *testing.T) {
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)
	seq := `{"sequence_length":2,"messages":[` +
		`{"step":1,"msg_content":"Hi, see https://acme.test","confidence":60,"rationale":"r","delay_days":0},` +
		`{"step":2,"msg_content":"Bye","confidence":60,"rationale":"r","delay_days":14}]}`
	client := &scriptedLLM{replies: []reply{{content: "analysis"}, {content: seq}}}
	svc, st := newTestService(t, client, engine)

	res, err := svc.GenerateSequence(ctx, testRequest(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"step 1 contains a link"}, res.PolicyFlags)
	assert.Equal(t, 1, count(t, st, "message_sequences"))
}

// failingResolver fails tone resolution and blocks prospect resolution until cancelled.
type failingResolver struct {
	*store.SQLiteStore
	prospectCancelled chan struct{}
}

func (f *failingResolver) ResolveProspect(ctx context.Context, p *domain.Prospect) (string, error) {
	<-ctx.Done()
	close(f.prospectCancelled)
	return "", ctx.Err()
}

func (f *failingResolver) ResolveToneConfig(ctx context.Context, t *domain.ToneConfig) (string, error) {
	return "", fmt.Errorf("%w: tone config not visible", domain.ErrReferenceConflictUnresolved)
}

func TestGenerateSequenceResolutionFailureCancelsSibling(t *testing.T) {
	resolver := &failingResolver{SQLiteStore: helpers.NewTestSQLiteStore(t), prospectCancelled: make(chan struct{})}
	client := &scriptedLLM{}
	svc := New(resolver, client, profile.NewStubSource(), testConfig(), nil, nil)

	_, err := svc.GenerateSequence(context.Background(), testRequest(3))
	requirePipelineError(t, err, domain.PipelineStateResolvingReferences, domain.ErrReferenceConflictUnresolved)
	<-resolver.prospectCancelled
	assert.Equal(t, 0, client.callCount())
}

func TestGetSequenceDetailNotFound(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{}, nil)
	_, err := svc.GetSequenceDetail(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, svc.Healthy(context.Background()))
}
