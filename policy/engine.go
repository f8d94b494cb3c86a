// Package policy audits generated messages against a rego content policy.
package policy

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/rego"
	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// Decisions returned by a content policy.
const (
	DecisionAllow = "allow"
	DecisionFlag  = "flag"
	DecisionBlock = "block"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Decision string
	Reasons  []string
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
// The module must declare package content_policy.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.content_policy"),
		rego.Module("content_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// LoadEngine reads the policy at path, or uses DefaultPolicy when path is empty.
func LoadEngine(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Input is the document a content policy evaluates.
type Input struct {
	CompanyContext string                    `json:"company_context"`
	SequenceLength int                       `json:"sequence_length"`
	Messages       []domain.GeneratedMessage `json:"messages"`
}

// Evaluate checks a generated sequence. A policy without a decision allows.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	out := Decision{Decision: DecisionAllow}
	if s, ok := doc["decision"].(string); ok {
		out.Decision = s
	}
	switch out.Decision {
	case DecisionAllow, DecisionFlag, DecisionBlock:
	default:
		return Decision{}, fmt.Errorf("unknown policy decision %q", out.Decision)
	}

	if reasons, ok := doc["reasons"].([]interface{}); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				out.Reasons = append(out.Reasons, s)
			}
		}
		sort.Strings(out.Reasons)
	}
	return out, nil
}

// DefaultPolicy flags messages that are too long, carry links, or lean on filler phrases.
// It never blocks.
const DefaultPolicy = `
package content_policy

default decision = "allow"

decision = "flag" {
	count(reasons) > 0
}

filler_phrases := ["bumping this", "circling back", "just checking in"]

reasons[msg] {
	m := input.messages[_]
	count(m.msg_content) > 400
	msg := sprintf("step %v exceeds 400 characters", [m.step])
}

reasons[msg] {
	m := input.messages[_]
	regex.match("(?i)(https?://|www\\.)", m.msg_content)
	msg := sprintf("step %v contains a link", [m.step])
}

reasons[msg] {
	m := input.messages[_]
	phrase := filler_phrases[_]
	contains(lower(m.msg_content), phrase)
	msg := sprintf("step %v uses filler phrase %q", [m.step, phrase])
}
`
