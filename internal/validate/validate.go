// Package validate checks structured model output before anything is persisted.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// Error identifies the first field that failed validation. Index is -1 for top-level fields.
type Error struct {
	Field  string
	Index  int
	Reason string
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid model response: messages[%d].%s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid model response: %s %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error {
	return domain.ErrInvalidModelResponse
}

func fieldError(field, reason string) *Error {
	return &Error{Field: field, Index: -1, Reason: reason}
}

func messageError(index int, field, reason string) *Error {
	return &Error{Field: field, Index: index, Reason: reason}
}

// SequenceResponse decodes and validates a sequence-generation response.
func SequenceResponse(raw []byte) (*domain.GeneratedSequence, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fieldError("response", "is not valid JSON")
	}
	return Sequence(v)
}

// Sequence validates an already-decoded value. Numbers may be json.Number or float64.
func Sequence(v any) (*domain.GeneratedSequence, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, fieldError("response", "is not an object")
	}

	length, ok := positiveInt(obj["sequence_length"])
	if !ok {
		return nil, fieldError("sequence_length", "is missing or not a positive integer")
	}

	items, ok := obj["messages"].([]any)
	if !ok {
		return nil, fieldError("messages", "is missing or not an array")
	}

	out := &domain.GeneratedSequence{
		SequenceLength: length,
		Messages:       make([]domain.GeneratedMessage, 0, len(items)),
	}
	for i, item := range items {
		msg, err := message(i, item)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, msg)
	}

	if len(out.Messages) != length {
		return nil, fieldError("messages", fmt.Sprintf("has %d items, sequence_length is %d", len(out.Messages), length))
	}
	return out, nil
}

func message(i int, item any) (domain.GeneratedMessage, error) {
	m, ok := item.(map[string]any)
	if !ok || m == nil {
		return domain.GeneratedMessage{}, messageError(i, "message", "is not an object")
	}

	step, ok := positiveInt(m["step"])
	if !ok {
		return domain.GeneratedMessage{}, messageError(i, "step", "is missing or not a positive integer")
	}
	content, ok := m["msg_content"].(string)
	if !ok {
		return domain.GeneratedMessage{}, messageError(i, "msg_content", "is missing or not a string")
	}
	confidence, ok := number(m["confidence"])
	if !ok || confidence < 0 || confidence > 100 {
		return domain.GeneratedMessage{}, messageError(i, "confidence", "is missing or out of range")
	}
	rationale, ok := m["rationale"].(string)
	if !ok {
		return domain.GeneratedMessage{}, messageError(i, "rationale", "is missing or not a string")
	}
	delay, ok := integer(m["delay_days"])
	if !ok || delay < 0 {
		return domain.GeneratedMessage{}, messageError(i, "delay_days", "is missing or invalid")
	}

	return domain.GeneratedMessage{
		Step:       step,
		Content:    content,
		Confidence: confidence,
		Rationale:  rationale,
		DelayDays:  delay,
	}, nil
}

// Consistency applies the orchestration-level checks: the requested length, the declared
// sequence_length and the message count must agree, steps must be exactly 1..N and
// delay_days must not decrease from one step to the next.
func Consistency(seq *domain.GeneratedSequence, requested int) error {
	if seq.SequenceLength != requested || len(seq.Messages) != requested {
		return fieldError("sequence_length", fmt.Sprintf(
			"mismatch: requested %d, declared %d, received %d messages",
			requested, seq.SequenceLength, len(seq.Messages)))
	}

	// byStep[k] is the index of the message for step k+1.
	byStep := make([]int, requested)
	for k := range byStep {
		byStep[k] = -1
	}
	for i, m := range seq.Messages {
		if m.Step < 1 || m.Step > requested {
			return messageError(i, "step", fmt.Sprintf("outside 1..%d", requested))
		}
		if byStep[m.Step-1] >= 0 {
			return messageError(i, "step", "is duplicated")
		}
		byStep[m.Step-1] = i
	}

	prev := -1
	for _, i := range byStep {
		d := seq.Messages[i].DelayDays
		if d < prev {
			return messageError(i, "delay_days", "decreases relative to the previous step")
		}
		prev = d
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func integer(v any) (int, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func positiveInt(v any) (int, bool) {
	n, ok := integer(v)
	if !ok || n < 1 {
		return 0, false
	}
	return n, true
}
