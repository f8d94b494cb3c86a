package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// PersistSequence writes the sequence, its messages and both generation records in one
// transaction. On any failure nothing is written.
func (s *SQLiteStore) PersistSequence(ctx context.Context, rec *domain.SequenceRecord) (*domain.MessageSequence, error) {
	if err := checkRecord(rec); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrPersistenceFailure, err)
	}
	defer tx.Rollback()

	now := s.now()
	seq := &domain.MessageSequence{
		ID:               uuid.New().String(),
		ProspectID:       rec.ProspectID,
		ToneConfigID:     rec.ToneConfigID,
		CompanyContext:   rec.CompanyContext,
		ProspectAnalysis: rec.ProspectAnalysis,
		SequenceLength:   rec.SequenceLength,
		CurrentStep:      1,
		CreatedAt:        now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO message_sequences (id, prospect_id, tov_config_id, company_context, prospect_analysis, sequence_length, current_step, response_received, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		seq.ID, seq.ProspectID, seq.ToneConfigID, seq.CompanyContext, jsonOrEmpty(seq.ProspectAnalysis), seq.SequenceLength, seq.CurrentStep, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert sequence: %w", domain.ErrPersistenceFailure, err)
	}

	placeholders := make([]string, 0, len(rec.Messages))
	args := make([]any, 0, len(rec.Messages)*8)
	seq.Messages = make([]domain.Message, 0, len(rec.Messages))
	for _, m := range rec.Messages {
		msg := domain.Message{
			ID:                uuid.New().String(),
			MessageSequenceID: seq.ID,
			Step:              m.Step,
			Content:           m.Content,
			Confidence:        m.Confidence,
			Rationale:         m.Rationale,
			TriggerType:       domain.DefaultTriggerType,
			DelayDays:         m.DelayDays,
		}
		seq.Messages = append(seq.Messages, msg)
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, msg.ID, msg.MessageSequenceID, msg.Step, msg.Content, string(msg.TriggerType), msg.DelayDays, msg.Confidence, nullString(msg.Rationale))
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, message_sequence_id, step, msg_content, trigger_type, delay_days, confidence, rationale) VALUES `+
			strings.Join(placeholders, ", "),
		args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert messages: %w", domain.ErrPersistenceFailure, err)
	}

	for i := range rec.Generations {
		g := &rec.Generations[i]
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		sequenceID := seq.ID
		g.SequenceID = &sequenceID

		var cost any
		if g.CostUSD != nil {
			cost = *g.CostUSD
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ai_generations (id, sequence_id, provider, model, prompt, response, generation_type, token_usage, cost_usd, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, sequenceID, g.Provider, g.Model, string(g.Prompt), string(g.Response), string(g.GenerationType), nullStringBytes(g.TokenUsage), cost, g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to insert %s generation: %w", domain.ErrPersistenceFailure, g.GenerationType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit: %w", domain.ErrPersistenceFailure, err)
	}
	return seq, nil
}

// checkRecord rejects records that would leave a sequence without its messages or provenance.
func checkRecord(rec *domain.SequenceRecord) error {
	if rec == nil {
		return fmt.Errorf("nil sequence record")
	}
	if rec.ProspectID == "" || rec.ToneConfigID == "" {
		return fmt.Errorf("prospect and tone config ids are required")
	}
	if len(rec.Messages) == 0 {
		return fmt.Errorf("sequence has no messages")
	}
	if len(rec.Messages) != rec.SequenceLength {
		return fmt.Errorf("sequence_length %d does not match %d messages", rec.SequenceLength, len(rec.Messages))
	}

	counts := map[domain.GenerationType]int{}
	for _, g := range rec.Generations {
		counts[g.GenerationType]++
	}
	if len(rec.Generations) != 2 ||
		counts[domain.GenerationTypeProfileAnalysis] != 1 ||
		counts[domain.GenerationTypeMessageGeneration] != 1 {
		return fmt.Errorf("expected exactly one %s and one %s generation",
			domain.GenerationTypeProfileAnalysis, domain.GenerationTypeMessageGeneration)
	}
	return nil
}
