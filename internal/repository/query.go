package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// GetProspectByURL retrieves a prospect by its LinkedIn URL. Returns nil when absent.
func (s *SQLiteStore) GetProspectByURL(ctx context.Context, linkedinURL string) (*domain.Prospect, error) {
	var p domain.Prospect
	var middle, headline sql.NullString
	var profile string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, linkedin_url, fname, middle_initial, lname, headline, profile_data, created_at, updated_at
		 FROM prospects WHERE linkedin_url = ?`, linkedinURL).
		Scan(&p.ID, &p.LinkedInURL, &p.FirstName, &middle, &p.LastName, &headline, &profile, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect: %w", err)
	}
	p.MiddleInitial = middle.String
	p.Headline = headline.String
	p.ProfileData = []byte(profile)
	return &p, nil
}

// GetToneConfig retrieves a tone config by id. Returns nil when absent.
func (s *SQLiteStore) GetToneConfig(ctx context.Context, id string) (*domain.ToneConfig, error) {
	var t domain.ToneConfig
	var instructions sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, formality, warmth, directness, instructions, created_at FROM tov_configs WHERE id = ?`, id).
		Scan(&t.ID, &t.Formality, &t.Warmth, &t.Directness, &instructions, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tone config: %w", err)
	}
	t.Instructions = instructions.String
	return &t, nil
}

// GetSequence retrieves a sequence with its messages ordered by step. Returns nil when absent.
func (s *SQLiteStore) GetSequence(ctx context.Context, sequenceID string) (*domain.MessageSequence, error) {
	var seq domain.MessageSequence
	var analysis string
	var responded int
	var lastSent sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, prospect_id, tov_config_id, company_context, prospect_analysis, sequence_length,
		        current_step, response_received, created_at, last_sent_at
		 FROM message_sequences WHERE id = ?`, sequenceID).
		Scan(&seq.ID, &seq.ProspectID, &seq.ToneConfigID, &seq.CompanyContext, &analysis, &seq.SequenceLength,
			&seq.CurrentStep, &responded, &seq.CreatedAt, &lastSent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence: %w", err)
	}
	seq.ProspectAnalysis = []byte(analysis)
	seq.ResponseReceived = responded != 0
	if lastSent.Valid {
		t := lastSent.Time
		seq.LastSentAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_sequence_id, step, msg_content, confidence, rationale, trigger_type, delay_days
		 FROM messages WHERE message_sequence_id = ? ORDER BY step ASC`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Message
		var rationale sql.NullString
		var trigger string
		if err := rows.Scan(&m.ID, &m.MessageSequenceID, &m.Step, &m.Content, &m.Confidence, &rationale, &trigger, &m.DelayDays); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Rationale = rationale.String
		m.TriggerType = domain.TriggerType(trigger)
		seq.Messages = append(seq.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return &seq, nil
}

// ListGenerations returns the provenance records of a sequence, oldest first.
func (s *SQLiteStore) ListGenerations(ctx context.Context, sequenceID string) ([]domain.AiGeneration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sequence_id, provider, model, prompt, response, generation_type, token_usage, cost_usd, created_at
		 FROM ai_generations WHERE sequence_id = ? ORDER BY created_at ASC, generation_type DESC`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var out []domain.AiGeneration
	for rows.Next() {
		var g domain.AiGeneration
		var seqID, usage sql.NullString
		var prompt, response, genType string
		var cost sql.NullFloat64
		if err := rows.Scan(&g.ID, &seqID, &g.Provider, &g.Model, &prompt, &response, &genType, &usage, &cost, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		if seqID.Valid {
			id := seqID.String
			g.SequenceID = &id
		}
		g.Prompt = []byte(prompt)
		g.Response = []byte(response)
		g.GenerationType = domain.GenerationType(genType)
		if usage.Valid {
			g.TokenUsage = []byte(usage.String)
		}
		if cost.Valid {
			c := cost.Float64
			g.CostUSD = &c
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return out, nil
}

var countableTables = map[string]bool{
	"prospects":         true,
	"tov_configs":       true,
	"message_sequences": true,
	"messages":          true,
	"ai_generations":    true,
}

// CountRows returns the number of rows in one of the store's tables.
func (s *SQLiteStore) CountRows(ctx context.Context, table string) (int, error) {
	if !countableTables[table] {
		return 0, errors.New("unknown table " + table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
