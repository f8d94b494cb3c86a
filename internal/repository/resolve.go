package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// ResolveProspect returns the id of the prospect stored under p.LinkedInURL, inserting p if absent.
func (s *SQLiteStore) ResolveProspect(ctx context.Context, p *domain.Prospect) (string, error) {
	if p.LinkedInURL == "" {
		return "", fmt.Errorf("%w: linkedin_url is required", domain.ErrValidation)
	}
	id := uuid.New().String()
	now := s.now()

	insert := func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO prospects (id, linkedin_url, fname, middle_initial, lname, headline, profile_data, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.LinkedInURL, p.FirstName, nullString(p.MiddleInitial), p.LastName, nullString(p.Headline), jsonOrEmpty(p.ProfileData), now, now)
		return err
	}
	lookup := func(ctx context.Context) (string, error) {
		var existing string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM prospects WHERE linkedin_url = ?`, p.LinkedInURL).Scan(&existing)
		return existing, err
	}

	resolved, err := s.resolve(ctx, "prospect", id, insert, lookup)
	if err != nil {
		return "", err
	}
	p.ID = resolved
	return resolved, nil
}

// ResolveToneConfig returns the id of the tone config stored under the (formality, warmth,
// directness) triple, inserting t if absent. Instructions are kept from the first insert.
func (s *SQLiteStore) ResolveToneConfig(ctx context.Context, t *domain.ToneConfig) (string, error) {
	for _, v := range []int{t.Formality, t.Warmth, t.Directness} {
		if v < 0 || v > 100 {
			return "", fmt.Errorf("%w: stored tone scores must be within 0..100", domain.ErrInvalidToneValue)
		}
	}
	id := uuid.New().String()
	now := s.now()

	insert := func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO tov_configs (id, formality, warmth, directness, instructions, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, t.Formality, t.Warmth, t.Directness, nullString(t.Instructions), now)
		return err
	}
	lookup := func(ctx context.Context) (string, error) {
		var existing string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM tov_configs WHERE formality = ? AND warmth = ? AND directness = ?`,
			t.Formality, t.Warmth, t.Directness).Scan(&existing)
		return existing, err
	}

	resolved, err := s.resolve(ctx, "tone config", id, insert, lookup)
	if err != nil {
		return "", err
	}
	t.ID = resolved
	return resolved, nil
}

// resolve is insert-if-absent-else-select. A lost insert race falls through to the lookup,
// which is retried while the winning row is not yet visible.
func (s *SQLiteStore) resolve(
	ctx context.Context,
	kind string,
	newID string,
	insert func(context.Context) error,
	lookup func(context.Context) (string, error),
) (string, error) {
	err := insert(ctx)
	if err == nil {
		return newID, nil
	}
	if !isUniqueViolation(err) {
		return "", fmt.Errorf("failed to insert %s: %w", kind, err)
	}

	for attempt := 0; attempt <= s.opts.ResolveRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %s lookup interrupted: %v", domain.ErrReferenceConflictUnresolved, kind, ctx.Err())
			case <-time.After(time.Duration(attempt) * s.opts.ResolveBackoff):
			}
		}

		id, err := lookup(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to look up %s: %w", kind, err)
		}
	}

	return "", fmt.Errorf("%w: %s not visible after %d lookups", domain.ErrReferenceConflictUnresolved, kind, s.opts.ResolveRetries+1)
}
