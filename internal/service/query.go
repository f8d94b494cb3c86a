package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// GetSequenceDetail returns a stored sequence with its messages and provenance records.
func (s *Service) GetSequenceDetail(ctx context.Context, sequenceID string) (*domain.SequenceDetail, error) {
	seq, err := s.store.GetSequence(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return nil, fmt.Errorf("%w: sequence %s", domain.ErrNotFound, sequenceID)
	}

	generations, err := s.store.ListGenerations(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	return &domain.SequenceDetail{Sequence: seq, Generations: generations}, nil
}

// Healthy reports whether the database answers.
func (s *Service) Healthy(ctx context.Context) error {
	return s.store.Ping(ctx)
}
