package store

import (
	"context"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// Resolver turns reference data into stable ids, creating rows on first sight.
// Repeating a call with the same natural key always returns the same id.
type Resolver interface {
	ResolveProspect(ctx context.Context, p *domain.Prospect) (string, error)
	ResolveToneConfig(ctx context.Context, t *domain.ToneConfig) (string, error)
}

// SequenceWriter writes a generated sequence and its provenance atomically.
type SequenceWriter interface {
	PersistSequence(ctx context.Context, rec *domain.SequenceRecord) (*domain.MessageSequence, error)
}

// Store defines the interface for data persistence.
type Store interface {
	Resolver
	SequenceWriter

	// Read operations
	GetProspectByURL(ctx context.Context, linkedinURL string) (*domain.Prospect, error)
	GetToneConfig(ctx context.Context, id string) (*domain.ToneConfig, error)
	GetSequence(ctx context.Context, sequenceID string) (*domain.MessageSequence, error)
	ListGenerations(ctx context.Context, sequenceID string) ([]domain.AiGeneration, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
