// Package service runs the outreach generation pipeline.
package service

import (
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/adapter/llm"
	"github.com/xiaot623/gogo/outreach/internal/adapter/profile"
	"github.com/xiaot623/gogo/outreach/internal/config"
	store "github.com/xiaot623/gogo/outreach/internal/repository"
	"github.com/xiaot623/gogo/outreach/policy"
)

type Service struct {
	store        store.Store
	llmClient    llm.LLMClient
	profiles     profile.Source
	config       *config.Config
	policyEngine *policy.Engine
	logger       *zap.Logger
}

// New wires the pipeline. policyEngine may be nil to skip the content audit.
func New(store store.Store, llmClient llm.LLMClient, profiles profile.Source, cfg *config.Config, policyEngine *policy.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		llmClient:    llmClient,
		profiles:     profiles,
		config:       cfg,
		policyEngine: policyEngine,
		logger:       logger,
	}
}
