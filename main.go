package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/adapter/llm"
	"github.com/xiaot623/gogo/outreach/internal/adapter/profile"
	"github.com/xiaot623/gogo/outreach/internal/config"
	"github.com/xiaot623/gogo/outreach/internal/logging"
	store "github.com/xiaot623/gogo/outreach/internal/repository"
	"github.com/xiaot623/gogo/outreach/internal/service"
	"github.com/xiaot623/gogo/outreach/policy"
)

var (
	cfgPath string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "outreach",
	Short:         "Generate and store LinkedIn outreach message sequences",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore opens the configured database and applies migrations.
func openStore() (*store.SQLiteStore, error) {
	db, err := store.NewSQLiteStore(cfg.DatabaseDriver, cfg.DatabaseURL, store.Options{
		ResolveRetries: cfg.ResolveRetries,
		ResolveBackoff: cfg.ResolveBackoff(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return db, nil
}

// newService wires the pipeline around db.
func newService(ctx context.Context, db store.Store) (*service.Service, error) {
	llmClient, err := llm.NewLLMClient(ctx, llm.Config{
		Provider: cfg.LLMProvider,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Timeout:  cfg.LLMTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	policyEngine, err := policy.LoadEngine(ctx, cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	return service.New(db, llmClient, profile.NewStubSource(), cfg, policyEngine, logger), nil
}
