package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	handler "github.com/xiaot623/gogo/outreach/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Starting outreach service",
			zap.Int("http_port", cfg.HTTPPort),
			zap.String("database_driver", cfg.DatabaseDriver),
			zap.String("llm_provider", cfg.LLMProvider),
			zap.String("llm_model", cfg.LLMModel),
		)
		if cfg.VerificationKey == "" {
			logger.Warn("VERIFICATION_KEY is not set; protected routes will answer 500")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := newService(cmd.Context(), db)
		if err != nil {
			return err
		}

		server := handler.NewServer(svc, cfg.VerificationKey, logger)

		errCh := make(chan error, 1)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.HTTPPort)
			if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		logger.Info("HTTP API started", zap.Int("port", cfg.HTTPPort))

		// Wait for interrupt signal
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-quit:
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
		}

		logger.Info("Shutting down outreach service...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shutdown server gracefully", zap.Error(err))
		}

		logger.Info("Outreach service stopped")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Database migrated", zap.String("database_url", cfg.DatabaseURL))
		return nil
	},
}

var generateFlags struct {
	url          string
	formality    float64
	warmth       float64
	directness   float64
	company      string
	length       int
	instructions string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation in-process and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := newService(cmd.Context(), db)
		if err != nil {
			return err
		}

		f := generateFlags
		result, err := svc.GenerateSequence(cmd.Context(), &domain.GenerateSequenceRequest{
			ProspectURL:    f.url,
			ToneConfig: domain.ToneInput{
				Formality:    &f.formality,
				Warmth:       &f.warmth,
				Directness:   &f.directness,
				Instructions: f.instructions,
			},
			CompanyContext: f.company,
			SequenceLength: f.length,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(domain.GenerateSequenceResponse{
			OK:                       true,
			SequenceID:               result.SequenceID,
			ProfileAnalysisResult:    result.ProfileAnalysis,
			SequenceGenerationResult: result.Sequence,
		})
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVar(&generateFlags.url, "url", "", "prospect LinkedIn profile URL")
	flags.Float64Var(&generateFlags.formality, "formality", 0.5, "formality score (0..1 or 0..100)")
	flags.Float64Var(&generateFlags.warmth, "warmth", 0.5, "warmth score (0..1 or 0..100)")
	flags.Float64Var(&generateFlags.directness, "directness", 0.5, "directness score (0..1 or 0..100)")
	flags.StringVar(&generateFlags.company, "company", "", "company context")
	flags.IntVar(&generateFlags.length, "length", 3, "sequence length (1..5)")
	flags.StringVar(&generateFlags.instructions, "instructions", "", "free-form tone instructions")
	_ = generateCmd.MarkFlagRequired("url")
	_ = generateCmd.MarkFlagRequired("company")
}
