package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	store "github.com/xiaot623/gogo/outreach/internal/repository"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "outreach.db")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("DATABASE_DRIVER", store.DriverPureGo)
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMigrateCreatesSchema(t *testing.T) {
	dbPath := setupEnv(t)

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	s, err := store.NewSQLiteStore(store.DriverPureGo, dbPath, store.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountRows(context.Background(), "message_sequences")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGenerateCommandPrintsResult(t *testing.T) {
	dbPath := setupEnv(t)

	out, err := execute(t, "generate",
		"--url", "https://www.linkedin.com/in/jane-doe",
		"--company", "We sell analytics to B2B SaaS teams",
		"--formality", "0.8",
		"--warmth", "0.4",
		"--directness", "0.6",
		"--length", "2",
	)
	require.NoError(t, err)

	var resp domain.GenerateSequenceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.SequenceID)
	assert.Len(t, resp.SequenceGenerationResult.Messages, 2)

	s, err := store.NewSQLiteStore(store.DriverPureGo, dbPath, store.DefaultOptions())
	require.NoError(t, err)
	defer s.Close()

	seq, err := s.GetSequence(context.Background(), resp.SequenceID)
	require.NoError(t, err)
	require.NotNil(t, seq)
	assert.Equal(t, 2, seq.SequenceLength)
}

func TestGenerateCommandRejectsInvalidLength(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "generate",
		"--url", "https://www.linkedin.com/in/jane-doe",
		"--company", "Acme",
		"--length", "9",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
