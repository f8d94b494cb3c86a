package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/outreach/internal/prompt"
	"github.com/xiaot623/gogo/outreach/internal/validate"
)

func TestMockClientAnalysis(t *testing.T) {
	resp, err := NewMockClient().CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "mock",
		Messages: []ChatMessage{{Role: "system", Content: "analyze"}, {Role: "user", Content: "profile"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content())
	assert.NotNil(t, resp.Usage)
}

func TestMockClientSequenceFollowsCadence(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			resp, err := NewMockClient().CreateChatCompletion(context.Background(), &ChatCompletionRequest{
				Model: "mock",
				Messages: []ChatMessage{
					{Role: "system", Content: "sequence"},
					{Role: "user", Content: fmt.Sprintf("For N=%d the cadence is: [...]", n)},
				},
				ResponseFormat: JSONSchemaFormat(prompt.SequenceSchemaName, prompt.SequenceResponseSchema()),
			})
			require.NoError(t, err)

			seq, err := validate.SequenceResponse([]byte(resp.Content()))
			require.NoError(t, err)
			require.NoError(t, validate.Consistency(seq, n))

			want, err := prompt.Cadence(n)
			require.NoError(t, err)
			for i, m := range seq.Messages {
				assert.Equal(t, want[i], m.DelayDays)
			}
		})
	}
}

func TestMockClientHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockClient().CreateChatCompletion(ctx, &ChatCompletionRequest{Model: "mock"})
	assert.ErrorIs(t, err, context.Canceled)
}
