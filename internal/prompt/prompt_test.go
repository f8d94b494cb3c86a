package prompt

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/tone"
)

func testProspect() *domain.Prospect {
	return &domain.Prospect{
		LinkedInURL: "https://www.linkedin.com/in/jane-doe",
		FirstName:   "Jane",
		LastName:    "Doe",
		Headline:    "VP Engineering",
		ProfileData: json.RawMessage(`{"location":"Berlin","skills":["go","sre"]}`),
	}
}

func TestCadenceBaseline(t *testing.T) {
	cases := map[int][]int{
		1: {0},
		2: {0, 14},
		3: {0, 2, 14},
		4: {0, 2, 5, 14},
		5: {0, 2, 5, 9, 14},
	}
	for n, want := range cases {
		got, err := Cadence(n)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Cadence(%d) mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestCadenceLongSequences(t *testing.T) {
	for n := 6; n <= MaxCadenceLength; n++ {
		got, err := Cadence(n)
		require.NoError(t, err)
		require.Len(t, got, n)
		assert.Equal(t, 0, got[0])
		assert.Equal(t, 14, got[n-1])
		for i := 1; i < n-1; i++ {
			assert.Greater(t, got[i], 2, "n=%d i=%d", n, i)
			assert.Less(t, got[i], 13, "n=%d i=%d", n, i)
			if i > 1 {
				assert.Greater(t, got[i], got[i-1], "n=%d i=%d", n, i)
			}
		}
	}
}

func TestCadenceSeven(t *testing.T) {
	got, err := Cadence(7)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{0, 4, 6, 8, 9, 11, 14}, got); diff != "" {
		t.Fatalf("Cadence(7) mismatch (-want +got):\n%s", diff)
	}
}

func TestCadenceRejectsOutOfRange(t *testing.T) {
	for _, n := range []int{0, -1, MaxCadenceLength + 1} {
		_, err := Cadence(n)
		assert.Error(t, err, "n=%d", n)
	}
}

func TestBuildAnalysisPromptEmbedsProfile(t *testing.T) {
	p := BuildAnalysisPrompt(testProspect())
	assert.NotEmpty(t, p.System)
	assert.Contains(t, p.User, `"location": "Berlin"`)
	assert.Contains(t, p.User, "1-2 sentence")
	assert.Contains(t, p.User, "Do not speculate")
	assert.Nil(t, p.ResponseSchema)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
}

func TestBuildSequencePrompt(t *testing.T) {
	d, err := tone.Encode(0.9, 0.5, 0.1)
	require.NoError(t, err)

	p, err := BuildSequencePrompt(SequenceInput{
		CompanyContext: "We sell observability tooling.",
		Prospect:       testProspect(),
		Analysis:       "Jane leads platform engineering in Berlin.",
		Tone:           d,
		Length:         3,
	})
	require.NoError(t, err)

	assert.Contains(t, p.User, "We sell observability tooling.")
	assert.Contains(t, p.User, "jane-doe")
	assert.Contains(t, p.User, "Jane leads platform engineering in Berlin.")
	for _, line := range d.Lines() {
		assert.Contains(t, p.User, line)
	}
	assert.Contains(t, p.User, CadenceContract)
	assert.Contains(t, p.User, "For N=3 the cadence is: [0, 2, 14]")
	assert.Equal(t, SequenceSchemaName, p.SchemaName)
	assert.Equal(t, SequenceResponseSchema(), p.ResponseSchema)
	assert.NotContains(t, p.User, "Additional tone instructions")
}

func TestBuildSequencePromptToneInstructions(t *testing.T) {
	d, err := tone.Encode(0.5, 0.5, 0.5)
	require.NoError(t, err)

	p, err := BuildSequencePrompt(SequenceInput{
		CompanyContext:   "ctx",
		Prospect:         testProspect(),
		Tone:             d,
		ToneInstructions: "  Never use emojis. ",
		Length:           2,
	})
	require.NoError(t, err)
	assert.Contains(t, p.User, "Additional tone instructions: Never use emojis.\n")
}

func TestBuildSequencePromptRejectsBadLength(t *testing.T) {
	_, err := BuildSequencePrompt(SequenceInput{Prospect: testProspect(), Length: 0})
	assert.Error(t, err)

	_, err = BuildSequencePrompt(SequenceInput{Length: 3})
	assert.Error(t, err)
}

func TestTranscriptRoundTrips(t *testing.T) {
	p := BuildAnalysisPrompt(testProspect())
	raw, err := p.Transcript()
	require.NoError(t, err)

	var doc struct {
		Messages []Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, p.Messages(), doc.Messages)
}
