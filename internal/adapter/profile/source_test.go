package profile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/outreach/internal/domain"
)

func TestNamesFromURL(t *testing.T) {
	cases := []struct {
		url         string
		first, last string
	}{
		{"https://www.linkedin.com/in/jane-doe", "Jane", "Doe"},
		{"https://www.linkedin.com/in/JOHN-quincy-ADAMS/", "John", "Adams"},
		{"https://www.linkedin.com/in/madonna?trk=x", "Madonna", DefaultLastName},
		{"https://www.linkedin.com/in/%C3%A9lise-martin", "Élise", "Martin"},
		{"https://www.linkedin.com/company/acme", DefaultFirstName, DefaultLastName},
		{"https://www.linkedin.com/in/---", DefaultFirstName, DefaultLastName},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			first, last := NamesFromURL(tc.url)
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.last, last)
		})
	}
}

func TestStubSourceFetch(t *testing.T) {
	p, err := NewStubSource().Fetch(context.Background(), "https://www.linkedin.com/in/jane-doe")
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", p.LinkedInURL)
	assert.Equal(t, "Jane", p.FirstName)
	assert.Equal(t, "Doe", p.LastName)
	assert.Equal(t, "Product Manager | B2B SaaS", p.Headline)

	var data map[string]any
	require.NoError(t, json.Unmarshal(p.ProfileData, &data))
	assert.Equal(t, "San Francisco, CA", data["location"])
	assert.Len(t, data["experience"], 2)
}

func TestStubSourceRejectsEmptyURL(t *testing.T) {
	_, err := NewStubSource().Fetch(context.Background(), " ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
