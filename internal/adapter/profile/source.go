// Package profile acquires prospect profile data from a LinkedIn URL.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// Source fetches the profile behind a LinkedIn URL.
type Source interface {
	Fetch(ctx context.Context, linkedinURL string) (*domain.Prospect, error)
}

// Fallback names used when the URL carries no usable slug.
const (
	DefaultFirstName = "Alex"
	DefaultLastName  = "Morgan"
)

var slugPattern = regexp.MustCompile(`(?i)/in/([^/?#]+)`)

// StubSource returns a fixed profile with names derived from the URL slug.
// Scraping live profiles is not supported.
type StubSource struct{}

// NewStubSource creates a StubSource.
func NewStubSource() *StubSource {
	return &StubSource{}
}

var _ Source = (*StubSource)(nil)

type company struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
}

type experience struct {
	Company string  `json:"company"`
	Title   string  `json:"title"`
	From    string  `json:"from"`
	To      *string `json:"to"`
}

type education struct {
	School   string `json:"school"`
	Degree   string `json:"degree"`
	Field    string `json:"field"`
	GradYear int    `json:"grad_year"`
}

type stubProfile struct {
	Location       string       `json:"location"`
	CurrentCompany company      `json:"current_company"`
	Experience     []experience `json:"experience"`
	Education      []education  `json:"education"`
	Skills         []string     `json:"skills"`
	Summary        string       `json:"summary"`
}

// Fetch implements Source.
func (s *StubSource) Fetch(ctx context.Context, linkedinURL string) (*domain.Prospect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(linkedinURL) == "" {
		return nil, fmt.Errorf("%w: prospect_url is required", domain.ErrValidation)
	}

	first, last := NamesFromURL(linkedinURL)
	previous := "2021-05"
	data, err := json.Marshal(stubProfile{
		Location: "San Francisco, CA",
		CurrentCompany: company{
			Name:      "Acme Co",
			Title:     "Product Manager",
			StartDate: "2021-06",
		},
		Experience: []experience{
			{Company: "Acme Co", Title: "Product Manager", From: "2021-06"},
			{Company: "OtherCorp", Title: "Associate PM", From: "2019-01", To: &previous},
		},
		Education: []education{
			{School: "State University", Degree: "BS", Field: "Computer Science", GradYear: 2018},
		},
		Skills:  []string{"product management", "roadmapping", "user research"},
		Summary: "Product leader focused on building data-informed experiences that scale.",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stub profile: %w", err)
	}

	return &domain.Prospect{
		LinkedInURL: linkedinURL,
		FirstName:   first,
		LastName:    last,
		Headline:    "Product Manager | B2B SaaS",
		ProfileData: data,
	}, nil
}

// NamesFromURL derives first and last name from a /in/first-...-last slug.
// A single-part slug only sets the first name.
func NamesFromURL(linkedinURL string) (first, last string) {
	first, last = DefaultFirstName, DefaultLastName

	match := slugPattern.FindStringSubmatch(linkedinURL)
	if match == nil {
		return first, last
	}
	slug, err := url.PathUnescape(match[1])
	if err != nil {
		slug = match[1]
	}

	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(slug), "-") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return first, last
	case 1:
		return capitalize(parts[0]), last
	default:
		return capitalize(parts[0]), capitalize(parts[len(parts)-1])
	}
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
