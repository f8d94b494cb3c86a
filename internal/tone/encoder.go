// Package tone maps a tone-of-voice triple to natural-language writing directives.
package tone

import (
	"fmt"
	"math"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// Band is a discretized tone intensity.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

// Band bounds are half-open: a value equal to a bound belongs to the band above it.
const (
	lowUpperBound = 0.33
	midUpperBound = 0.66
)

var formalityDirectives = map[Band]string{
	BandLow:  "Use casual language. Contractions and light informality are acceptable.",
	BandMid:  "Use a professional but conversational tone.",
	BandHigh: "Use a formal, polished tone. Avoid slang and casual phrasing.",
}

var warmthDirectives = map[Band]string{
	BandLow:  "Keep emotional language minimal. Focus on facts and value.",
	BandMid:  "Sound friendly and approachable without being overly personal.",
	BandHigh: "Use warm, personable language. Show genuine interest in the recipient.",
}

var directnessDirectives = map[Band]string{
	BandLow:  "Avoid strong calls-to-action. Keep requests implicit.",
	BandMid:  "Include a clear but low-pressure call-to-action.",
	BandHigh: "Be direct and explicit about the desired next step.",
}

// Directives holds one writing directive per tone axis.
type Directives struct {
	Formality  string
	Warmth     string
	Directness string
}

// Lines returns the directives in axis order.
func (d Directives) Lines() []string {
	return []string{d.Formality, d.Warmth, d.Directness}
}

// Normalize maps a raw score to [0,1]. Scores above 1 are read as percentages.
func Normalize(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: not finite (got %v)", domain.ErrInvalidToneValue, v)
	}
	n := v
	if n > 1 {
		n = n / 100
	}
	if n < 0 || n > 1 {
		return 0, fmt.Errorf("%w: out of range 0..1 (got %v)", domain.ErrInvalidToneValue, v)
	}
	return n, nil
}

// BandOf assigns a normalized value to its band.
func BandOf(v float64) Band {
	switch {
	case v < lowUpperBound:
		return BandLow
	case v < midUpperBound:
		return BandMid
	default:
		return BandHigh
	}
}

// Scale converts a raw score to the stored 0-100 integer scale.
func Scale(v float64) (int, error) {
	n, err := Normalize(v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(n * 100)), nil
}

// Encode returns the directives for a raw tone triple.
func Encode(formality, warmth, directness float64) (Directives, error) {
	bands := make([]Band, 0, 3)
	for _, axis := range []struct {
		name  string
		value float64
	}{
		{"formality", formality},
		{"warmth", warmth},
		{"directness", directness},
	} {
		n, err := Normalize(axis.value)
		if err != nil {
			return Directives{}, fmt.Errorf("%s: %w", axis.name, err)
		}
		bands = append(bands, BandOf(n))
	}

	return Directives{
		Formality:  formalityDirectives[bands[0]],
		Warmth:     warmthDirectives[bands[1]],
		Directness: directnessDirectives[bands[2]],
	}, nil
}
