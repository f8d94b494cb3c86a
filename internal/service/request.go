package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/tone"
)

// ValidateRequest checks request shape. Failures wrap domain.ErrValidation.
func ValidateRequest(req *domain.GenerateSequenceRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.ProspectURL) == "" {
		return fmt.Errorf("%w: prospect_url is required", domain.ErrValidation)
	}
	u, err := url.ParseRequestURI(req.ProspectURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: prospect_url must be an absolute http(s) URI", domain.ErrValidation)
	}
	if strings.TrimSpace(req.CompanyContext) == "" {
		return fmt.Errorf("%w: company_context is required", domain.ErrValidation)
	}
	if req.SequenceLength < domain.MinSequenceLength || req.SequenceLength > domain.MaxSequenceLength {
		return fmt.Errorf("%w: sequence_length must be within %d..%d", domain.ErrValidation, domain.MinSequenceLength, domain.MaxSequenceLength)
	}
	t := req.ToneConfig
	if t.Formality == nil || t.Warmth == nil || t.Directness == nil {
		return fmt.Errorf("%w: tov_config requires formality, warmth and directness", domain.ErrValidation)
	}
	return nil
}

// toneConfig scales the request tone onto the stored 0-100 integer scale.
func toneConfig(in domain.ToneInput) (domain.ToneConfig, error) {
	cfg := domain.ToneConfig{Instructions: strings.TrimSpace(in.Instructions)}
	var err error
	if cfg.Formality, err = scaleAxis("formality", *in.Formality); err != nil {
		return domain.ToneConfig{}, err
	}
	if cfg.Warmth, err = scaleAxis("warmth", *in.Warmth); err != nil {
		return domain.ToneConfig{}, err
	}
	if cfg.Directness, err = scaleAxis("directness", *in.Directness); err != nil {
		return domain.ToneConfig{}, err
	}
	return cfg, nil
}

func scaleAxis(name string, v float64) (int, error) {
	scaled, err := tone.Scale(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return scaled, nil
}
