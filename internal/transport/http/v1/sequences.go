package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// GenerateSequence runs the generation pipeline.
// POST /v1/sequences (also POST /generate-sequence)
func (h *Handler) GenerateSequence(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.GenerateSequenceRequest
	if err := decodeStrict(c.Request().Body, &req); err != nil {
		return h.writeError(c, err)
	}

	result, err := h.service.GenerateSequence(ctx, &req)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, domain.GenerateSequenceResponse{
		OK:                       true,
		SequenceID:               result.SequenceID,
		ProfileAnalysisResult:    result.ProfileAnalysis,
		SequenceGenerationResult: result.Sequence,
	})
}

// GetSequence returns a stored sequence with its messages and provenance records.
// GET /v1/sequences/:sequence_id
func (h *Handler) GetSequence(c echo.Context) error {
	ctx := c.Request().Context()

	detail, err := h.service.GetSequenceDetail(ctx, c.Param("sequence_id"))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":          true,
		"sequence":    detail.Sequence,
		"generations": detail.Generations,
	})
}

// decodeStrict decodes a single JSON object and rejects unknown fields.
func decodeStrict(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: invalid request body: trailing data", domain.ErrValidation)
	}
	return nil
}
