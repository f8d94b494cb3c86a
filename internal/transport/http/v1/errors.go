package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/outreach/internal/domain"
	"github.com/xiaot623/gogo/outreach/internal/validate"
)

// errorStatus maps an error kind to its HTTP status, code and caller-facing message.
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "missing " + VerificationKeyHeader + " header"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", "invalid verification key"
	case errors.Is(err, domain.ErrAuthMisconfigured):
		return http.StatusInternalServerError, "auth_misconfigured", "server verification key is not configured"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, domain.ErrUpstreamEmptyResponse):
		return http.StatusBadGateway, "upstream_empty_response", "the language model returned an empty response"
	case errors.Is(err, domain.ErrUpstreamMalformed):
		return http.StatusBadGateway, "upstream_malformed", "the language model returned a malformed response"
	case errors.Is(err, domain.ErrInvalidModelResponse):
		var verr *validate.Error
		if errors.As(err, &verr) {
			return http.StatusBadGateway, "invalid_model_response", verr.Error()
		}
		return http.StatusBadGateway, "invalid_model_response", "the language model response failed validation"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusGatewayTimeout, "upstream_unavailable", "the language model is unavailable"
	case errors.Is(err, domain.ErrReferenceConflictUnresolved):
		return http.StatusServiceUnavailable, "reference_conflict_unresolved", "concurrent request conflict, please retry"
	case errors.Is(err, domain.ErrPersistenceFailure):
		return http.StatusInternalServerError, "persistence_failure", "failed to store the generated sequence"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func (h *Handler) writeError(c echo.Context, err error) error {
	status, code, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	return c.JSON(status, domain.ErrorResponse{
		OK:    false,
		Error: domain.ErrorBody{Code: code, Message: message},
	})
}
