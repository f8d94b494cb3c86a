package v1

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/outreach/internal/domain"
)

// VerificationKeyHeader carries the shared secret.
const VerificationKeyHeader = "X-Verification-Key"

// RequireVerificationKey rejects requests without the shared secret before the handler runs.
func (h *Handler) RequireVerificationKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.verificationKey == "" {
			return h.writeError(c, domain.ErrAuthMisconfigured)
		}
		got := c.Request().Header.Get(VerificationKeyHeader)
		if got == "" {
			return h.writeError(c, domain.ErrUnauthorized)
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.verificationKey)) != 1 {
			return h.writeError(c, domain.ErrForbidden)
		}
		return next(c)
	}
}
