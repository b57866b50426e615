package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/SNurali/silkroad-reservation/internal/auth"
	"github.com/SNurali/silkroad-reservation/internal/utils"
)

// actorKey is the context key the verified auth.Context is stored
// under.  Handlers retrieve it via Actor(c) rather than reading raw
// claims.
const actorKey = "actor_context"

// ContextAuth returns an Echo middleware that validates a Bearer
// context token and injects the decoded, immutable auth.Context into
// the request.  The provided secret must match the one used when
// issuing tokens.  Role and vendor claims are carried as one value —
// downstream code never reassembles them from loose context keys.
func ContextAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			actx, err := utils.ParseContextToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(actorKey, actx)
			return next(c)
		}
	}
}

// Actor extracts the verified auth.Context stored by ContextAuth.
// The boolean is false when the middleware did not run (programming
// error on an unprotected route).
func Actor(c echo.Context) (auth.Context, bool) {
	actx, ok := c.Get(actorKey).(auth.Context)
	return actx, ok
}

// RequireVendorContext is a coarse gate for vendor-scoped route
// groups: it rejects callers whose token has no active vendor.  The
// fine-grained capability check still happens per operation through
// auth.Authorize — this middleware only spares vendor endpoints from
// handling plain end-user tokens.
func RequireVendorContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actx, ok := Actor(c)
			if !ok || !actx.ActingAsVendor() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor context required"})
			}
			return next(c)
		}
	}
}
