package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SNurali/silkroad-reservation/internal/model"
)

// respondErr translates domain sentinels into HTTP responses.
// Validation failures map to 400, authorization failures to 403,
// missing resources to 404 and state conflicts to 409; anything
// unrecognized is a 500 with a generic message so internals never
// leak to clients.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval"})
	case errors.Is(err, model.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed"})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, model.ErrNoGrant):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no role grant for this vendor"})
	case errors.Is(err, model.ErrVendorNotActive):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "vendor is not active"})
	case errors.Is(err, model.ErrUnitNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unit not found"})
	case errors.Is(err, model.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, model.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity exceeded"})
	case errors.Is(err, model.ErrAlreadyTerminal):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already in a terminal status"})
	case errors.Is(err, model.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting reservation state"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
