package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/SNurali/silkroad-reservation/internal/booking"
	"github.com/SNurali/silkroad-reservation/internal/model"
)

// AvailabilityHandler answers public availability queries.  The
// numbers it returns are advisory: the same check re-runs under lock
// when a reservation is created.
type AvailabilityHandler struct {
	Svc *booking.AvailabilityService
}

func NewAvailabilityHandler(svc *booking.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc}
}

// Check handles GET /v1/units/:id/availability with query params
// start, end (YYYY-MM-DD), qty and category.  end defaults to the
// day after start, qty to 1.
func (h *AvailabilityHandler) Check(c echo.Context) error {
	unitID := pathID(c, "id")
	iv, err := parseInterval(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return respondErr(c, err)
	}
	qty := uint32(1)
	if q := c.QueryParam("qty"); q != "" {
		n, err := strconv.ParseUint(q, 10, 32)
		if err != nil || n == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid qty"})
		}
		qty = uint32(n)
	}
	cat := model.PriceCategory(strings.ToUpper(strings.TrimSpace(c.QueryParam("category"))))
	if cat == "" {
		cat = model.CategoryAny
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	avail, err := h.Svc.Check(ctx, unitID, iv, qty, cat)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, avail)
}
