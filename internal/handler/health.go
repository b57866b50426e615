package handler

import (
	"net/http" // HTTP status codes and primitives

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
)

// Health is the liveness endpoint probed by load balancers.  It does
// not touch the database; a process that can serve it is considered
// alive, nothing more.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
