package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework used for routing

	"github.com/SNurali/silkroad-reservation/internal/handler"
	"github.com/SNurali/silkroad-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check used by load balancers and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication and context-switching
// endpoints.  Unauthenticated operations live under /v1/auth;
// protected ones require a valid context token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body without requiring a
	// bearer; with a bearer and no body it revokes every session.
	g.POST("/logout", a.Logout)
	e.POST("/v1/auth/logout-all", a.Logout, middleware.ContextAuth(jwtSecret))

	auth := e.Group("/v1", middleware.ContextAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.GET("/contexts", a.Contexts)
	// Switching re-reads the grant table and the vendor status; a
	// revoked grant refuses the switch even with a valid session.
	auth.POST("/context/switch", a.SwitchContext)
}

// RegisterPublic registers unauthenticated availability queries.
// The returned numbers are advisory; creation re-checks under lock.
// The optional middleware slot carries the Redis response cache,
// which is confined to this caller-independent read and never
// applied to authenticated routes.
func RegisterPublic(e *echo.Echo, av *handler.AvailabilityHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/v1/units/:id/availability", av.Check, mw...)
}

// RegisterReservations registers the requester-side reservation
// endpoints.  Every route requires a context token; the user ID is
// always taken from the token, never from the body.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.ContextAuth(jwtSecret))
	g.POST("/reservations", r.Create)
	g.GET("/reservations", r.ListMine)
	g.GET("/reservations/:id", r.Get)
	g.GET("/reservations/:id/history", r.History)
	g.POST("/reservations/:id/cancel", r.Cancel)

	// Payment collaborator callback; authenticated by shared secret
	// header, not by a context token.
	e.POST("/v1/payments/webhook", r.PaymentWebhook)
}

// RegisterVendor registers vendor-context endpoints.  The group gate
// only requires *some* active vendor context; per-operation
// capability checks against the resource's owning vendor happen in
// the services.
func RegisterVendor(e *echo.Echo, v *handler.VendorHandler, r *handler.ReservationHandler, jwtSecret string) {
	// Creating a vendor needs a session but no vendor context yet.
	e.POST("/v1/vendors", v.CreateVendor, middleware.ContextAuth(jwtSecret))
	// Platform-operator moderation; authenticated by the shared
	// X-Admin-Token header, not by a context token.
	e.PATCH("/v1/vendors/:id/status", v.UpdateVendorStatus)

	g := e.Group(
		"/v1/vendor",
		middleware.ContextAuth(jwtSecret),
		middleware.RequireVendorContext(),
	)
	g.PATCH("/settings", v.Rename)
	g.POST("/grants", v.GrantRole)
	g.DELETE("/grants/:user_id", v.RevokeRole)

	g.POST("/units", v.CreateUnit)
	g.GET("/units", v.ListUnits)
	g.PATCH("/units/:id", v.UpdateUnit)
	g.DELETE("/units/:id", v.DeleteUnit)
	g.POST("/units/:id/prices", v.UpsertPrice)
	g.GET("/units/:id/prices", v.ListPrices)
	g.DELETE("/units/:id/prices/:price_id", v.DeletePrice)

	g.GET("/reservations", r.ListForVendor)
	g.POST("/reservations/:id/approve", r.Approve)
	g.POST("/reservations/:id/reject", r.Reject)
	g.POST("/reservations/:id/cancel", r.CancelConfirmed)
	g.POST("/reservations/:id/complete", r.Complete)
}
