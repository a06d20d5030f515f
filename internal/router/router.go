package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/convocation-seat-allocation/internal/config"
	"github.com/iliyamo/convocation-seat-allocation/internal/handler"
	"github.com/iliyamo/convocation-seat-allocation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the operator authentication routes.  The
// unauthenticated operations (register, login, refresh, logout) live
// under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token: each one is single-use.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body with `refresh_token` and invalidates it.
	// It does not require a JWT so an operator with an expired access
	// token can still terminate the session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "STAFF"))
	auth.GET("/me", a.Me)
	// Unlike /v1/auth/logout this needs a valid access token because it
	// revokes every session of the account, not one presented token.
	auth.POST("/auth/logout-all", a.LogoutAll)
}

// RegisterAllocation registers the allocation engine routes.  Every
// route requires a valid access token; runs and clears additionally
// require the ADMIN role because they mutate (or destroy) the seat
// assignment for the whole convocation.  Lookups and stats are open to
// STAFF so the help desk can answer "where do I sit" questions.
func RegisterAllocation(e *echo.Echo, h *handler.AllocationHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/v1/allocations")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole("ADMIN", "STAFF"))
	g.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))

	// Runs and clears get their own, much smaller bucket on top of the
	// group-wide limiter: they are expensive batch jobs and clears are
	// destructive.
	admin := middleware.RequireRole("ADMIN")
	mutations := middleware.NewTokenBucket(cfg.MutationRateLimit, rdb)
	g.POST("/allocate-seats", h.AllocateSeats, admin, mutations)
	g.POST("/allocate-enclosure/:letter", h.AllocateEnclosure, admin, mutations)
	g.DELETE("/clear", h.ClearAll, admin, mutations)
	g.DELETE("/clear-enclosure/:letter", h.ClearEnclosure, admin, mutations)

	// Stats change only when a run or clear completes, so the response
	// cache in front of this route is safe with a short TTL.
	g.GET("/stats", h.Stats, middleware.NewRedisCache(cfg.Cache, rdb))
	g.GET("/enclosure/:letter", h.ListEnclosure)
	// Echo matches static segments (stats, enclosure) before the
	// parameterized lookup, so this catch-all is registered last.
	g.GET("/:enrollmentId", h.GetAllocation)
}

// RegisterVenue registers the venue configuration routes.  Seeding is
// destructive (it replaces the layout) and is restricted to ADMIN.
func RegisterVenue(e *echo.Echo, h *handler.VenueHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group("/v1/venue")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole("ADMIN", "STAFF"))

	g.PUT("", h.Seed, middleware.RequireRole("ADMIN"))
	g.GET("", h.GetVenue, middleware.NewRedisCache(cfg.Cache, rdb))
	g.GET("/:letter", h.GetEnclosure)
}

// RegisterAttendees registers the attendee roster routes.  Importing
// the roster is ADMIN-only; lookups and listing are open to STAFF.
func RegisterAttendees(e *echo.Echo, h *handler.AttendeeHandler, cfg config.Config) {
	g := e.Group("/v1/attendees")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole("ADMIN", "STAFF"))

	g.POST("", h.Import, middleware.RequireRole("ADMIN"))
	g.GET("", h.List)
	g.GET("/:enrollmentId", h.Get)
}
