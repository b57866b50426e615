package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/SNurali/silkroad-reservation/internal/config"
)

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{"GET": true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "cache",
	}
}

func newGetContext(e *echo.Echo, target string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// Both requests resolve to the same Echo route pattern.
	c.SetPath("/v1/units/:id/availability")
	return c
}

func TestCacheKeyUsesResolvedPath(t *testing.T) {
	e := echo.New()
	cfg := cacheCfg()

	a := cacheKeyFrom(cfg, newGetContext(e, "/v1/units/1/availability?start=2026-03-10"))
	b := cacheKeyFrom(cfg, newGetContext(e, "/v1/units/2/availability?start=2026-03-10"))
	if a == b {
		t.Fatalf("requests for different units share cache key %q", a)
	}

	c := cacheKeyFrom(cfg, newGetContext(e, "/v1/units/1/availability?start=2026-03-11"))
	if a == c {
		t.Fatal("requests with different queries share a cache key")
	}

	again := cacheKeyFrom(cfg, newGetContext(e, "/v1/units/1/availability?start=2026-03-10"))
	if a != again {
		t.Fatalf("identical requests produced keys %q and %q", a, again)
	}
}

func TestCacheBypassesAuthenticatedRequests(t *testing.T) {
	e := echo.New()
	// The client never connects: the bypass must short-circuit
	// before any Redis call.
	mw := NewRedisCache(cacheCfg(), redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "private")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/me")

	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Fatal("authenticated request never reached the handler")
	}
	if got := rec.Header().Get("X-Cache"); got != "" {
		t.Fatalf("X-Cache = %q, want unset for a credentialed request", got)
	}
}
