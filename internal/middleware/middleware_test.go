package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticketbari-web/internal/config"
	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
	"github.com/iliyamo/ticketbari-web/internal/session"
)

type resolverFunc func(ctx context.Context, p model.Principal, bearer string) role.Resolution

func (f resolverFunc) Resolve(ctx context.Context, p model.Principal, bearer string) role.Resolution {
	return f(ctx, p, bearer)
}

func fixedRole(r role.Role, calls *int) resolverFunc {
	return func(context.Context, model.Principal, string) role.Resolution {
		*calls++
		return role.Resolution{Role: r}
	}
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "page") }

// signedIn returns an echo server whose session store already holds a
// signed-in session "sid-1" for rafi.
func signedIn(t *testing.T) (*echo.Echo, *http.Cookie) {
	t.Helper()
	store := session.NewMemoryStore()
	p := model.Principal{ID: "p1", Email: "rafi@example.com", DisplayName: "Rafi"}
	require.NoError(t, store.Save(context.Background(), "sid-1", session.Record{Principal: &p, Token: "tok"}, time.Hour))
	e := echo.New()
	e.Use(LoadSession(session.NewManager(nil, nil, store, time.Hour), SessionOptions{}))
	return e, &http.Cookie{Name: CookieName, Value: "sid-1"}
}

func serve(e *echo.Echo, method, path string, ck *http.Cookie, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoadSessionIssuesCookieForUnknownID(t *testing.T) {
	e, _ := signedIn(t)
	e.GET("/", ok)

	rec := serve(e, http.MethodGet, "/", &http.Cookie{Name: CookieName, Value: "forged"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "forged", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = serve(e, http.MethodGet, "/", &http.Cookie{Name: CookieName, Value: "sid-1"}, "")
	assert.Empty(t, rec.Result().Cookies())
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	e, _ := signedIn(t)
	e.GET("/dashboard/user/profile", ok, RequireAuth())

	rec := serve(e, http.MethodGet, "/dashboard/user/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redirect":"/login?from=%2Fdashboard%2Fuser%2Fprofile"`)

	rec = serve(e, http.MethodGet, "/dashboard/user/profile", nil, "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?from=%2Fdashboard%2Fuser%2Fprofile", rec.Header().Get(echo.HeaderLocation))
}

func TestRequireRoleRedirectsRiderFromAdminPages(t *testing.T) {
	e, ck := signedIn(t)
	calls := 0
	e.GET("/dashboard/admin/users", ok, RequireAuth(), RequireRole(fixedRole(role.Rider, &calls), role.Administrator))

	rec := serve(e, http.MethodGet, "/dashboard/admin/users", ck, "text/html")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/user/profile", rec.Header().Get(echo.HeaderLocation))

	rec = serve(e, http.MethodGet, "/dashboard/admin/users", ck, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "/dashboard/user/profile")
	assert.Contains(t, rec.Body.String(), "role rider not permitted to open /dashboard/admin/users")
}

func TestRoleResolvedOncePerRequest(t *testing.T) {
	e, ck := signedIn(t)
	calls := 0
	r := fixedRole(role.Vendor, &calls)
	e.GET("/dashboard/vendor/tickets", func(c echo.Context) error {
		got, resolved := CurrentSession(c).Role()
		assert.True(t, resolved)
		assert.Equal(t, role.Vendor, got)
		return ok(c)
	}, ResolveRole(r), RequireRole(r, role.Vendor))

	rec := serve(e, http.MethodGet, "/dashboard/vendor/tickets", ck, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestRoleLookupFailureFallsBackToRider(t *testing.T) {
	e, ck := signedIn(t)
	failing := resolverFunc(func(context.Context, model.Principal, string) role.Resolution {
		return role.Resolution{Role: role.Rider, Err: errors.New("backend down")}
	})
	e.GET("/dashboard/user/bookings", ok, RequireRole(failing, role.Rider))
	e.GET("/dashboard/admin/profile", ok, RequireRole(failing, role.Administrator))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/dashboard/user/bookings", ck, "").Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/dashboard/admin/profile", ck, "").Code)
}

func TestRequireRoleLoadingWhenLookupCancelled(t *testing.T) {
	e, ck := signedIn(t)
	cancelled := resolverFunc(func(ctx context.Context, _ model.Principal, _ string) role.Resolution {
		return role.Resolution{Role: role.Rider, Err: context.Canceled}
	})
	e.GET("/dashboard/admin/profile", ok, RequireRole(cancelled, role.Administrator))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/admin/profile", nil).WithContext(ctx)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loading":true`)
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl"}
	e := echo.New()
	e.POST("/login", ok, NewTokenBucket(cfg, rdb))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/login", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(e, http.MethodPost, "/login", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestTokenBucketDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.POST("/login", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", nil, "").Code)
	}
}

func TestResponseCacheHitAndPurge(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true},
		TTL: time.Minute, KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20}, rdb)
	hits := 0
	e := echo.New()
	e.GET("/tickets/advertised", func(c echo.Context) error {
		hits++
		return c.JSON(http.StatusOK, echo.Map{"tickets": []string{"a"}})
	}, rc.Middleware())

	first := serve(e, http.MethodGet, "/tickets/advertised", nil, "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/tickets/advertised", nil, "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, hits)

	require.NoError(t, rc.Purge(context.Background()))
	third := serve(e, http.MethodGet, "/tickets/advertised", nil, "")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, hits)
}

func TestResponseCacheSkipsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, rdb)
	e := echo.New()
	e.GET("/tickets/latest", func(c echo.Context) error {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "backend"})
	}, rc.Middleware())

	serve(e, http.MethodGet, "/tickets/latest", nil, "")
	assert.Empty(t, mr.Keys())
}
