package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mediaid/mediaid-api/internal/config"
	"github.com/mediaid/mediaid-api/internal/utils"
)

const secret = "test-secret"

func token(t *testing.T, uid uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, uid, role, 5)
	require.NoError(t, err)
	return at.Token
}

// whoami echoes what the auth middleware stored in the context.
func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
}

func serve(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/x", whoami, JWTAuth(secret))

	rec := serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing bearer token"}`, rec.Body.String())

	rec = serve(e, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, "Bearer "+token(t, 7, "USER"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"USER"}`, rec.Body.String())
}

func TestOptionalJWT(t *testing.T) {
	e := echo.New()
	e.GET("/x", whoami, OptionalJWT(secret))

	rec := serve(e, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":null,"role":null}`, rec.Body.String())

	rec = serve(e, "Bearer "+token(t, 3, "ADMIN"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":3,"role":"ADMIN"}`, rec.Body.String())

	rec = serve(e, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/x", whoami, JWTAuth(secret), RequireRole("ADMIN"))

	assert.Equal(t, http.StatusForbidden, serve(e, "Bearer "+token(t, 1, "USER")).Code)
	assert.Equal(t, http.StatusOK, serve(e, "Bearer "+token(t, 1, "ADMIN")).Code)
}

func TestCurrentUserID(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "anon", currentUserID(c))
	c.Set(CtxUserID, uint64(12))
	assert.Equal(t, "12", currentUserID(c))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "upstream") })

	serve(e, "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, "/x", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(502), entries[1].ContextMap()["status"])
}

func TestRedisMiddlewaresWithoutRedis(t *testing.T) {
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop()))
	e.Use(NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, zap.NewNop()))
	e.GET("/x", whoami)

	for i := 0; i < 3; i++ {
		rec := serve(e, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestCachedPayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodeCached(http.StatusOK, hdr, []byte(`[1,2]`))
	require.NoError(t, err)

	status, gotHdr, body, ok := decodeCached(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `[1,2]`, string(body))

	_, _, _, ok = decodeCached(bs[:5])
	assert.False(t, ok)
	_, _, _, ok = decodeCached(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, '{'))
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "p", KeyStrategy: "route_query"}
	e := echo.New()
	key := func(target, lang string) string {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Accept-Language", lang)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/services")
		return cacheKey(cfg, c)
	}

	a := key("/v1/services?type=hospital", "en")
	assert.Regexp(t, `^p:[0-9a-f]{40}$`, a)
	assert.Equal(t, a, key("/v1/services?type=hospital", "en"))
	assert.NotEqual(t, a, key("/v1/services?type=pharmacy", "en"))
	assert.NotEqual(t, a, key("/v1/services?type=hospital", "sv"))
}

func TestCacheKeyPerRecord(t *testing.T) {
	for _, strategy := range []string{"route", "method_route", "method_route_query", "route_query"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := config.CacheConfig{Prefix: "p", KeyStrategy: strategy}
			e := echo.New()
			e.GET("/v1/services/:id", func(c echo.Context) error {
				return c.String(http.StatusOK, cacheKey(cfg, c))
			})
			key := func(target string) string {
				rec := httptest.NewRecorder()
				e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				require.Equal(t, http.StatusOK, rec.Code)
				return rec.Body.String()
			}

			one := key("/v1/services/1")
			assert.Equal(t, one, key("/v1/services/1"))
			assert.NotEqual(t, one, key("/v1/services/2"))
		})
	}
}
