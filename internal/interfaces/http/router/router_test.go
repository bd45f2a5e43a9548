package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/auth"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/handler"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	NewRouter(engine, WithAPIVersion("v2")).Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v2/test/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/test/ping", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	engine := gin.New()
	parent := NewDomainGroup("parent", "/parent").Use(mark("group"))
	parent.Group("child", "/child").
		PATCH("/:id", mark("route"), func(c *gin.Context) { c.String(http.StatusOK, c.Param("id")) })

	NewRouter(engine, WithMiddleware(mark("api"))).Register(parent).Setup()

	w := serve(engine, http.MethodPatch, "/api/v1/parent/child/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, []string{"api", "group", "route"}, order)
}

func TestDomainGroupMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("items", "/items").
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) }).
		POST("", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		PATCH("/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	assert.Equal(t, "items", g.Name())
	assert.Equal(t, "/items", g.Prefix())

	g.RegisterRoutes(engine.Group(""))

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/items", "").Code)
	assert.Equal(t, http.StatusCreated, serve(engine, http.MethodPost, "/items", "").Code)
	assert.Equal(t, http.StatusAccepted, serve(engine, http.MethodPatch, "/items/1", "").Code)
}

type engineFixture struct {
	engine   *gin.Engine
	resident string
	admin    string
}

// newEngineFixture mounts the dues routes over handlers without services, so
// only requests rejected before reaching a service may be sent.
func newEngineFixture(t *testing.T, httpCfg config.HTTPConfig) *engineFixture {
	t.Helper()
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "dues-engine",
	})
	base := handler.BaseHandler{Location: time.UTC}
	engine, stop, err := NewEngine(Config{
		Handlers: Handlers{
			System:       handler.NewSystemHandler("dues-engine", "test", nil),
			Transactions: handler.NewTransactionHandler(base, nil, nil, nil),
			Obligations:  handler.NewObligationHandler(base, nil),
			Agreements:   handler.NewAgreementHandler(base, nil, nil),
			Callbacks:    handler.NewPaymentCallbackHandler(base, nil, "gateway-secret"),
		},
		JWTService:  jwt,
		HTTP:        httpCfg,
		ServiceName: "dues-engine",
	})
	require.NoError(t, err)
	t.Cleanup(stop)

	resident, _, err := jwt.GenerateAccessToken(uuid.New(), auth.RoleResident)
	require.NoError(t, err)
	admin, _, err := jwt.GenerateAccessToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)
	return &engineFixture{engine: engine, resident: resident, admin: admin}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestNewEngineProbes(t *testing.T) {
	f := newEngineFixture(t, config.HTTPConfig{})

	w := serve(f.engine, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	w = serve(f.engine, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngineAccessControl(t *testing.T) {
	f := newEngineFixture(t, config.HTTPConfig{})

	tests := []struct {
		name         string
		method       string
		path         string
		token        string
		expectedCode string
	}{
		{"listing without token", http.MethodGet, "/api/v1/obligations", "", dto.ErrCodeTokenInvalid},
		{"garbage token", http.MethodGet, "/api/v1/transactions", "not-a-jwt", dto.ErrCodeTokenInvalid},
		{"resident approving", http.MethodPost, "/api/v1/transactions/" + uuid.NewString() + "/approve", f.resident, shared.CodeForbidden},
		{"resident rejecting", http.MethodPost, "/api/v1/transactions/" + uuid.NewString() + "/reject", f.resident, shared.CodeForbidden},
		{"resident issuing fine", http.MethodPost, "/api/v1/fines", f.resident, shared.CodeForbidden},
		{"resident settling", http.MethodPost, "/api/v1/obligations/settle", f.resident, shared.CodeForbidden},
		{"resident changing status", http.MethodPatch, "/api/v1/obligations/" + uuid.NewString() + "/status", f.resident, shared.CodeForbidden},
		{"resident ensuring charge", http.MethodPost, "/api/v1/periodic-charges/ensure", f.resident, shared.CodeForbidden},
		{"resident building agreement", http.MethodPost, "/api/v1/agreements", f.resident, shared.CodeForbidden},
		{"admin with invalid fine", http.MethodPost, "/api/v1/fines", f.admin, shared.CodeInvalidArgument},
		{"admin with malformed id", http.MethodPost, "/api/v1/transactions/abc/approve", f.admin, shared.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(f.engine, tt.method, tt.path, tt.token)
			assert.Equal(t, dto.GetHTTPStatus(tt.expectedCode), w.Code)
			assert.Equal(t, tt.expectedCode, errorCode(t, w))
		})
	}
}

func TestNewEngineCallbackSkipsJWT(t *testing.T) {
	f := newEngineFixture(t, config.HTTPConfig{})

	w := serve(f.engine, http.MethodPost, "/api/v1/payments/callback", "", handler.CallbackTokenHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// The handler rejected the token, not the JWT middleware
	assert.Equal(t, shared.CodeUnauthorized, errorCode(t, w))

	w = serve(f.engine, http.MethodPost, "/api/v1/payments/callback", "", handler.CallbackTokenHeader, "gateway-secret")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInvalidArgument, errorCode(t, w))
}

func TestNewEngineRateLimit(t *testing.T) {
	f := newEngineFixture(t, config.HTTPConfig{
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})

	for range 2 {
		w := serve(f.engine, http.MethodGet, "/api/v1/system/info", f.resident)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(f.engine, http.MethodGet, "/api/v1/system/info", f.resident)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))

	// Probes are outside the limited group
	assert.Equal(t, http.StatusOK, serve(f.engine, http.MethodGet, "/health", "").Code)
}

func TestNewEngineBodyLimit(t *testing.T) {
	f := newEngineFixture(t, config.HTTPConfig{MaxBodySize: 8})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fines", strings.NewReader(`{"reason":"far too long a body"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+f.admin)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, errorCode(t, w))
}
