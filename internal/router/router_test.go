package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopsphere-storefront/config"
	"github.com/ikkim/shopsphere-storefront/internal/app/controller"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/session"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	ws "github.com/ikkim/shopsphere-storefront/internal/websocket"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) (*gin.Engine, *session.Registry) {
	t.Helper()

	// Nothing listens here; pages that call the API get a network error
	client, err := shopapi.NewClient(shopapi.Config{BaseURL: "http://127.0.0.1:1/api/", Timeout: time.Second})
	require.NoError(t, err)

	cfg := &config.Config{
		Server:    config.ServerConfig{GinMode: gin.TestMode},
		Session:   config.SessionConfig{Secret: "router-test-secret", IdleTTL: time.Minute},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://allowed.example"}},
		RateLimit: config.RateLimitConfig{Auth: "2-M"},
	}

	registry := session.NewRegistry(client, session.Options{})
	limiterStore, err := middleware.NewLimiterStore(nil)
	require.NoError(t, err)
	renderer, err := view.New()
	require.NoError(t, err)

	hub := ws.NewHub()
	r := NewRouter(
		controller.NewProductController(),
		controller.NewAdminController(hub),
		controller.NewAnalysisController(hub, nil, cfg.CORS.AllowedOrigins),
		controller.NewAuthController(),
		registry,
		middleware.NewCookieStore(cfg.Session),
		limiterStore,
		renderer,
		cfg,
	)
	engine, err := r.Setup()
	require.NoError(t, err)
	return engine, registry
}

func TestRouter_Health(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Empty(t, w.Result().Cookies())
}

func TestRouter_HomeIssuesSession(t *testing.T) {
	engine, registry := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ShopSphere")
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, middleware.SessionCookieName, w.Result().Cookies()[0].Name)
	assert.Equal(t, 1, registry.Len())
}

func TestRouter_UnknownRoute(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "The requested page could not be found")
}

func TestRouter_ProductsWhenAPIDown(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "The store is not responding right now")
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	engine, _ := setupRouterTest(t)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		form := url.Values{"email": {"ana@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestRouter_CORS(t *testing.T) {
	engine, _ := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://allowed.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://allowed.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
