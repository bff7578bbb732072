package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/session"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory stand-in for the storefront REST API
type fakeBackend struct {
	mu          sync.Mutex
	reviews     []map[string]interface{}
	created     []map[string]interface{}
	deleted     []string
	cursors     []string
	analyzeFail bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		reviews: []map[string]interface{}{
			{"id": "r1", "product_id": "p1", "user_id": "u1", "rating": 5, "review_text": "Great sound", "timestamp": "2025-01-02T10:00:00Z"},
			{"id": "r2", "product_id": "p1", "user_id": "u2", "rating": 2, "review_text": "Too quiet", "timestamp": "2025-01-03T10:00:00Z"},
			{"id": "r3", "product_id": "p2", "user_id": "u9", "rating": 5, "review_text": "Best ever best ever", "timestamp": "2025-01-04T10:00:00Z"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products/{$}", func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		b.mu.Lock()
		b.cursors = append(b.cursors, cursor)
		b.mu.Unlock()

		if cursor == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": []map[string]interface{}{
					{"id": "p1", "name": "Noise Cancelling Headphones", "category": "Audio", "rating": 4.5, "actual_price": "$129.99"},
					{"id": "p2", "name": "Smartwatch Pro", "category": "Wearables", "rating": "4.8", "actual_price": "$199.99"},
				},
				"next_cursor": "c1",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":     true,
			"data":        []map[string]interface{}{{"id": "p3", "name": "Wireless Speaker", "rating": 4.3}},
			"next_cursor": nil,
		})
	})

	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "p1":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"id": "p1", "name": "Noise Cancelling Headphones", "category": "Audio",
					"about_product": "Quiet please", "rating": 4.5, "rating_count": 120,
					"discount_percentage": "20%", "actual_price": "$129.99",
				},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Product not found"})
		}
	})

	mux.HandleFunc("GET /api/reviews/{$}", func(w http.ResponseWriter, r *http.Request) {
		productID := r.URL.Query().Get("product_id")
		b.mu.Lock()
		items := []map[string]interface{}{}
		for _, rv := range b.reviews {
			if productID == "" || rv["product_id"] == productID {
				items = append(items, rv)
			}
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": items, "next_cursor": nil})
	})

	mux.HandleFunc("POST /api/reviews/{$}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.created = append(b.created, body)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "r-new"})
	})

	mux.HandleFunc("DELETE /api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, rv := range b.reviews {
			if rv["id"] == id {
				b.reviews = append(b.reviews[:i], b.reviews[i+1:]...)
				b.deleted = append(b.deleted, id)
				writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Review not found"})
	})

	mux.HandleFunc("POST /api/reviews/analyze_all", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fail := b.analyzeFail
		b.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "model offline"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_analyzed": 3,
			"fake_count":     1,
			"flagged_users":  []string{"u9"},
			"flagged_reviews": []map[string]interface{}{{
				"review_id":     "r3",
				"user_id":       "u9",
				"rule_based":    true,
				"ml":            map[string]interface{}{"confidence": 0.87, "is_fake_ml": true},
				"behavioral":    map[string]interface{}{"is_fake_behavioral": true, "flags": []string{"repetitive_text"}, "suspicious_score": 0.8},
				"is_fake_final": true,
			}},
		})
	})

	mux.HandleFunc("POST /api/users/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "taken@example.com" {
			writeJSON(w, http.StatusConflict, map[string]interface{}{"error": "Email already registered"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 42})
	})

	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "Invalid credentials"})
			return
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u42"}).SignedString([]byte("test"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": token})
	})

	return mux
}

// setupPageTest starts a fake backend and returns an engine whose requests
// all run as the same visitor.
func setupPageTest(t *testing.T) (*gin.Engine, *session.State, *fakeBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	client, err := shopapi.NewClient(shopapi.Config{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)

	registry := session.NewRegistry(client, session.Options{})
	st := registry.Create()

	renderer, err := view.New()
	require.NoError(t, err)

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(middleware.LoggingMiddleware())
	router.Use(func(c *gin.Context) {
		middleware.SetState(c, st)
		c.Next()
	})
	return router, st, backend
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
