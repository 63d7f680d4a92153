package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/priceingest/internal/config"
	"github.com/JonMunkholm/priceingest/internal/core"
	"github.com/JonMunkholm/priceingest/internal/store/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

// setupTestServer returns a server backed by an in-memory store.
func setupTestServer(t *testing.T, cfg *config.Config) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { store.Close() })
	return NewServer(core.NewService(store, nil), cfg), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := setupTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestProductLifecycle(t *testing.T) {
	s, _ := setupTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/products", `{"name": "  Laptop ", "price": 1299.99}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[productResponse](t, rec)
	assert.Equal(t, "Laptop", created.Name)
	assert.Equal(t, 1299.99, created.Price)
	assert.Equal(t, "/api/products/"+created.ID, rec.Header().Get("Location"))

	rec = do(t, s, http.MethodGet, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[productResponse](t, rec).ID)

	rec = do(t, s, http.MethodPut, "/api/products/"+created.ID, `{"name": "Gaming Laptop", "price": "1499"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1499.0, decode[productResponse](t, rec).Price)

	rec = do(t, s, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]productResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Gaming Laptop", list[0].Name)

	rec = do(t, s, http.MethodDelete, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DB001", decode[ErrorResponse](t, rec).Code)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code core.ReasonCode
		rej  string
	}{
		{"empty name", `{"name": " ", "price": 10}`, core.ReasonEmptyName, "REJ002"},
		{"missing price", `{"name": "Mouse"}`, core.ReasonMalformedPrice, "REJ003"},
		{"negative price", `{"name": "Mouse", "price": -5}`, core.ReasonNegativePrice, "REJ004"},
		{"too expensive", `{"name": "Yacht", "price": 1000000.01}`, core.ReasonPriceOutOfRange, "REJ005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := setupTestServer(t, testConfig())

			rec := do(t, s, http.MethodPost, "/api/products", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.rej, resp.Code)
			assert.True(t, strings.HasPrefix(resp.Error, string(tt.code)), resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.NotEmpty(t, resp.Action)

			products, err := store.List(t.Context())
			require.NoError(t, err)
			assert.Empty(t, products)
		})
	}
}

func TestCreateProduct_InvalidBody(t *testing.T) {
	s, _ := setupTestServer(t, testConfig())

	for _, body := range []string{`not json`, `{"name": "Mouse", "price": "abc"}`} {
		rec := do(t, s, http.MethodPost, "/api/products", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "HTTP004", decode[ErrorResponse](t, rec).Code)
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	s, _ := setupTestServer(t, testConfig())

	rec := do(t, s, http.MethodPut, "/api/products/00000000-0000-0000-0000-000000000000", `{"name": "X", "price": 1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/products/00000000-0000-0000-0000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoStore(t *testing.T) {
	s := NewServer(core.NewService(nil, nil), testConfig())

	rec := do(t, s, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DB002", decode[ErrorResponse](t, rec).Code)
}

func TestCheck(t *testing.T) {
	s, store := setupTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/api/check", `{"line": "Laptop,1299.99"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ok := decode[core.CheckResult](t, rec)
	assert.True(t, ok.Accepted)
	assert.Equal(t, "Laptop", ok.Name)

	rec = do(t, s, http.MethodPost, "/api/check", `{"line": "Null Price,"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	bad := decode[core.CheckResult](t, rec)
	assert.False(t, bad.Accepted)
	assert.Equal(t, core.ReasonMalformedPrice, bad.Code)

	products, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestRuns(t *testing.T) {
	s, store := setupTestServer(t, testConfig())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.SaveRun(t.Context(), core.RunSummary{
			ID:        id,
			Input:     "products.csv",
			Summary:   core.BatchSummary{TotalLines: 20, Accepted: 14, Rejected: 6},
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := do(t, s, http.MethodGet, "/api/runs?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]runResponse](t, rec)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, 70.0, runs[0].SuccessRate)

	rec = do(t, s, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "products.csv")
}

func TestAPIKeyRequiredForMutations(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s, _ := setupTestServer(t, cfg)

	rec := do(t, s, http.MethodPost, "/api/products", `{"name": "Mouse", "price": 10}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name": "Mouse", "price": 10}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Reads stay open.
	rec = do(t, s, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	s, _ := setupTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRunsPage_NoStoreRendersHTMLError(t *testing.T) {
	s := NewServer(core.NewService(nil, nil), testConfig())

	rec := do(t, s, http.MethodGet, "/runs", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "DB002")
}

func TestWithCaller(t *testing.T) {
	var got core.Caller
	h := withCaller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = core.CallerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/products/1", nil)
	req.RemoteAddr = "192.0.2.7:4321"
	req.Header.Set("User-Agent", "curl/8.5")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, core.Caller{IP: "192.0.2.7", UserAgent: "curl/8.5"}, got)
}
