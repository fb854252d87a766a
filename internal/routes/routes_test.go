package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/lanchat/internal/app"
	"github.com/templui/lanchat/internal/config"
	"github.com/templui/lanchat/internal/model"
)

func newServer(t *testing.T, translateURL string) (*app.App, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{
		AppName:          "LanChat",
		AppEnv:           "development",
		DBDriver:         "sqlite",
		DBConnection:     filepath.Join(t.TempDir(), "lanchat.db"),
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		APIRateLimit:     100,
		APIRateWindow:    time.Minute,
		TranslateURL:     translateURL,
		TranslateTimeout: time.Second,
	}
	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)
	return a, srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Hallo","Hello",null]],null,"en"]`))
	}))
	t.Cleanup(upstream.Close)

	a, srv := newServer(t, upstream.URL)
	ctx := context.Background()
	ident, err := a.Store.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, a.Store.MergeProfile(ctx, ident.UID, model.NewProfile(ident.UID, "ana@example.com", "Ana", "", time.Now()).Document()))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"api root", http.MethodGet, "/api", "", "", http.StatusOK},
		{"health", http.MethodGet, "/api/health", "", "", http.StatusOK},
		{"trpc translate", http.MethodPost, "/trpc/translate", "", `{"text":"Hello","targetLang":"de"}`, http.StatusOK},
		{"api translate", http.MethodPost, "/api/translate", "", `{"text":"Hello","targetLang":"de"}`, http.StatusOK},
		{"users need auth", http.MethodGet, "/api/users", "", "", http.StatusUnauthorized},
		{"users bad token", http.MethodGet, "/api/users", "forged", "", http.StatusUnauthorized},
		{"users", http.MethodGet, "/api/users", ident.IDToken, "", http.StatusOK},
		{"user", http.MethodGet, "/api/users/" + ident.UID, ident.IDToken, "", http.StatusOK},
		{"media disabled", http.MethodPost, "/api/media", ident.IDToken, "", http.StatusServiceUnavailable},
		{"preflight", http.MethodOptions, "/api/translate", "", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRoutes_TranslateRateLimited(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Hallo","Hello",null]],null,"en"]`))
	}))
	t.Cleanup(upstream.Close)

	a, srv := newServer(t, upstream.URL)
	for range a.Cfg.APIRateLimit {
		require.Equal(t, http.StatusOK, do(t, http.MethodPost, srv.URL+"/api/translate", "", `{"text":"Hello","targetLang":"de"}`).StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(t, http.MethodPost, srv.URL+"/api/translate", "", `{"text":"Hello","targetLang":"de"}`).StatusCode)
}
