package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curastock/curastock/internal/observability"
	"github.com/curastock/curastock/internal/shared"
)

func testConfig() *Config {
	return &Config{AppEnv: "test", AppAddr: ":0"}
}

func TestRouterHealthz(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger:  slog.New(slog.DiscardHandler),
		Config:  testConfig(),
		Metrics: observability.NewMetrics(),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger:  slog.New(slog.DiscardHandler),
		Config:  testConfig(),
		Metrics: observability.NewMetrics(),
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestActorMiddlewarePropagatesHeader(t *testing.T) {
	var gotActor string
	stack := MiddlewareStack(MiddlewareConfig{Logger: slog.New(slog.DiscardHandler), Config: testConfig()})
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "nurse-kim")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nurse-kim", gotActor)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, shared.DefaultActor, gotActor)
}

func TestSecurityHeaders(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: slog.New(slog.DiscardHandler),
		Config: testConfig(),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
