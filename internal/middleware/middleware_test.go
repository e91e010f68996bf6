package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/infrastructure"
	"salesdash/internal/shared/testutil"
)

func TestRequestID(t *testing.T) {
	var seenTrace, seenReq string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = infrastructure.GetTraceID(r.Context())
		seenReq = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generated", incoming: "", reuse: false},
		{name: "propagated", incoming: "abc-123", reuse: true},
		{name: "whitespace only", incoming: "   ", reuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			require.NotEmpty(t, got)
			if tt.reuse {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.Len(t, got, 36)
			}
			assert.Equal(t, got, seenTrace)
			assert.Equal(t, got, seenReq)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rl := NewRateLimiter(1, 2, logger)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1001").Code)

	rec := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusTooManyRequests), body["status"])
	assert.True(t, logs.ContainsMessage("rate limit exceeded"))

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000").Code, "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1003").Code, "tokens refill")
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, 5, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	rl.allow("b")
	assert.Len(t, rl.clients, 2)

	now = now.Add(rl.ttl + time.Minute)
	rl.allow("c")
	assert.Len(t, rl.clients, 1)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://dash.example.com"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "https://dash.example.com", wantStatus: http.StatusOK, wantAllow: "https://dash.example.com"},
		{name: "foreign origin", method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight", method: http.MethodOptions, origin: "https://dash.example.com", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "https://dash.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/report", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.preflight {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
			}
		})
	}
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed(nil, "https://a"))
	assert.True(t, OriginAllowed([]string{"*"}, "https://a"))
	assert.True(t, OriginAllowed([]string{"HTTPS://A"}, "https://a"))
	assert.False(t, OriginAllowed([]string{"https://b"}, "https://a"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestTimeout(t *testing.T) {
	var hasDeadline bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, hasDeadline)

	Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, hasDeadline)
}

func TestOTelMiddleware_RoutePattern(t *testing.T) {
	m := NewOTelMiddleware(nil, nil, nil)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/items/{code}/images", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/items/AB1/images", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/nowhere", nil)))
}
