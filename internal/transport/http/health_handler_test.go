package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"salesdash/internal/services"
)

type loadedProbe bool

func (p loadedProbe) Loaded() bool { return bool(p) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		loaded     bool
		path       string
		wantStatus int
		wantField  string
		wantValue  interface{}
	}{
		{name: "liveness", path: "/healthz", wantStatus: http.StatusOK, wantField: "status", wantValue: "alive"},
		{name: "ready", loaded: true, path: "/readyz", wantStatus: http.StatusOK, wantField: "status", wantValue: "ready"},
		{name: "not ready", loaded: false, path: "/readyz", wantStatus: http.StatusServiceUnavailable, wantField: "status", wantValue: "not_ready"},
		{name: "version", path: "/version", wantStatus: http.StatusOK, wantField: "version", wantValue: "0.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService("0.3.0", "", loadedProbe(tt.loaded), nil, nil)
			h := chi.NewRouter()
			NewHealthHandler(svc, nil).Register(h)

			rec := do(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantValue, decode(t, rec)[tt.wantField])
		})
	}
}
