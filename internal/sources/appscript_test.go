package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salesdash/internal/errors"
)

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAppScriptSource_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLen   int
		wantMatrx bool
		wantErr   error
	}{
		{name: "bare array", status: 200, body: `[{"Client":"Acme","Qty":3},{"Client":"Beta"}]`, wantLen: 2},
		{name: "data envelope", status: 200, body: `{"data":[{"Client":"Acme"}]}`, wantLen: 1},
		{name: "rows envelope", status: 200, body: `{"rows":[{"Client":"Acme"},{"Client":"B"},{"Client":"C"}]}`, wantLen: 3},
		{name: "matrix", status: 200, body: `[["Client","Qty"],["Acme",3],["Beta",1]]`, wantLen: 2, wantMatrx: true},
		{name: "empty array", status: 200, body: `[]`, wantLen: 0},
		{name: "object without rows", status: 200, body: `{"error":"nope"}`, wantErr: apperrors.ErrShapeMismatch},
		{name: "scalar", status: 200, body: `42`, wantErr: apperrors.ErrShapeMismatch},
		{name: "mixed rows", status: 200, body: `[{"Client":"Acme"}, 7]`, wantErr: apperrors.ErrShapeMismatch},
		{name: "html error page", status: 200, body: `<html>quota</html>`, wantErr: apperrors.ErrShapeMismatch},
		{name: "server error", status: 500, body: `{}`, wantErr: apperrors.ErrSourceUnavailable},
		{name: "not found", status: 404, body: ``, wantErr: apperrors.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, tt.status, tt.body)
			src := NewAppScriptSource(srv.URL, srv.Client(), nil)

			p, err := src.Fetch(context.Background())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, p.Len())
			assert.Equal(t, tt.wantMatrx, p.IsMatrix())
			assert.Equal(t, src.Name(), p.Source)
		})
	}
}

func TestAppScriptSource_MatrixHeader(t *testing.T) {
	srv := jsonServer(t, 200, `[["Invoice","Client",null],["INV-1","Acme","x"]]`)
	p, err := NewAppScriptSource(srv.URL, srv.Client(), nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice", "Client", ""}, p.Header)
	assert.Equal(t, []any{"INV-1", "Acme", "x"}, p.Rows[0])
}

func TestAppScriptSource_Unreachable(t *testing.T) {
	srv := jsonServer(t, 200, `[]`)
	url := srv.URL
	srv.Close()

	_, err := NewAppScriptSource(url, nil, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSourceUnavailable, apperrors.TypeOf(err))
}

func TestAppScriptSource_CancelledContext(t *testing.T) {
	srv := jsonServer(t, 200, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAppScriptSource(srv.URL, srv.Client(), nil).Fetch(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
