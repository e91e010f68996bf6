package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "deadline",
			err:        fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "dataset not loaded",
			err:        ErrDatasetNotLoaded,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetNotLoaded,
			wantCode:   "DATASET_NOT_LOADED",
		},
		{
			name:       "refresh in progress",
			err:        ErrRefreshInProgress,
			wantStatus: http.StatusConflict,
			wantType:   TypeRefreshInProgress,
			wantCode:   "REFRESH_IN_PROGRESS",
		},
		{
			name:       "source unavailable app error",
			err:        NewSourceUnavailableError("all failed", errors.New("502")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceUnavailable,
			wantCode:   "SOURCE_UNAVAILABLE",
		},
		{
			name:       "shape mismatch app error",
			err:        fmt.Errorf("refresh: %w", NewShapeMismatchError("scalar body", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeShapeMismatch,
			wantCode:   "SHAPE_MISMATCH",
		},
		{
			name:       "validation app error",
			err:        NewAppValidationError("bad month"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "config app error",
			err:        NewConfigError("no source", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantCode:   "CONFIG",
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/report", nil)
			handler.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/report", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	handler.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, w.Body.Len())
}

func TestErrorHandler_IncludesStackAndContext(t *testing.T) {
	handler := NewErrorHandler(nil, true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/items/x/images", nil)

	handler.HandleError(w, r, NewNotFoundError("item").WithContext("code", "X"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeProblem(t, w)
	assert.Contains(t, body, "stack")
	assert.Equal(t, map[string]any{"code": "X"}, body["context"])
}

func TestErrorHandler_APIErrorDetails(t *testing.T) {
	handler := NewErrorHandler(nil, false)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/report", nil)

	handler.HandleError(w, r, ErrValidation("type", "must be one of A B ALL"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, map[string]any{"field": "type", "message": "must be one of A B ALL"}, body["details"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	w := httptest.NewRecorder()
	handler.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/report", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, "nil map", body["panic"])
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["error_code"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	notFound := decodeProblem(t, w)
	assert.Equal(t, TypeNotFound, notFound["type"])
	assert.Equal(t, "NOT_FOUND", notFound["error_code"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/report", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeMethodDenied, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}
