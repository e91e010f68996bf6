package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "salesdash/internal/errors"
	"salesdash/pkg/contracts/domain"
)

func TestValidateStruct_FilterCriteria(t *testing.T) {
	m := NewValidationMiddleware(nil)

	tests := []struct {
		name      string
		criteria  domain.FilterCriteria
		wantField string
	}{
		{name: "empty", criteria: domain.FilterCriteria{}},
		{name: "full", criteria: domain.FilterCriteria{Type: "A", Category: "Tools", YearMonth: "2024-03", SearchText: "drill"}},
		{name: "all types", criteria: domain.FilterCriteria{Type: "ALL"}},
		{name: "bad type", criteria: domain.FilterCriteria{Type: "C"}, wantField: "type"},
		{name: "bad month", criteria: domain.FilterCriteria{YearMonth: "2024-13"}, wantField: "year_month"},
		{name: "day included", criteria: domain.FilterCriteria{YearMonth: "2024-03-01"}, wantField: "year_month"},
		{name: "long search", criteria: domain.FilterCriteria{SearchText: strings.Repeat("x", 257)}, wantField: "search_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.criteria)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestItemCodeValidator(t *testing.T) {
	v := NewValidator()
	type req struct {
		Code string `json:"code" validate:"itemcode"`
	}
	assert.NoError(t, v.Struct(req{Code: "AB-100"}))
	assert.Error(t, v.Struct(req{Code: "../etc"}))
	assert.Error(t, v.Struct(req{Code: "a/b"}))
	assert.Error(t, v.Struct(req{Code: ""}))
}

func TestQueryParamValidator(t *testing.T) {
	qv := NewQueryParamValidator(apierrors.NewErrorHandler(nil, false))

	t.Run("int in range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		n, ok := qv.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?limit=50", nil), "limit", 1, 100, 10)
		assert.True(t, ok)
		assert.Equal(t, 50, n)
	})

	t.Run("int default", func(t *testing.T) {
		n, ok := qv.ValidateInt(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "limit", 1, 100, 10)
		assert.True(t, ok)
		assert.Equal(t, 10, n)
	})

	for _, raw := range []string{"abc", "0", "101"} {
		t.Run("int rejects "+raw, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, ok := qv.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?limit="+raw, nil), "limit", 1, 100, 10)
			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, float64(http.StatusBadRequest), body["status"])
			assert.Equal(t, "INVALID_PARAMETER", body["error_code"])
			assert.Equal(t, "/errors/validation", body["type"])
		})
	}

	t.Run("bool", func(t *testing.T) {
		b, ok := qv.ValidateBool(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?rows=true", nil), "rows", false)
		assert.True(t, ok)
		assert.True(t, b)

		rec := httptest.NewRecorder()
		_, ok = qv.ValidateBool(rec, httptest.NewRequest(http.MethodGet, "/?rows=maybe", nil), "rows", false)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("enum", func(t *testing.T) {
		v, ok := qv.ValidateEnum(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "board", "monthly", []string{"monthly"}, "")
		assert.True(t, ok)
		assert.Equal(t, "monthly", v)

		rec := httptest.NewRecorder()
		_, ok = qv.ValidateEnum(rec, httptest.NewRequest(http.MethodGet, "/", nil), "board", "weekly", []string{"monthly"}, "")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
