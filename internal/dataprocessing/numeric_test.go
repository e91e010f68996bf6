package dataprocessing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salesdash/internal/errors"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "US thousands and decimal", input: "1,234.56", want: 1234.56},
		{name: "EU thousands and decimal", input: "1.234,56", want: 1234.56},
		{name: "empty string", input: "", want: 0},
		{name: "nil", input: nil, want: 0},
		{name: "letters only", input: "abc", want: 0},
		{name: "comma only is decimal", input: "12,5", want: 12.5},
		{name: "dot only is decimal", input: "12.5", want: 12.5},
		{name: "plain integer", input: "42", want: 42},
		{name: "currency symbol", input: "$1,000.25", want: 1000.25},
		{name: "currency suffix with spaces", input: " 2.500,00 IQD ", want: 2500},
		{name: "negative", input: "-15.5", want: -15.5},
		{name: "multiple dots", input: "1.234.567", want: 0},
		{name: "lone minus", input: "-", want: 0},
		{name: "float64 passthrough", input: 3.25, want: 3.25},
		{name: "int passthrough", input: 7, want: 7},
		{name: "json number", input: json.Number("19.99"), want: 19.99},
		{name: "NaN", input: math.NaN(), want: 0},
		{name: "bool", input: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.input))
		})
	}
}

func TestParseNumberStrict(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    float64
		wantErr bool
	}{
		{name: "valid", input: "1,234.56", want: 1234.56},
		{name: "blank is not an error", input: "   ", want: 0},
		{name: "nil is not an error", input: nil, want: 0},
		{name: "garbage", input: "n/a", wantErr: true},
		{name: "two commas", input: "1,234,567", wantErr: true},
		{name: "infinity", input: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumberStrict(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrValueUnparseable)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
