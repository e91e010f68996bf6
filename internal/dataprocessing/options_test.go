package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salesdash/pkg/contracts/domain"
)

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(sampleLines(t))

	assert.Equal(t, []string{"A", "B"}, opts.Types)
	assert.Equal(t, []string{"Power", "Tools"}, opts.Categories)
	assert.Equal(t, []string{"Drills", "Fasteners", "Hand"}, opts.Subcategories)
	assert.Equal(t, []string{"Power Ltd", "Tooling Co"}, opts.Suppliers)
	assert.Equal(t, []string{"2023-03", "2023-04", "2023-05"}, opts.YearMonths)
}

func TestFilterOptions_Empty(t *testing.T) {
	opts := FilterOptions(nil)
	assert.Empty(t, opts.Categories)
	assert.NotNil(t, opts.Categories)
}

func TestImageCandidates(t *testing.T) {
	tests := []struct {
		name string
		code string
		exts []string
		want []string
	}{
		{
			name: "every extension in order",
			code: "AB1",
			exts: []string{".webp", ".jpg", ".png"},
			want: []string{"./public/images/AB1.webp", "./public/images/AB1.jpg", "./public/images/AB1.png"},
		},
		{
			name: "extension without dot",
			code: "AB1",
			exts: []string{"jpg"},
			want: []string{"./public/images/AB1.jpg"},
		},
		{name: "empty code", code: " ", exts: []string{".webp"}, want: nil},
		{name: "unknown item", code: domain.UnknownItemCode, exts: []string{".webp"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageCandidates("./public/images/", tt.exts, tt.code))
		})
	}
}
