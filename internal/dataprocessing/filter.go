package dataprocessing

import (
	"strings"

	"salesdash/pkg/contracts/domain"
)

// FilterRows returns the lines matching every non-empty criterion.
// Field criteria compare exactly (case-sensitive). SearchText matches
// case-insensitively against client, item code, category, subcategory and
// description. The result is a new slice; rows is not modified.
func FilterRows(rows []domain.SalesLine, c domain.FilterCriteria) []domain.SalesLine {
	search := strings.ToLower(strings.TrimSpace(c.SearchText))

	out := make([]domain.SalesLine, 0, len(rows))
	for _, r := range rows {
		if matches(r, c, search) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r domain.SalesLine, c domain.FilterCriteria, search string) bool {
	if c.Type != "" && c.Type != domain.InvoiceTypeAll && r.Type != c.Type {
		return false
	}
	if c.Category != "" && r.Category != c.Category {
		return false
	}
	if c.Subcategory != "" && r.Subcategory != c.Subcategory {
		return false
	}
	if c.YearMonth != "" && r.YearMonth != c.YearMonth {
		return false
	}
	if c.Supplier != "" && r.Supplier != c.Supplier {
		return false
	}
	if search != "" {
		haystack := strings.ToLower(strings.Join([]string{
			r.Client, r.ItemCode, r.Category, r.Subcategory, r.Description,
		}, " "))
		if !strings.Contains(haystack, search) {
			return false
		}
	}
	return true
}
