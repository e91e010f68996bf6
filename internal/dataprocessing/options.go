package dataprocessing

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"salesdash/pkg/contracts/domain"
)

// FilterOptions collects the distinct non-empty values of each filterable
// field, sorted with a locale-aware collation.
func FilterOptions(rows []domain.SalesLine) domain.FilterOptions {
	types := newValueSet()
	categories := newValueSet()
	subcategories := newValueSet()
	suppliers := newValueSet()
	months := newValueSet()

	for _, r := range rows {
		types.add(r.Type)
		categories.add(r.Category)
		subcategories.add(r.Subcategory)
		suppliers.add(r.Supplier)
		months.add(r.YearMonth)
	}

	return domain.FilterOptions{
		Types:         types.sortedBytes(),
		Categories:    categories.sorted(),
		Subcategories: subcategories.sorted(),
		Suppliers:     suppliers.sorted(),
		YearMonths:    months.sortedBytes(),
	}
}

type valueSet map[string]struct{}

func newValueSet() valueSet { return valueSet{} }

func (s valueSet) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s valueSet) values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// sorted orders display names. A collator is not safe for concurrent use,
// so each call builds its own.
func (s valueSet) sorted() []string {
	out := s.values()
	collate.New(language.Und).SortStrings(out)
	return out
}

// sortedBytes orders codes and zero-padded keys.
func (s valueSet) sortedBytes() []string {
	out := s.values()
	sort.Strings(out)
	return out
}

// ImageCandidates returns the image URLs to try for an item code, in
// extension order. An empty code has no image.
func ImageCandidates(base string, exts []string, code string) []string {
	code = strings.TrimSpace(code)
	if code == "" || code == domain.UnknownItemCode {
		return nil
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, base+code+ext)
	}
	return out
}
