package domain

import (
	"time"
)

// Invoice direction codes.
const (
	InvoiceTypeOut = "A"
	InvoiceTypeIn  = "B"
	InvoiceTypeAll = "ALL"
)

// UnknownItemCode groups lines that carry neither an item code nor a description.
const UnknownItemCode = "UNKNOWN ITEM"

// SalesLine is one normalized invoice line.
//
// Lines are built once per dataset load by the normalizer and never mutated
// afterwards. Every consumer (filters, aggregates, exporters, the API) reads
// the same values, so copies are cheap and safe to share across goroutines.
//
// Numeric fields default to 0 and text fields to "" when the source column is
// missing or its value cannot be parsed. InvoiceDate is nil and YearMonth is
// empty when no date strategy produced a date.
type SalesLine struct {
	// InvoiceDateFile is the raw invoice filename or date token, kept for display.
	InvoiceDateFile string `json:"invoice_date_file" csv:"InvoiceFile"`

	Client string `json:"client" csv:"Client"`
	Phone  string `json:"phone" csv:"Phone"`

	// Type is "A" (outgoing), "B" (incoming) or "" when unrecognized.
	Type      string `json:"type" csv:"Type"`
	TypeLabel string `json:"type_label" csv:"TypeLabel"`

	// InvoiceID groups lines into one invoice. Not unique across sources.
	InvoiceID string `json:"invoice_id" csv:"Invoice"`

	// ItemCode is trimmed, upper-cased and stripped of whitespace. It falls
	// back to the upper-cased description and then to UnknownItemCode.
	ItemCode    string `json:"item_code" csv:"ItemCode"`
	Description string `json:"description" csv:"Description"`

	Qty          float64 `json:"qty" csv:"Qty"`
	UnitPrice    float64 `json:"unit_price" csv:"UnitPrice"`
	LineTotal    float64 `json:"line_total" csv:"LineTotal"`
	InvoiceTotal float64 `json:"invoice_total" csv:"InvoiceTotal"`

	Supplier    string `json:"supplier" csv:"Supplier"`
	Category    string `json:"category" csv:"Category"`
	Subcategory string `json:"subcategory" csv:"Subcategory"`

	InvoiceDate *time.Time `json:"invoice_date,omitempty" csv:"InvoiceDate"`
	// YearMonth is "YYYY-MM" or empty.
	YearMonth string `json:"year_month" csv:"YearMonth"`
}

// TypeLabel returns the display label for an invoice type code.
func TypeLabel(code string) string {
	switch code {
	case InvoiceTypeOut:
		return "INVOICE OUT"
	case InvoiceTypeIn:
		return "INVOICE IN"
	default:
		return ""
	}
}

// FilterCriteria selects a subset of sales lines. Empty fields impose no constraint.
type FilterCriteria struct {
	Type        string `json:"type,omitempty" validate:"omitempty,oneof=A B ALL"`
	Category    string `json:"category,omitempty" validate:"max=256"`
	Subcategory string `json:"subcategory,omitempty" validate:"max=256"`
	YearMonth   string `json:"year_month,omitempty" validate:"omitempty,yearmonth"`
	Supplier    string `json:"supplier,omitempty" validate:"max=256"`
	SearchText  string `json:"search_text,omitempty" validate:"max=256"`
}

// IsEmpty reports whether the criteria select every line.
func (c FilterCriteria) IsEmpty() bool {
	return (c.Type == "" || c.Type == InvoiceTypeAll) &&
		c.Category == "" && c.Subcategory == "" && c.YearMonth == "" &&
		c.Supplier == "" && c.SearchText == ""
}
