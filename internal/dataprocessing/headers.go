package dataprocessing

import (
	"strings"
)

// Field is a logical column of the canonical sales schema.
type Field string

const (
	FieldInvoiceFile  Field = "InvoiceFile"
	FieldInvoicePath  Field = "InvoicePath"
	FieldType         Field = "Type"
	FieldClient       Field = "Client"
	FieldPhone        Field = "Phone"
	FieldItemCode     Field = "ItemCode"
	FieldDescription  Field = "Description"
	FieldQty          Field = "Qty"
	FieldUnitPrice    Field = "UnitPrice"
	FieldLineTotal    Field = "LineTotal"
	FieldInvoiceTotal Field = "InvoiceTotal"
	FieldSupplier     Field = "Supplier"
	FieldCategory     Field = "Category"
	FieldSubcategory  Field = "Subcategory"
)

// FieldSpec pairs a logical field with its accepted header spellings,
// most preferred first.
type FieldSpec struct {
	Field    Field
	Synonyms []string
}

// CanonicalSchema is the single synonym table for every source.
var CanonicalSchema = []FieldSpec{
	{FieldInvoiceFile, []string{"InvoiceFile", "Date", "Invoice File"}},
	{FieldInvoicePath, []string{"InvoicePath", "Invoice", "Invoice No", "InvoiceNum", "Invoice Number"}},
	{FieldType, []string{"Type", "Invoice Type"}},
	{FieldClient, []string{"Client", "Customer", "Client Name"}},
	{FieldPhone, []string{"Phone", "Client Phone", "Phone Number"}},
	{FieldItemCode, []string{"ItemCode", "Item Code", "Code", "SKU"}},
	{FieldDescription, []string{"Product/Description", "ProductDescription", "Product Description", "Description"}},
	{FieldQty, []string{"Qty", "Quantity", "QTY"}},
	{FieldUnitPrice, []string{"UnitPrice", "Unit Price", "Price"}},
	{FieldLineTotal, []string{"LineTotal", "Line Total", "Amount", "Total"}},
	{FieldInvoiceTotal, []string{"InvoiceTotal", "Invoice Total", "Grand Total"}},
	{FieldSupplier, []string{"Supplier", "Vendor"}},
	{FieldCategory, []string{"Category"}},
	{FieldSubcategory, []string{"Sub-category", "Subcategory", "Sub Category"}},
}

// HeaderMap records which source header backs each logical field.
// It is built once per load and read-only afterwards.
type HeaderMap struct {
	keys  map[Field]string
	index map[Field]int
}

// BuildHeaderMap matches sample keys against CanonicalSchema. For every field
// the first synonym (in declared order) with a case-insensitive exact match
// wins. When several keys match that synonym the earliest key wins.
func BuildHeaderMap(keys []string) HeaderMap {
	m := HeaderMap{
		keys:  make(map[Field]string, len(CanonicalSchema)),
		index: make(map[Field]int, len(CanonicalSchema)),
	}

	for _, spec := range CanonicalSchema {
	synonyms:
		for _, syn := range spec.Synonyms {
			for i, key := range keys {
				if strings.EqualFold(strings.TrimSpace(key), syn) {
					m.keys[spec.Field] = key
					m.index[spec.Field] = i
					break synonyms
				}
			}
		}
	}

	return m
}

// Key returns the source key for a field.
func (m HeaderMap) Key(f Field) (string, bool) {
	k, ok := m.keys[f]
	return k, ok
}

// Index returns the column position for a field when the map was built from
// a header row.
func (m HeaderMap) Index(f Field) (int, bool) {
	i, ok := m.index[f]
	return i, ok
}

// Missing lists fields without a matching header in schema order.
func (m HeaderMap) Missing() []Field {
	var missing []Field
	for _, spec := range CanonicalSchema {
		if _, ok := m.keys[spec.Field]; !ok {
			missing = append(missing, spec.Field)
		}
	}
	return missing
}

// Resolved returns field name to source key for every matched field.
func (m HeaderMap) Resolved() map[string]string {
	out := make(map[string]string, len(m.keys))
	for f, k := range m.keys {
		out[string(f)] = k
	}
	return out
}
