package testutil

// SampleRecords returns invoice records shaped like an Apps Script export.
// Headers use mixed synonyms and numbers use mixed locales on purpose.
//
// Totals: INV-1 (type A, Acme) 30 + 45, INV-2 (type A, Beta) 1234.56,
// INV-3 (type B, Gamma Supply) 200. Turnover 1509.56 over 3 invoices.
func SampleRecords() []map[string]any {
	return []map[string]any{
		{
			"Date": "INV-1001-0323", "Invoice No": "INV-1", "Invoice Type": "A",
			"Customer": "Acme", "Phone": "0700", "SKU": " ab 1 ", "Description": "Hammer",
			"QTY": "3", "Unit Price": "10", "Amount": "", "Grand Total": "75",
			"Vendor": "Tooling Co", "Category": "Tools", "Sub Category": "Hand",
		},
		{
			"Date": "INV-1001-0323", "Invoice No": "INV-1", "Invoice Type": "A",
			"Customer": "Acme", "Phone": "0700", "SKU": "CD2", "Description": "Wrench",
			"QTY": "1", "Unit Price": "10", "Amount": "45", "Grand Total": "75",
			"Vendor": "Tooling Co", "Category": "Tools", "Sub Category": "Hand",
		},
		{
			"Date": "230415 order.pdf", "Invoice No": "INV-2", "Invoice Type": "type a",
			"Customer": "Beta", "Phone": "0800", "SKU": "EF3", "Description": "Drill",
			"QTY": "1", "Unit Price": "1.234,56", "Amount": "1.234,56", "Grand Total": "1.234,56",
			"Vendor": "Power Ltd", "Category": "Power", "Sub Category": "Drills",
		},
		{
			"Date": "IPEC Invoice 77-0523", "Invoice No": "INV-3", "Invoice Type": "B",
			"Customer": "Gamma Supply", "Phone": "0900", "SKU": "", "Description": "nails",
			"QTY": "100", "Unit Price": "2", "Amount": "$200.00", "Grand Total": "200",
			"Vendor": "Tooling Co", "Category": "Tools", "Sub Category": "Fasteners",
		},
		{
			"Date": "", "Invoice No": "", "Invoice Type": "", "Customer": "", "Phone": "",
			"SKU": "", "Description": "", "QTY": "", "Unit Price": "", "Amount": "",
			"Grand Total": "", "Vendor": "", "Category": "", "Sub Category": "",
		},
	}
}

// SampleMatrixHeader is the header row matching SampleMatrix.
func SampleMatrixHeader() []string {
	return []string{"InvoiceFile", "Invoice", "Type", "Client", "Client Phone", "Item Code",
		"Product Description", "Quantity", "Price", "Line Total", "Invoice Total",
		"Supplier", "Category", "Subcategory"}
}

// SampleMatrix returns rows for SampleMatrixHeader as a spreadsheet API would.
func SampleMatrix() [][]any {
	return [][]any{
		{"INV-5-0124", "INV-5", "A", "Delta", "111", "X1", "Saw", "2", "15", "", "30", "Tooling Co", "Tools", "Hand"},
		{"INV-6-0224", "INV-6", "B", "Echo", "222", "Y2", "Glue", "4", "2.5", "10", "10", "Chem Inc", "Supplies", "Adhesive"},
		{},
	}
}
