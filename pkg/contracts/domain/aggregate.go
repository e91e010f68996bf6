package domain

// Aggregate holds KPI totals, leaderboards and the monthly rollup computed
// from one set of sales lines.
type Aggregate struct {
	InvoiceCount      int     `json:"invoice_count"`
	Turnover          float64 `json:"turnover"`
	TotalQty          float64 `json:"total_qty"`
	AveragePerInvoice float64 `json:"average_per_invoice"`

	// TopClients is keyed by invoice type ("A", "B").
	TopClients   map[string]ClientBoards `json:"top_clients"`
	TopSuppliers SupplierBoards          `json:"top_suppliers"`
	BestItems    ItemBoards              `json:"best_items"`
	Monthly      []MonthlyRollup         `json:"monthly"`
}

// RankedValue is one leaderboard entry ranked by a summed amount.
type RankedValue struct {
	Name  string  `json:"name" csv:"Name"`
	Value float64 `json:"value" csv:"Value"`
}

// RankedCount is one leaderboard entry ranked by distinct invoices.
type RankedCount struct {
	Name string `json:"name" csv:"Name"`
	// Key is the grouping identity (a phone number for clients).
	Key      string `json:"key,omitempty" csv:"Key"`
	Invoices int    `json:"invoices" csv:"Invoices"`
}

// ClientBoards ranks the clients of one invoice type.
type ClientBoards struct {
	ByValue    []RankedValue `json:"by_value"`
	ByInvoices []RankedCount `json:"by_invoices"`
}

// SupplierBoards ranks suppliers.
type SupplierBoards struct {
	ByValue    []RankedValue `json:"by_value"`
	ByInvoices []RankedCount `json:"by_invoices"`
}

// ItemStat is one best-selling item entry with first-seen display metadata.
type ItemStat struct {
	ItemCode    string   `json:"item_code" csv:"ItemCode"`
	Description string   `json:"description" csv:"Description"`
	Category    string   `json:"category" csv:"Category"`
	Subcategory string   `json:"subcategory" csv:"Subcategory"`
	Value       float64  `json:"value" csv:"Value"`
	Qty         float64  `json:"qty" csv:"Qty"`
	Images      []string `json:"images,omitempty" csv:"-"`
}

// ItemBoards ranks items by value and by quantity.
type ItemBoards struct {
	ByValue []ItemStat `json:"by_value"`
	ByQty   []ItemStat `json:"by_qty"`
}

// MonthlyRollup summarizes one "YYYY-MM" bucket.
type MonthlyRollup struct {
	YearMonth    string  `json:"year_month" csv:"YearMonth"`
	InvoiceCount int     `json:"invoice_count" csv:"InvoiceCount"`
	Qty          float64 `json:"qty" csv:"Qty"`
	Turnover     float64 `json:"turnover" csv:"Turnover"`
	Average      float64 `json:"average" csv:"Average"`
}

// FilterOptions lists the distinct values available to each filter control.
type FilterOptions struct {
	Types         []string `json:"types"`
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Suppliers     []string `json:"suppliers"`
	YearMonths    []string `json:"year_months"`
}

// ReportResult is the outcome of one recompute against the current dataset.
type ReportResult struct {
	Criteria       FilterCriteria `json:"criteria"`
	Rows           []SalesLine    `json:"rows,omitempty"`
	RowCount       int            `json:"row_count"`
	Aggregate      Aggregate      `json:"aggregate"`
	Baseline       Aggregate      `json:"baseline"`
	PercentOfTotal float64        `json:"percent_of_total"`
}
