package exporter

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"salesdash/pkg/contracts/domain"
)

// Leaderboard names accepted by Leaderboard.
const (
	BoardClientsAByValue    = "clients-a-value"
	BoardClientsAByInvoices = "clients-a-invoices"
	BoardClientsBByValue    = "clients-b-value"
	BoardClientsBByInvoices = "clients-b-invoices"
	BoardSuppliersByValue   = "suppliers-value"
	BoardSuppliersByInvoice = "suppliers-invoices"
	BoardItemsByValue       = "items-value"
	BoardItemsByQty         = "items-qty"
	BoardMonthly            = "monthly"
)

// ErrUnknownBoard is returned for a leaderboard name Leaderboard does not know.
var ErrUnknownBoard = errors.New("unknown leaderboard")

// LineHeaders is the column order of a sales line export.
var LineHeaders = []string{
	"Invoice", "InvoiceFile", "InvoiceDate", "YearMonth", "Type", "TypeLabel",
	"Client", "Phone", "ItemCode", "Description", "Category", "Subcategory",
	"Supplier", "Qty", "UnitPrice", "LineTotal", "InvoiceTotal",
}

// LineRecord renders one line in LineHeaders order.
func LineRecord(l domain.SalesLine) []string {
	return []string{
		l.InvoiceID, l.InvoiceDateFile, formatDate(l.InvoiceDate), l.YearMonth, l.Type, l.TypeLabel,
		l.Client, l.Phone, l.ItemCode, l.Description, l.Category, l.Subcategory,
		l.Supplier, formatQty(l.Qty), formatFloat(l.UnitPrice), formatFloat(l.LineTotal), formatFloat(l.InvoiceTotal),
	}
}

// WriteLines streams lines as CSV with a BOM and returns the row count.
func (w *CSVWriter) WriteLines(out io.Writer, lines []domain.SalesLine) (int, error) {
	stream, err := NewStreamWriter(out, LineHeaders)
	if err != nil {
		return 0, err
	}
	for i, l := range lines {
		if err := stream.WriteRecord(LineRecord(l)); err != nil {
			return stream.Count(), fmt.Errorf("failed to write line %d: %w", i, err)
		}
	}
	if err := stream.Close(); err != nil {
		return stream.Count(), err
	}
	return stream.Count(), nil
}

// Boards lists every leaderboard name in a stable order.
func Boards() []string {
	names := make([]string, 0, len(boardBuilders))
	for name := range boardBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Leaderboard flattens one board of agg into CSV headers and records. Rank
// starts at 1 and follows the aggregate's ordering.
func Leaderboard(agg domain.Aggregate, board string) ([]string, [][]string, error) {
	build, ok := boardBuilders[board]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBoard, board)
	}
	headers, records := build(agg)
	return headers, records, nil
}

type boardBuilder func(domain.Aggregate) ([]string, [][]string)

var boardBuilders = map[string]boardBuilder{
	BoardClientsAByValue: func(a domain.Aggregate) ([]string, [][]string) {
		return valueBoard(a.TopClients[domain.InvoiceTypeOut].ByValue)
	},
	BoardClientsAByInvoices: func(a domain.Aggregate) ([]string, [][]string) {
		return countBoard(a.TopClients[domain.InvoiceTypeOut].ByInvoices)
	},
	BoardClientsBByValue: func(a domain.Aggregate) ([]string, [][]string) {
		return valueBoard(a.TopClients[domain.InvoiceTypeIn].ByValue)
	},
	BoardClientsBByInvoices: func(a domain.Aggregate) ([]string, [][]string) {
		return countBoard(a.TopClients[domain.InvoiceTypeIn].ByInvoices)
	},
	BoardSuppliersByValue:   func(a domain.Aggregate) ([]string, [][]string) { return valueBoard(a.TopSuppliers.ByValue) },
	BoardSuppliersByInvoice: func(a domain.Aggregate) ([]string, [][]string) { return countBoard(a.TopSuppliers.ByInvoices) },
	BoardItemsByValue:       func(a domain.Aggregate) ([]string, [][]string) { return itemBoard(a.BestItems.ByValue) },
	BoardItemsByQty:         func(a domain.Aggregate) ([]string, [][]string) { return itemBoard(a.BestItems.ByQty) },
	BoardMonthly:            monthlyBoard,
}

func valueBoard(entries []domain.RankedValue) ([]string, [][]string) {
	records := make([][]string, 0, len(entries))
	for i, e := range entries {
		records = append(records, []string{formatInt(i + 1), e.Name, formatFloat(e.Value)})
	}
	return []string{"Rank", "Name", "Value"}, records
}

func countBoard(entries []domain.RankedCount) ([]string, [][]string) {
	records := make([][]string, 0, len(entries))
	for i, e := range entries {
		records = append(records, []string{formatInt(i + 1), e.Name, e.Key, formatInt(e.Invoices)})
	}
	return []string{"Rank", "Name", "Key", "Invoices"}, records
}

func itemBoard(entries []domain.ItemStat) ([]string, [][]string) {
	records := make([][]string, 0, len(entries))
	for i, e := range entries {
		records = append(records, []string{
			formatInt(i + 1), e.ItemCode, e.Description, e.Category, e.Subcategory,
			formatFloat(e.Value), formatQty(e.Qty),
		})
	}
	return []string{"Rank", "ItemCode", "Description", "Category", "Subcategory", "Value", "Qty"}, records
}

func monthlyBoard(a domain.Aggregate) ([]string, [][]string) {
	records := make([][]string, 0, len(a.Monthly))
	for _, m := range a.Monthly {
		records = append(records, []string{
			m.YearMonth, formatInt(m.InvoiceCount), formatQty(m.Qty), formatFloat(m.Turnover), formatFloat(m.Average),
		})
	}
	return []string{"YearMonth", "InvoiceCount", "Qty", "Turnover", "Average"}, records
}
