package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/pkg/contracts/domain"
)

func readCSV(t *testing.T, raw []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "missing BOM")
	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		want    string
	}{
		{
			name:    "headers and records with BOM",
			options: WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "x,y"}}, BOMPrefix: true},
			want:    "\xEF\xBB\xBFa,b\n1,\"x,y\"\n",
		},
		{
			name:    "no BOM",
			options: WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}}},
			want:    "a\n1\n",
		},
		{
			name:    "append skips BOM and headers",
			options: WriteOptions{Headers: []string{"a"}, Records: [][]string{{"2"}}, Append: true, BOMPrefix: true},
			want:    "2\n",
		},
	}

	w := NewCSVWriter("", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, w.Write(&buf, tt.options))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	require.NoError(t, w.WriteCSV("nested/out.csv", WriteOptions{
		Headers:   []string{"Name"},
		Records:   [][]string{{"Acme"}},
		BOMPrefix: true,
	}))
	require.NoError(t, w.WriteCSV("nested/out.csv", WriteOptions{
		Records: [][]string{{"Beta"}},
		Append:  true,
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "nested", "out.csv"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name"}, {"Acme"}, {"Beta"}}, readCSV(t, raw))
}

func TestCSVWriter_WriteLines(t *testing.T) {
	date := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	lines := []domain.SalesLine{
		{
			InvoiceID: "INV-1", InvoiceDateFile: "INV-1-0323", InvoiceDate: &date, YearMonth: "2023-03",
			Type: "A", TypeLabel: "INVOICE OUT", Client: "شركة النور", Phone: "0700",
			ItemCode: "AB1", Description: "Hammer", Category: "Tools", Subcategory: "Hand",
			Supplier: "Tooling Co", Qty: 2.5, UnitPrice: 10, LineTotal: 25, InvoiceTotal: 75,
		},
		{InvoiceID: "INV-2", ItemCode: domain.UnknownItemCode},
	}

	var buf bytes.Buffer
	n, err := NewCSVWriter("", nil).WriteLines(&buf, lines)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 3)
	assert.Equal(t, LineHeaders, records[0])
	assert.Equal(t, []string{
		"INV-1", "INV-1-0323", "2023-03-15", "2023-03", "A", "INVOICE OUT",
		"شركة النور", "0700", "AB1", "Hammer", "Tools", "Hand",
		"Tooling Co", "2.5", "10.00", "25.00", "75.00",
	}, records[1])
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "0.00", records[2][15])
}

func TestCSVWriter_WriteLinesEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewCSVWriter("", nil).WriteLines(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, [][]string{LineHeaders}, readCSV(t, buf.Bytes()))
}

func TestLeaderboard(t *testing.T) {
	agg := domain.Aggregate{
		TopClients: map[string]domain.ClientBoards{
			"A": {
				ByValue:    []domain.RankedValue{{Name: "Beta", Value: 1234.56}, {Name: "Acme", Value: 75}},
				ByInvoices: []domain.RankedCount{{Name: "Acme", Key: "0700", Invoices: 3}},
			},
			"B": {},
		},
		TopSuppliers: domain.SupplierBoards{
			ByInvoices: []domain.RankedCount{{Name: "Tooling Co", Invoices: 2}},
		},
		BestItems: domain.ItemBoards{
			ByQty: []domain.ItemStat{{ItemCode: "NAILS", Description: "Nails", Value: 200, Qty: 100}},
		},
		Monthly: []domain.MonthlyRollup{{YearMonth: "2023-03", InvoiceCount: 1, Qty: 4, Turnover: 75, Average: 75}},
	}

	tests := []struct {
		name    string
		board   string
		headers []string
		records [][]string
	}{
		{
			name:    "clients A by value",
			board:   BoardClientsAByValue,
			headers: []string{"Rank", "Name", "Value"},
			records: [][]string{{"1", "Beta", "1234.56"}, {"2", "Acme", "75.00"}},
		},
		{
			name:    "clients A by invoices",
			board:   BoardClientsAByInvoices,
			headers: []string{"Rank", "Name", "Key", "Invoices"},
			records: [][]string{{"1", "Acme", "0700", "3"}},
		},
		{
			name:    "empty board",
			board:   BoardClientsBByValue,
			headers: []string{"Rank", "Name", "Value"},
			records: [][]string{},
		},
		{
			name:    "suppliers by invoices",
			board:   BoardSuppliersByInvoice,
			headers: []string{"Rank", "Name", "Key", "Invoices"},
			records: [][]string{{"1", "Tooling Co", "", "2"}},
		},
		{
			name:    "items by qty",
			board:   BoardItemsByQty,
			headers: []string{"Rank", "ItemCode", "Description", "Category", "Subcategory", "Value", "Qty"},
			records: [][]string{{"1", "NAILS", "Nails", "", "", "200.00", "100"}},
		},
		{
			name:    "monthly",
			board:   BoardMonthly,
			headers: []string{"YearMonth", "InvoiceCount", "Qty", "Turnover", "Average"},
			records: [][]string{{"2023-03", "1", "4", "75.00", "75.00"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, records, err := Leaderboard(agg, tt.board)
			require.NoError(t, err)
			assert.Equal(t, tt.headers, headers)
			assert.Equal(t, tt.records, records)
		})
	}
}

func TestLeaderboard_Unknown(t *testing.T) {
	_, _, err := Leaderboard(domain.Aggregate{}, "top-secret")
	assert.ErrorIs(t, err, ErrUnknownBoard)
}

func TestBoards(t *testing.T) {
	boards := Boards()
	assert.Len(t, boards, 9)
	assert.IsIncreasing(t, boards)
	assert.Contains(t, boards, BoardMonthly)
}
