package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"salesdash/pkg/contracts/domain"
)

// RawRecord is one loosely typed source record keyed by header name.
type RawRecord map[string]any

// NormalizeStats counts what happened to a load's rows.
type NormalizeStats struct {
	RowsIn             int      `json:"rows_in"`
	RowsKept           int      `json:"rows_kept"`
	EmptyRowsDropped   int      `json:"empty_rows_dropped"`
	UnparseableNumbers int      `json:"unparseable_numbers"`
	UndatedRows        int      `json:"undated_rows"`
	MissingFields      []string `json:"missing_fields,omitempty"`
}

// NormalizeResult is the canonical dataset produced from one load.
type NormalizeResult struct {
	Lines   []domain.SalesLine
	Headers HeaderMap
	Stats   NormalizeStats
}

// Normalizer maps raw records onto SalesLine values.
type Normalizer struct {
	dates  *DateResolver
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil resolver uses filename-first
// date priority.
func NewNormalizer(dates *DateResolver, logger *slog.Logger) *Normalizer {
	if dates == nil {
		dates = NewDateResolver(DatePriorityFilename)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		dates:  dates,
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// cellFunc returns a row's raw value for a field and whether the field is
// mapped and present in that row.
type cellFunc func(Field) (any, bool)

// NormalizeRecords normalizes keyed records. The header map is built from the
// first record's keys and reused for every record. Input order is preserved.
//
// Record keys have no order of their own, so they are sorted bytewise before
// matching. When keys differ only in case ("QTY" and "Qty") the bytewise
// smallest one backs the field: uppercase sorts before lowercase.
func (n *Normalizer) NormalizeRecords(ctx context.Context, records []RawRecord) NormalizeResult {
	if len(records) == 0 {
		return NormalizeResult{Lines: []domain.SalesLine{}, Headers: BuildHeaderMap(nil)}
	}

	keys := make([]string, 0, len(records[0]))
	for k := range records[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := BuildHeaderMap(keys)

	return n.normalize(ctx, headers, len(records), func(i int) cellFunc {
		rec := records[i]
		return func(f Field) (any, bool) {
			key, ok := headers.Key(f)
			if !ok {
				return nil, false
			}
			v, ok := rec[key]
			return v, ok
		}
	})
}

// NormalizeMatrix normalizes positional rows using a separate header row.
// Rows shorter than the header are treated as having empty trailing cells.
func (n *Normalizer) NormalizeMatrix(ctx context.Context, header []string, rows [][]any) NormalizeResult {
	headers := BuildHeaderMap(header)
	if len(rows) == 0 {
		return NormalizeResult{Lines: []domain.SalesLine{}, Headers: headers}
	}

	return n.normalize(ctx, headers, len(rows), func(i int) cellFunc {
		row := rows[i]
		return func(f Field) (any, bool) {
			idx, ok := headers.Index(f)
			if !ok || idx >= len(row) {
				return nil, false
			}
			return row[idx], true
		}
	})
}

func (n *Normalizer) normalize(ctx context.Context, headers HeaderMap, count int, row func(int) cellFunc) NormalizeResult {
	stats := NormalizeStats{RowsIn: count}
	for _, f := range headers.Missing() {
		stats.MissingFields = append(stats.MissingFields, string(f))
	}
	if len(stats.MissingFields) > 0 {
		n.logger.WarnContext(ctx, "fields without matching header, treating as empty",
			slog.Any("fields", stats.MissingFields))
	}

	lines := make([]domain.SalesLine, 0, count)
	for i := 0; i < count; i++ {
		line, ok := n.normalizeRow(row(i), &stats)
		if !ok {
			stats.EmptyRowsDropped++
			continue
		}
		if line.YearMonth == "" {
			stats.UndatedRows++
		}
		lines = append(lines, line)
	}
	stats.RowsKept = len(lines)

	n.logger.InfoContext(ctx, "normalized sales records",
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("empty_rows_dropped", stats.EmptyRowsDropped),
		slog.Int("unparseable_numbers", stats.UnparseableNumbers),
		slog.Int("undated_rows", stats.UndatedRows))

	return NormalizeResult{Lines: lines, Headers: headers, Stats: stats}
}

// normalizeRow builds one line. It reports false when every mapped cell is empty.
func (n *Normalizer) normalizeRow(get cellFunc, stats *NormalizeStats) (domain.SalesLine, bool) {
	hasContent := false
	for _, spec := range CanonicalSchema {
		if v, ok := get(spec.Field); ok && !isBlank(v) {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return domain.SalesLine{}, false
	}

	text := func(f Field) string {
		v, _ := get(f)
		return cellText(v)
	}
	number := func(f Field) float64 {
		v, _ := get(f)
		num, err := ParseNumberStrict(v)
		if err != nil {
			stats.UnparseableNumbers++
		}
		return num
	}

	qty := number(FieldQty)
	unit := number(FieldUnitPrice)
	lineTotal := qty * unit
	if v, ok := get(FieldLineTotal); ok && !isBlank(v) {
		lineTotal = number(FieldLineTotal)
	}

	description := text(FieldDescription)
	invoiceFile := text(FieldInvoiceFile)
	invoiceID := text(FieldInvoicePath)
	invoiceType := normalizeType(text(FieldType))

	dateCell, _ := get(FieldInvoiceFile)
	resolved := n.dates.Resolve(dateCell, invoiceFile, invoiceID)

	return domain.SalesLine{
		InvoiceDateFile: invoiceFile,
		Client:          text(FieldClient),
		Phone:           text(FieldPhone),
		Type:            invoiceType,
		TypeLabel:       domain.TypeLabel(invoiceType),
		InvoiceID:       invoiceID,
		ItemCode:        normalizeItemCode(text(FieldItemCode), description),
		Description:     description,
		Qty:             qty,
		UnitPrice:       unit,
		LineTotal:       lineTotal,
		InvoiceTotal:    number(FieldInvoiceTotal),
		Supplier:        text(FieldSupplier),
		Category:        text(FieldCategory),
		Subcategory:     text(FieldSubcategory),
		InvoiceDate:     resolved.Date,
		YearMonth:       resolved.YearMonth,
	}, true
}

func normalizeType(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A", "TYPE A":
		return domain.InvoiceTypeOut
	case "B", "TYPE B":
		return domain.InvoiceTypeIn
	default:
		return ""
	}
}

func normalizeItemCode(code, description string) string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
	if normalized != "" {
		return normalized
	}
	if d := strings.ToUpper(strings.TrimSpace(description)); d != "" {
		return d
	}
	return domain.UnknownItemCode
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// cellText renders a cell as trimmed display text. Whole numbers print
// without a fraction so numeric phone and invoice cells stay readable.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
