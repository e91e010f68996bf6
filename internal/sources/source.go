package sources

import (
	"context"
	"strings"

	"salesdash/internal/dataprocessing"
)

// Source fetches one raw snapshot of invoice data.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Payload, error)
}

// Payload is the raw result of one fetch. Exactly one of Records or
// Header/Rows is populated.
type Payload struct {
	Source  string
	Records []dataprocessing.RawRecord
	Header  []string
	Rows    [][]any
}

// IsMatrix reports whether the payload is a header row plus value matrix.
func (p *Payload) IsMatrix() bool {
	return p.Header != nil
}

// Len returns the number of data rows in the payload.
func (p *Payload) Len() int {
	if p.IsMatrix() {
		return len(p.Rows)
	}
	return len(p.Records)
}

// Normalize runs the payload through n using the entry point for its shape.
func (p *Payload) Normalize(ctx context.Context, n *dataprocessing.Normalizer) dataprocessing.NormalizeResult {
	if p.IsMatrix() {
		return n.NormalizeMatrix(ctx, p.Header, p.Rows)
	}
	return n.NormalizeRecords(ctx, p.Records)
}

// matrixFromStrings turns spreadsheet rows into a matrix payload. Leading
// blank rows are skipped and the first non-blank row becomes the header.
func matrixFromStrings(name string, rows [][]string) *Payload {
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	p := &Payload{Source: name, Header: []string{}, Rows: [][]any{}}
	if start == len(rows) {
		return p
	}
	p.Header = rows[start]
	for _, r := range rows[start+1:] {
		vals := make([]any, len(r))
		for i, c := range r {
			vals[i] = c
		}
		p.Rows = append(p.Rows, vals)
	}
	return p
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
