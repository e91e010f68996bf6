package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFromSerial(t *testing.T) {
	got, ok := FromSerial(45000)
	require.True(t, ok)
	assert.Equal(t, day(2023, 3, 15), got)

	got, ok = FromSerial(1)
	require.True(t, ok)
	assert.Equal(t, day(1899, 12, 31), got)

	_, ok = FromSerial(-1)
	assert.False(t, ok)
	_, ok = FromSerial(maxSerial + 1)
	assert.False(t, ok)
}

func TestDateFromCell(t *testing.T) {
	tests := []struct {
		name   string
		cell   any
		want   time.Time
		wantOK bool
	}{
		{name: "serial string", cell: "45000", want: day(2023, 3, 15), wantOK: true},
		{name: "serial number", cell: float64(45000), want: day(2023, 3, 15), wantOK: true},
		{name: "serial with time fraction", cell: 45000.5, want: day(2023, 3, 15).Add(12 * time.Hour), wantOK: true},
		{name: "time value", cell: day(2024, 2, 29), want: day(2024, 2, 29), wantOK: true},
		{name: "zero time", cell: time.Time{}, wantOK: false},
		{name: "iso dashes", cell: "2023-03-15", want: day(2023, 3, 15), wantOK: true},
		{name: "iso slashes", cell: "2023/3/5", want: day(2023, 3, 5), wantOK: true},
		{name: "month first", cell: "03/15/2023", want: day(2023, 3, 15), wantOK: true},
		{name: "two digit year", cell: "03-15-23", want: day(2023, 3, 15), wantOK: true},
		{name: "two digit year with time", cell: "3/15/23 12:30", want: time.Date(2023, 3, 15, 12, 30, 0, 0, time.UTC), wantOK: true},
		{name: "fractional serial string", cell: "45000.5", want: day(2023, 3, 15).Add(12 * time.Hour), wantOK: true},
		{name: "rfc3339", cell: "2023-03-15T10:00:00Z", want: time.Date(2023, 3, 15, 10, 0, 0, 0, time.UTC), wantOK: true},
		{name: "named month", cell: "Mar 15, 2023", want: day(2023, 3, 15), wantOK: true},
		{name: "day first is not guessed", cell: "15/03/2023", wantOK: false},
		{name: "filename is not a cell date", cell: "INV-1001-0323", wantOK: false},
		{name: "empty", cell: "", wantOK: false},
		{name: "nil", cell: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateFromCell(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateFromName(t *testing.T) {
	tests := []struct {
		name   string
		hint   string
		want   time.Time
		wantOK bool
	}{
		{name: "INV pattern", hint: "INV-1001-0323", want: day(2023, 3, 1), wantOK: true},
		{name: "INV pattern inside path", hint: "invoices/INV-77-1224.pdf", want: day(2024, 12, 1), wantOK: true},
		{name: "six digit YYMMDD", hint: "scan 230415 order.pdf", want: day(2023, 4, 15), wantOK: true},
		{name: "seven digits is not a date", hint: "scan 2304151.pdf", wantOK: false},
		{name: "IPEC pattern", hint: "IPEC Invoice 77-0523", want: day(2023, 5, 1), wantOK: true},
		{name: "INV wins over six digits", hint: "INV-230415-0124", want: day(2024, 1, 1), wantOK: true},
		{name: "invalid month", hint: "INV-1-1323", wantOK: false},
		{name: "invalid six digit day", hint: "230231", wantOK: false},
		{name: "second run after dash", hint: "230231-230415", want: day(2023, 4, 15), wantOK: true},
		{name: "second run after space", hint: "230231 230415", want: day(2023, 4, 15), wantOK: true},
		{name: "first valid run wins", hint: "230101_230415", want: day(2023, 1, 1), wantOK: true},
		{name: "no pattern", hint: "receipt.pdf", wantOK: false},
		{name: "empty", hint: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateFromName(tt.hint)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateResolver_Priority(t *testing.T) {
	tests := []struct {
		name      string
		priority  DatePriority
		cell      any
		hints     []string
		wantMonth string
	}{
		{name: "filename first prefers hint", priority: DatePriorityFilename, cell: "2023-03-15", hints: []string{"INV-1-0124"}, wantMonth: "2024-01"},
		{name: "cell first prefers cell", priority: DatePriorityCell, cell: "2023-03-15", hints: []string{"INV-1-0124"}, wantMonth: "2023-03"},
		{name: "filename first falls back to cell", priority: DatePriorityFilename, cell: "45000", hints: []string{"no tag"}, wantMonth: "2023-03"},
		{name: "cell first falls back to hint", priority: DatePriorityCell, cell: "", hints: []string{"IPEC Invoice 3-0722"}, wantMonth: "2022-07"},
		{name: "later hint used when earlier has no tag", priority: DatePriorityFilename, cell: "2023-03-15", hints: []string{"2023-03-15", "INV-1-0124"}, wantMonth: "2024-01"},
		{name: "cell first tries every hint", priority: DatePriorityCell, cell: "soon", hints: []string{"", "scan 230415.pdf"}, wantMonth: "2023-04"},
		{name: "no hints", priority: DatePriorityFilename, cell: "45000", wantMonth: "2023-03"},
		{name: "nothing resolves", priority: DatePriorityFilename, cell: "soon", hints: []string{"none"}, wantMonth: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDateResolver(tt.priority).Resolve(tt.cell, tt.hints...)
			assert.Equal(t, tt.wantMonth, got.YearMonth)
			if tt.wantMonth == "" {
				assert.Nil(t, got.Date)
			} else {
				require.NotNil(t, got.Date)
				assert.Equal(t, tt.wantMonth, got.Date.Format("2006-01"))
			}
		})
	}
}

func TestParseDatePriority(t *testing.T) {
	p, err := ParseDatePriority("")
	require.NoError(t, err)
	assert.Equal(t, DatePriorityFilename, p)

	p, err = ParseDatePriority("Cell-First")
	require.NoError(t, err)
	assert.Equal(t, DatePriorityCell, p)

	_, err = ParseDatePriority("newest")
	assert.Error(t, err)
}
