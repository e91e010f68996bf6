package dataprocessing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DatePriority decides whether the invoice filename or the date cell wins
// when both yield a date.
type DatePriority string

const (
	// DatePriorityFilename tries the filename hint first. This is the default.
	DatePriorityFilename DatePriority = "filename-first"
	// DatePriorityCell tries the date cell first.
	DatePriorityCell DatePriority = "cell-first"
)

// ParseDatePriority validates a configured priority. Empty selects the default.
func ParseDatePriority(s string) (DatePriority, error) {
	switch DatePriority(strings.ToLower(strings.TrimSpace(s))) {
	case "", DatePriorityFilename:
		return DatePriorityFilename, nil
	case DatePriorityCell:
		return DatePriorityCell, nil
	default:
		return "", fmt.Errorf("unknown date priority %q (want %s or %s)", s, DatePriorityFilename, DatePriorityCell)
	}
}

// ResolvedDate is the outcome of date resolution for one row.
type ResolvedDate struct {
	Date      *time.Time
	YearMonth string
}

// SpreadsheetEpoch is day zero of spreadsheet date serials. It sits two days
// before 1900-01-01 to absorb the historical 1900 leap-year bug.
var SpreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31, the largest serial spreadsheets accept.
const maxSerial = 2958465

var (
	invFilePattern = regexp.MustCompile(`(?i)INV-\d+-(\d{2})(\d{2})(?:\D|$)`)
	digitRun       = regexp.MustCompile(`\d+`)
	ipecPattern    = regexp.MustCompile(`(?i)IPEC Invoice \d+-(\d{2})(\d{2})(?:\D|$)`)
	serialPattern  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Layouts tried for free-form date cells after dashes become slashes.
var cellLayouts = []string{
	"2006/1/2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06",
	"1/2/06 15:04",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// DateResolver turns date cells and invoice filenames into calendar dates.
// It never fails: rows without any usable date get an empty ResolvedDate.
type DateResolver struct {
	priority DatePriority
}

// NewDateResolver creates a resolver with the given priority.
func NewDateResolver(priority DatePriority) *DateResolver {
	if priority != DatePriorityCell {
		priority = DatePriorityFilename
	}
	return &DateResolver{priority: priority}
}

// Priority returns the configured priority.
func (r *DateResolver) Priority() DatePriority {
	return r.priority
}

// Resolve returns the date for a row from its date cell and filename hints.
// Hints are tried in order; the cell goes before all of them under
// cell-first and after all of them under filename-first.
func (r *DateResolver) Resolve(cell any, hints ...string) ResolvedDate {
	var (
		t  time.Time
		ok bool
	)
	if r.priority == DatePriorityCell {
		if t, ok = DateFromCell(cell); !ok {
			t, ok = dateFromHints(hints)
		}
	} else {
		if t, ok = dateFromHints(hints); !ok {
			t, ok = DateFromCell(cell)
		}
	}
	if !ok {
		return ResolvedDate{}
	}
	return ResolvedDate{Date: &t, YearMonth: t.Format("2006-01")}
}

func dateFromHints(hints []string) (time.Time, bool) {
	for _, h := range hints {
		if t, ok := DateFromName(h); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateFromCell interprets a cell holding a time, a spreadsheet serial or a
// date string.
func DateFromCell(cell any) (time.Time, bool) {
	switch v := cell.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v.UTC(), !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case float64:
		return FromSerial(v)
	case float32:
		return FromSerial(float64(v))
	case int:
		return FromSerial(float64(v))
	case int64:
		return FromSerial(float64(v))
	case string:
		return dateFromString(v)
	default:
		return dateFromString(fmt.Sprint(v))
	}
}

// FromSerial converts a spreadsheet day serial to a UTC time.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 0 || serial > maxSerial {
		return time.Time{}, false
	}
	ms := math.Round(serial * 86_400_000)
	return SpreadsheetEpoch.Add(time.Duration(ms) * time.Millisecond), true
}

func dateFromString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serialPattern.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return FromSerial(n)
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}

	s = strings.ReplaceAll(s, "-", "/")
	for _, layout := range cellLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateFromName extracts a date from an invoice filename or path. Patterns
// are tried in order and the first match wins:
//
//	INV-<digits>-<MMYY>            first day of that month
//	a run of exactly 6 digits      YYMMDD, the first valid one
//	IPEC Invoice <digits>-<MMYY>   first day of that month
func DateFromName(name string) (time.Time, bool) {
	if name == "" {
		return time.Time{}, false
	}

	if m := invFilePattern.FindStringSubmatch(name); m != nil {
		if t, ok := monthYear(m[1], m[2]); ok {
			return t, true
		}
	}

	for _, run := range digitRun.FindAllString(name, -1) {
		if len(run) != 6 {
			continue
		}
		if t, ok := calendarDate(2000+atoi(run[0:2]), atoi(run[2:4]), atoi(run[4:6])); ok {
			return t, true
		}
	}

	if m := ipecPattern.FindStringSubmatch(name); m != nil {
		if t, ok := monthYear(m[1], m[2]); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

func monthYear(mm, yy string) (time.Time, bool) {
	return calendarDate(2000+atoi(yy), atoi(mm), 1)
}

// calendarDate rejects values that time.Date would silently normalize.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
