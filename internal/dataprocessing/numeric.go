package dataprocessing

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"salesdash/internal/errors"
)

var nonNumericChars = regexp.MustCompile(`[^\d.,-]`)

// ParseNumber converts a loosely formatted cell value to a float64.
// Missing and unparseable values resolve to 0.
//
// The decimal separator is inferred from separator order alone, so both
// "1,234.56" and "1.234,56" parse to 1234.56.
func ParseNumber(v any) float64 {
	n, _ := ParseNumberStrict(v)
	return n
}

// ParseNumberStrict is ParseNumber that also reports values which carried
// content but did not parse. The returned number is 0 in that case.
// Missing values (nil, blank strings) are not errors.
func ParseNumberStrict(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return finite(x, v)
	case float32:
		return finite(float64(x), v)
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		return 0, errors.NewValueUnparseableError("number", v)
	case json.Number:
		return parseNumericString(x.String())
	case string:
		return parseNumericString(x)
	default:
		return parseNumericString(fmt.Sprint(x))
	}
}

func finite(f float64, raw any) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.NewValueUnparseableError("number", raw)
	}
	return f, nil
}

func parseNumericString(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	s = nonNumericChars.ReplaceAllString(s, "")
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if dot > comma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	if s == "" {
		return 0, errors.NewValueUnparseableError("number", raw)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewValueUnparseableError("number", raw)
	}
	return finite(f, raw)
}
