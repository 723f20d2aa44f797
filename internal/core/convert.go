package core

// convert.go turns raw spreadsheet cells into item field values.
//
// Spreadsheet data is messy: dates arrive in US, EU, ISO and spelled-out
// forms, numbers carry thousands separators, and Excel exports wrap values
// in ="..." formula prefixes. Conversions here never fail loudly; a value
// that cannot be understood becomes the field's empty value.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are
// assumed to be in the previous century.
var TwoDigitYearPivot = 20

// isoDate is the stored date format.
const isoDate = "2006-01-02"

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "1-2-06", "1.2.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "1-2-2006", "1.2.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006",
		"Jan 2006", "January 2006",
		"20060102",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// ParseDate converts a date in any supported layout to YYYY-MM-DD.
// It returns "" for blank or unrecognized input.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate)
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.Format(isoDate)
		}
	}

	return ""
}

// ParseBox converts a box number cell to an integer. Thousands separators
// are stripped and fractional values are truncated ("1,200" -> 1200,
// "3.0" -> 3). It returns nil for blank or non-numeric input.
func ParseBox(s string) *int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are lowercased for case-insensitive matching. When a column name
// repeats, the first occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, the Excel ="..." text wrapper and one balanced
// pair of surrounding quotes. Quotes and equals signs inside or at only one
// end of the text are kept.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`):
		s = s[2 : len(s)-1]
	case len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]:
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}
