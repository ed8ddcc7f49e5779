package meter

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// SerialEpoch is the day-zero of spreadsheet serial dates. Excel's epoch is
// nominally 1900-01-01 but carries the fictitious 1900-02-29, so serial day
// counts convert correctly from 1899-12-30.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order. Day-first forms come first (the workbooks
// this loader ingests are dd/mm), then unambiguous ISO forms. Two-digit-year
// forms must stay after their four-digit counterparts.
var dateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
	"2.1.2006",
	"2/1/06 15:04",
	"2/1/06",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate coerces a worksheet cell to a timestamp. The cell is first parsed
// as a day-first calendar date; when that fails it is reinterpreted as a
// spreadsheet serial day count from SerialEpoch (fractional days allowed,
// rounded to the nearest second). Returns false for cells that are neither.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	return serialToTime(serial), true
}

// serialToTime converts a serial day count to a timestamp. Whole days go
// through AddDate so large counts cannot overflow a Duration.
func serialToTime(serial float64) time.Time {
	days := math.Trunc(serial)
	frac := serial - days
	secs := math.Round(frac * 86400)
	return SerialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// ParseValue coerces a worksheet cell to a float64 totaliser value. Empty,
// non-numeric and non-finite cells return false.
func ParseValue(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
