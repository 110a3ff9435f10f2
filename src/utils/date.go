package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts seen in Xero and Revenue exports, tried in order.
var dateLayouts = []string{
	time.DateOnly, // 2006-01-02
	"02-01-2006",
	"02/01/2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// Excel serial dates count days from 1899-12-30 (the 1900 leap-year bug
// included, which is why the epoch is the 30th and not the 31st).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseFlexibleDate coerces the date representations that show up in
// spreadsheet exports: common textual layouts, Excel serial numbers, and unix
// timestamps in seconds, milliseconds or nanoseconds.
func ParseFlexibleDate(value string) (time.Time, error) {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "\""))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date value %q", value)
	}
	switch {
	case n > 0 && n < 1e5: // Excel serial day count
		days := int(n)
		frac := n - float64(days)
		t := excelEpoch.AddDate(0, 0, days)
		return t.Add(time.Duration(frac * 24 * float64(time.Hour))), nil
	case n > 1e9 && n < 1e12: // unix seconds
		return time.Unix(int64(n), 0).UTC(), nil
	case n >= 1e12 && n < 1e15: // unix milliseconds
		return time.UnixMilli(int64(n)).UTC(), nil
	case n >= 1e15: // unix nanoseconds
		return time.Unix(0, int64(n)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("numeric date value %q out of range", value)
	}
}
