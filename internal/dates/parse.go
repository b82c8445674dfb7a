package dates

import (
	"strings"
	"time"
)

// dateFormat is one accepted layout; shortYear layouts are rebased onto 2000
type dateFormat struct {
	layout    string
	shortYear bool
}

// formats is tried in order and the first full match wins.
// Day-first layouts come before month-first ones
var formats = []dateFormat{
	{layout: "2006/1/2"},                  // YYYY/MM/DD
	{layout: "2/1/2006"},                  // DD/MM/YYYY
	{layout: "1/2/2006"},                  // MM/DD/YYYY
	{layout: "2/1/06", shortYear: true},   // DD/MM/YY
	{layout: "1/2/06", shortYear: true},   // MM/DD/YY
	{layout: "2.1.2006"},                  // DD.MM.YYYY
	{layout: "2.1.06", shortYear: true},   // DD.MM.YY
	{layout: "2-1-2006"},                  // DD-MM-YYYY
	{layout: "2-1-06", shortYear: true},   // DD-MM-YY
	{layout: "2 Jan 06", shortYear: true}, // DD MON YY
	{layout: "2 Jan 2006"},                // DD MON YYYY
	{layout: "Jan 2 06", shortYear: true}, // MON DD YY
	{layout: "Jan 2 2006"},                // MON DD YYYY
}

// Parse normalizes a date string to YYYY-MM-DD, or returns Unparseable.
// Two-digit years are always 2000+YY
func Parse(s string) string {
	t, ok := parseTime(s)
	if !ok {
		return Unparseable
	}
	return t.Format(CanonicalLayout)
}

func parseTime(s string) (time.Time, bool) {
	// OCR output can carry doubled spaces
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, f := range formats {
		t, err := time.Parse(f.layout, s)
		if err != nil {
			continue
		}
		if f.shortYear {
			t = time.Date(2000+t.Year()%100, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		return t, true
	}
	return time.Time{}, false
}
