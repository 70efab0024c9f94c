package transform

import (
	"fmt"
	"strings"
	"time"
)

// ParseDuneDate trims a Dune timestamp like "2024-12-11 00:00:00.000 UTC"
// down to its date part.
func ParseDuneDate(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// monthKey buckets a Dune date string by calendar year-month. The key
// sorts lexicographically in chronological order.
func monthKey(duneDate string) (string, bool) {
	at, err := time.Parse("2006-01-02", ParseDuneDate(duneDate))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", at.Year(), at.Month()), true
}

// monthLabel renders a "2024-01" key as "Jan 2024".
func monthLabel(key string) string {
	at, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return at.Format("Jan 2006")
}

// MonthLabel renders a Dune date string as its "Jan 2024" month label.
func MonthLabel(duneDate string) string {
	at, err := time.Parse("2006-01-02", ParseDuneDate(duneDate))
	if err != nil {
		return duneDate
	}
	return at.Format("Jan 2006")
}
