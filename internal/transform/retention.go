package transform

import (
	"math"
	"sort"
	"strconv"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// MonthlyRetention is one calendar month of cohort retention, rolled up
// with the weighted strategy: cohort sizes and retained counts are
// summed across the month's cohorts before dividing, so large cohorts
// count for more than small ones.
type MonthlyRetention struct {
	Month        string  `json:"month"`
	NewStakers   int     `json:"newStakers"`
	StillStaking int     `json:"stillStaking"`
	RetentionPct float64 `json:"retentionPct"`
}

// RetentionByMonth groups weekly cohorts by the calendar month they
// started in. RetentionPct is rounded to one decimal and is 0 when a
// month's combined cohort size is 0.
func RetentionByMonth(rows []dune.CohortRetentionRow) []MonthlyRetention {
	if len(rows) == 0 {
		return []MonthlyRetention{}
	}

	type bucket struct {
		total    int
		retained int
	}
	months := make(map[string]*bucket)
	for _, r := range rows {
		key, ok := monthKey(r.CohortWeek)
		if !ok {
			continue
		}
		b := months[key]
		if b == nil {
			b = &bucket{}
			months[key] = b
		}
		pct, err := strconv.ParseFloat(r.PctRetained, 64)
		if err != nil {
			pct = 0
		}
		b.total += r.CohortSize
		b.retained += int(math.Round(float64(r.CohortSize) * pct / 100))
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthlyRetention, len(keys))
	for i, k := range keys {
		b := months[k]
		var pct float64
		if b.total > 0 {
			pct = math.Round(float64(b.retained)/float64(b.total)*1000) / 10
		}
		out[i] = MonthlyRetention{
			Month:        monthLabel(k),
			NewStakers:   b.total,
			StillStaking: b.retained,
			RetentionPct: pct,
		}
	}
	return out
}
