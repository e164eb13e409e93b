package nutrition

import (
	"sort"
	"strings"
)

// maxDVBars bounds the %DV bar chart to the most significant nutrients.
const maxDVBars = 12

// Severity buckets a %DV value for bar coloring. Thresholds are fixed,
// not configurable.
type Severity string

const (
	SeverityDanger Severity = "danger" // >100%
	SeverityWarn   Severity = "warn"   // >50%
	SeverityInfo   Severity = "info"   // >20%
	SeverityOK     Severity = "ok"
)

// DVBar is one row of the %DV ranking chart.
type DVBar struct {
	Name      string   `json:"name"`
	PercentDV float64  `json:"percent_dv"`
	Unit      string   `json:"unit"`
	Severity  Severity `json:"severity"`
}

// DVBars selects the chartable subset of a nutrient list: entries with a
// non-null positive %DV, ordered descending, capped at twelve. Display
// names drop the "Total " and "Dietary " prefixes for compact labels.
func DVBars(entries []NutrientEntry) []DVBar {
	bars := make([]DVBar, 0, len(entries))
	for _, e := range entries {
		if e.PercentDV == nil || *e.PercentDV <= 0 {
			continue
		}
		dv := round1(*e.PercentDV)
		bars = append(bars, DVBar{
			Name:      compactName(e.Name),
			PercentDV: dv,
			Unit:      e.Unit,
			Severity:  severityFor(dv),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].PercentDV > bars[j].PercentDV
	})

	if len(bars) > maxDVBars {
		bars = bars[:maxDVBars]
	}
	return bars
}

func severityFor(pct float64) Severity {
	switch {
	case pct > 100:
		return SeverityDanger
	case pct > 50:
		return SeverityWarn
	case pct > 20:
		return SeverityInfo
	default:
		return SeverityOK
	}
}

func compactName(name string) string {
	name = strings.TrimPrefix(name, "Total ")
	name = strings.TrimPrefix(name, "Dietary ")
	return name
}
