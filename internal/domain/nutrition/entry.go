// Package nutrition contains the view-model derivations for analysis data
// returned by the Satvika API: macro/energy decomposition for the pie chart
// and %DV ranking for the bar chart. All functions are pure and operate on
// the nutrient list exactly as the API delivered it.
package nutrition

import "strings"

// NutrientEntry is a single row of the analysis response. It is produced
// server-side and consumed read-only; nothing in this package mutates it.
type NutrientEntry struct {
	NutrientID  int      `json:"nutrient_id"`
	Name        string   `json:"name"`
	NameHindi   string   `json:"name_hindi,omitempty"`
	Unit        string   `json:"unit"`
	Category    string   `json:"category,omitempty"`
	TotalValue  float64  `json:"total_value"`
	PerServing  float64  `json:"per_serving"`
	Per100g     float64  `json:"per_100g"`
	PercentDV   *float64 `json:"percent_dv"`
	IsMandatory bool     `json:"is_mandatory"`
}

// FOPLevel is a front-of-pack traffic-light level as computed upstream.
type FOPLevel string

const (
	FOPLow    FOPLevel = "LOW"
	FOPMedium FOPLevel = "MEDIUM"
	FOPHigh   FOPLevel = "HIGH"
)

// FOPIndicator is an externally computed front-of-pack indicator. It drives
// the traffic-light UI only and never feeds back into any arithmetic here.
type FOPIndicator struct {
	Nutrient string   `json:"nutrient"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	Level    FOPLevel `json:"level"`
	Color    string   `json:"color,omitempty"`
}

// CSSClass maps a FOP level onto the badge class used by the templates.
func (l FOPLevel) CSSClass() string {
	switch l {
	case FOPHigh:
		return "fop-high"
	case FOPMedium:
		return "fop-medium"
	default:
		return "fop-low"
	}
}

// perServing returns the per-serving value of the nutrient with the given
// name, matched case-insensitively. Missing nutrients report zero.
func perServing(entries []NutrientEntry, name string) float64 {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e.PerServing
		}
	}
	return 0
}

// find returns the first entry matching name case-insensitively.
func find(entries []NutrientEntry, name string) (NutrientEntry, bool) {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return NutrientEntry{}, false
}
