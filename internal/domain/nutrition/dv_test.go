package nutrition

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDVBars_FiltersAndOrders(t *testing.T) {
	entries := []NutrientEntry{
		entry("Sodium", "mg", 900, dvPtr(150)),
		entry("Total Fat", "g", 18, dvPtr(80)),
		entry("Iron", "mg", 5, dvPtr(30)),
		entry("Calcium", "mg", 80, dvPtr(10)),
		entry("Energy", "kcal", 200, nil),       // null %DV excluded
		entry("Vitamin C", "mg", 2, dvPtr(-5)),  // negative excluded
	}

	bars := DVBars(entries)
	require.Len(t, bars, 4)

	got := make([]float64, len(bars))
	for i, b := range bars {
		got[i] = b.PercentDV
	}
	assert.Equal(t, []float64{150, 80, 30, 10}, got)

	for i := 1; i < len(bars); i++ {
		assert.Greater(t, bars[i-1].PercentDV, bars[i].PercentDV)
	}
}

func TestDVBars_CompactNames(t *testing.T) {
	entries := []NutrientEntry{
		entry("Total Fat", "g", 18, dvPtr(80)),
		entry("Dietary Fibre", "g", 6, dvPtr(24)),
		entry("Sodium", "mg", 300, dvPtr(15)),
	}
	bars := DVBars(entries)
	require.Len(t, bars, 3)
	assert.Equal(t, "Fat", bars[0].Name)
	assert.Equal(t, "Fibre", bars[1].Name)
	assert.Equal(t, "Sodium", bars[2].Name)
}

func TestDVBars_TopTwelve(t *testing.T) {
	var entries []NutrientEntry
	for i := 1; i <= 20; i++ {
		entries = append(entries, entry(fmt.Sprintf("Nutrient %d", i), "g", 1, dvPtr(float64(i))))
	}
	bars := DVBars(entries)
	require.Len(t, bars, 12)
	assert.Equal(t, 20.0, bars[0].PercentDV)
	assert.Equal(t, 9.0, bars[11].PercentDV)
}

func TestDVBars_Rounding(t *testing.T) {
	bars := DVBars([]NutrientEntry{entry("Iron", "mg", 5, dvPtr(33.333))})
	require.Len(t, bars, 1)
	assert.Equal(t, 33.3, bars[0].PercentDV)
}

func TestSeverityThresholds(t *testing.T) {
	tests := []struct {
		pct      float64
		expected Severity
	}{
		{150, SeverityDanger},
		{100.1, SeverityDanger},
		{100, SeverityWarn},
		{51, SeverityWarn},
		{50, SeverityInfo},
		{20.5, SeverityInfo},
		{20, SeverityOK},
		{1, SeverityOK},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, severityFor(tt.pct), "pct=%v", tt.pct)
	}
}
