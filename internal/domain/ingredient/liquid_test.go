package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLiquid(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     bool
	}{
		{"Coconut Milk", "Other", true},     // keyword match
		{"Lentils", "Dairy", true},          // category match
		{"Rice", "Cereals", false},          // neither
		{"Sunflower Oil", "Oils", true},     // both
		{"Mango Juice Concentrate", "", true},
		{"WATER", "", true},
		{"Spring water", "beverages", true}, // category case-insensitive
		{"Jaggery", "Sweeteners", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLiquid(tt.name, tt.category))
		})
	}
}

func TestDefaultUnit(t *testing.T) {
	assert.Equal(t, UnitMillilitres, DefaultUnit("Coconut Milk", "Other"))
	assert.Equal(t, UnitGrams, DefaultUnit("Rice", "Cereals"))
}
