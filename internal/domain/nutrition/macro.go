package nutrition

import "math"

// Atwater energy conversion factors, kcal per gram.
const (
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
	kcalPerGramProtein = 4
	kcalPerGramFibre   = 2
)

// Nutrient names as they appear in the analysis response. Matching is
// case-insensitive, so these only fix the canonical spelling.
const (
	nameEnergy   = "Energy"
	nameTotalFat = "Total Fat"
	nameCarbs    = "Total Carbohydrate"
	nameProtein  = "Protein"
	nameFibre    = "Dietary Fibre"
)

// MacroBreakdown holds the per-serving macro grams derived from one
// nutrient list. Net carbs subtract fibre so its energy contribution is
// not counted twice; the result is clamped at zero.
type MacroBreakdown struct {
	Fat      float64
	NetCarbs float64
	Protein  float64
	Fibre    float64
}

// MacroSlice is one pie-chart record: a macro's kcal contribution, its
// grams, its integer share of the macro energy, and its %DV when the
// underlying nutrient declares one.
type MacroSlice struct {
	Name      string   `json:"name"`
	Kcal      float64  `json:"value"`
	Grams     float64  `json:"grams"`
	Pct       int      `json:"pct"`
	PercentDV *float64 `json:"dv,omitempty"`
}

// Breakdown derives the macro grams for one recipe's nutrient list.
// Missing nutrients contribute zero.
func Breakdown(entries []NutrientEntry) MacroBreakdown {
	carbs := perServing(entries, nameCarbs)
	fibre := perServing(entries, nameFibre)
	return MacroBreakdown{
		Fat:      perServing(entries, nameTotalFat),
		NetCarbs: math.Max(0, carbs-fibre),
		Protein:  perServing(entries, nameProtein),
		Fibre:    fibre,
	}
}

// TotalKcal is the Atwater-derived macro energy sum. It is only ever used
// as the pie-chart denominator; the energy badge shows EnergyPerServing.
func (b MacroBreakdown) TotalKcal() float64 {
	return b.Fat*kcalPerGramFat +
		b.NetCarbs*kcalPerGramCarbs +
		b.Protein*kcalPerGramProtein +
		b.Fibre*kcalPerGramFibre
}

// MacroSlices turns a nutrient list into pie-chart-ready records for Fat,
// Net Carbs, Protein and Fibre. Zero-kcal macros are dropped; an input
// with no macro data yields an empty slice, which the view renders as an
// explicit "no macro data" state rather than an error.
func MacroSlices(entries []NutrientEntry) []MacroSlice {
	b := Breakdown(entries)

	total := b.TotalKcal()
	if total == 0 {
		total = 1 // guard the share division
	}

	candidates := []struct {
		name     string
		grams    float64
		factor   float64
		nutrient string
	}{
		{"Fat", b.Fat, kcalPerGramFat, nameTotalFat},
		{"Net Carbs", b.NetCarbs, kcalPerGramCarbs, nameCarbs},
		{"Protein", b.Protein, kcalPerGramProtein, nameProtein},
		{"Fibre", b.Fibre, kcalPerGramFibre, nameFibre},
	}

	slices := make([]MacroSlice, 0, len(candidates))
	for _, c := range candidates {
		kcal := c.grams * c.factor
		if kcal == 0 {
			continue
		}
		s := MacroSlice{
			Name:  c.name,
			Kcal:  round1(kcal),
			Grams: round1(c.grams),
			Pct:   int(math.Round(kcal / total * 100)),
		}
		if e, ok := find(entries, c.nutrient); ok && e.PercentDV != nil {
			dv := round1(*e.PercentDV)
			s.PercentDV = &dv
		}
		slices = append(slices, s)
	}
	return slices
}

// EnergyPerServing returns the server-provided kcal/serving for the energy
// badge. It may deviate slightly from the Atwater sum; the divergence is
// intentional and displayed as-is.
func EnergyPerServing(entries []NutrientEntry) float64 {
	return perServing(entries, nameEnergy)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
