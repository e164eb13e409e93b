package batch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_HeaderRoundTrip(t *testing.T) {
	tpl := Template()

	// The first line of the template must come back unchanged when the
	// file is re-uploaded as-is.
	firstLine, _, found := bytes.Cut(tpl, []byte("\n"))
	require.True(t, found)
	assert.Equal(t,
		"name,description,brand_name,manufacturer,fssai_license,allergen_info,serving_size,serving_unit,servings_per_pack,ingredients",
		string(bytes.TrimRight(firstLine, "\r")))

	rows, err := ParseUpload(tpl)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Masala Oats", rows[0].Name)
	assert.Equal(t, 40.0, rows[0].ServingSize)
	require.Len(t, rows[0].Ingredients, 3)
	assert.Equal(t, Ingredient{Name: "Oats", WeightGrams: 35}, rows[0].Ingredients[0])
}

func TestValidateHeader(t *testing.T) {
	assert.NoError(t, ValidateHeader(Header))

	wrongOrder := append([]string{"description", "name"}, Header[2:]...)
	assert.Error(t, ValidateHeader(wrongOrder))

	assert.Error(t, ValidateHeader(Header[:9]))
}

func TestEncodeDecodeIngredients(t *testing.T) {
	items := []Ingredient{
		{Name: "Rice", WeightGrams: 200},
		{Name: "Wheat Flour", WeightGrams: 150.5},
		{Name: "Salt", WeightGrams: 5},
	}

	cell := EncodeIngredients(items)
	assert.Equal(t, "Rice:200;Wheat Flour:150.5;Salt:5", cell)

	assert.Equal(t, items, DecodeIngredients(cell))
}

func TestDecodeIngredients_Defaults(t *testing.T) {
	got := DecodeIngredients("Rice; Salt:abc ;;:10;Oats:20")
	require.Len(t, got, 3)
	assert.Equal(t, Ingredient{Name: "Rice", WeightGrams: 100}, got[0])  // no weight
	assert.Equal(t, Ingredient{Name: "Salt", WeightGrams: 100}, got[1]) // bad weight
	assert.Equal(t, Ingredient{Name: "Oats", WeightGrams: 20}, got[2])

	assert.Empty(t, DecodeIngredients(""))
}

func TestParseUpload_Errors(t *testing.T) {
	_, err := ParseUpload([]byte("name,description\nA,B\n"))
	assert.ErrorContains(t, err, "header")

	missing := "name,description,brand_name,manufacturer,fssai_license,allergen_info,serving_size,serving_unit,servings_per_pack,ingredients\n" +
		",desc,,,,,,,,\n"
	_, err = ParseUpload([]byte(missing))
	assert.ErrorContains(t, err, "missing a recipe name")
}

func TestParseUpload_MalformedRowReportsLine(t *testing.T) {
	data := "name,description,brand_name,manufacturer,fssai_license,allergen_info,serving_size,serving_unit,servings_per_pack,ingredients\n" +
		"Good Row,,,,,,,,,\n" +
		"Bad Row,only,three\n" +
		"Never Reached,,,,,,,,,\n"
	rows, err := ParseUpload([]byte(data))
	require.Error(t, err)
	assert.ErrorContains(t, err, "row 3")
	assert.Nil(t, rows)
}

func TestParseUpload_RowDefaults(t *testing.T) {
	data := "name,description,brand_name,manufacturer,fssai_license,allergen_info,serving_size,serving_unit,servings_per_pack,ingredients\n" +
		"Plain Poha,,,,,,,,,\n"
	rows, err := ParseUpload([]byte(data))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].ServingSize)
	assert.Equal(t, "g", rows[0].ServingUnit)
	assert.Equal(t, 1.0, rows[0].ServingsPerPack)
	assert.Empty(t, rows[0].Ingredients)
}
