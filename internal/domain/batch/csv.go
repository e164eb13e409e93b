// Package batch defines the CSV exchange format for bulk recipe upload.
// The header layout and the ingredient cell encoding are the contract the
// remote API consumes; the template served for download and the upload
// pre-validation both derive from the same constants here.
package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the exact column order the API expects. Reordering or
// renaming columns breaks server-side ingestion.
var Header = []string{
	"name",
	"description",
	"brand_name",
	"manufacturer",
	"fssai_license",
	"allergen_info",
	"serving_size",
	"serving_unit",
	"servings_per_pack",
	"ingredients",
}

// Ingredient is one entry of the semicolon-separated ingredients cell.
type Ingredient struct {
	Name        string
	WeightGrams float64
}

// Row is one recipe line of the upload file.
type Row struct {
	Name            string
	Description     string
	BrandName       string
	Manufacturer    string
	FSSAILicense    string
	AllergenInfo    string
	ServingSize     float64
	ServingUnit     string
	ServingsPerPack float64
	Ingredients     []Ingredient
}

// EncodeIngredients renders the ingredients cell as "Name:Weight;...".
// Weights are printed with minimal digits so 200 stays "200", not "200.0".
func EncodeIngredients(items []Ingredient) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s:%s", it.Name,
			strconv.FormatFloat(it.WeightGrams, 'f', -1, 64)))
	}
	return strings.Join(parts, ";")
}

// DecodeIngredients parses the "Name:Weight;..." cell. Blank segments are
// skipped; a missing or unparseable weight falls back to 100 grams, the
// same default the ingestion side applies.
func DecodeIngredients(cell string) []Ingredient {
	var out []Ingredient
	for _, seg := range strings.Split(cell, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		name, weightStr, hasWeight := strings.Cut(seg, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		weight := 100.0
		if hasWeight {
			if v, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64); err == nil {
				weight = v
			}
		}
		out = append(out, Ingredient{Name: name, WeightGrams: weight})
	}
	return out
}

// Template returns the downloadable starter CSV: the header plus one
// illustrative row.
func Template() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header)
	_ = w.Write([]string{
		"Masala Oats",
		"Savory oats with vegetables",
		"MyBrand",
		"MyBrand Foods Pvt Ltd",
		"10012345678901",
		"Contains gluten",
		"40",
		"g",
		"10",
		EncodeIngredients([]Ingredient{
			{Name: "Oats", WeightGrams: 35},
			{Name: "Dried Vegetables", WeightGrams: 4},
			{Name: "Salt", WeightGrams: 1},
		}),
	})
	w.Flush()
	return buf.Bytes()
}

// ValidateHeader checks an uploaded file's header row against Header.
// The comparison is exact; the round trip from Template through a
// spreadsheet must not require any reformatting.
func ValidateHeader(got []string) error {
	if len(got) != len(Header) {
		return fmt.Errorf("batch: header has %d columns, want %d", len(got), len(Header))
	}
	for i, col := range Header {
		if got[i] != col {
			return fmt.Errorf("batch: header column %d is %q, want %q", i+1, got[i], col)
		}
	}
	return nil
}

// ParseUpload reads and pre-validates an upload before it is forwarded
// to the API, so header and row problems surface without a round trip.
func ParseUpload(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("batch: reading header: %w", err)
	}
	if err := ValidateHeader(header); err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("batch: row %d: %w", line, err)
		}
		if strings.TrimSpace(rec[0]) == "" {
			return nil, fmt.Errorf("batch: row %d is missing a recipe name", line)
		}
		rows = append(rows, Row{
			Name:            strings.TrimSpace(rec[0]),
			Description:     rec[1],
			BrandName:       rec[2],
			Manufacturer:    rec[3],
			FSSAILicense:    rec[4],
			AllergenInfo:    rec[5],
			ServingSize:     parseFloatDefault(rec[6], 100),
			ServingUnit:     defaultString(rec[7], "g"),
			ServingsPerPack: parseFloatDefault(rec[8], 1),
			Ingredients:     DecodeIngredients(rec[9]),
		})
	}
	return rows, nil
}

func parseFloatDefault(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return v
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
