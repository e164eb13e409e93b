package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The page tests below drive real handlers against a stub backend and
// assert on the rendered HTML, so template/field mismatches fail here
// instead of as a 500 in front of a user.

func jsonBackend(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			t.Fatalf("unexpected upstream call %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func getPage(t *testing.T, env *testEnv, cookie *http.Cookie, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)
	return rec
}

const recipeWithNutrition = `{
	"id": 42, "name": "Masala Oats", "description": "Savoury breakfast oats",
	"serving_size": 40, "serving_unit": "g", "servings_per_pack": 5,
	"ingredients": [
		{"id": 1, "ingredient_id": 11, "ingredient_name": "Rolled Oats", "weight_grams": 35},
		{"id": 2, "ingredient_id": 12, "ingredient_name": "Dried Vegetables", "weight_grams": 4}
	],
	"nutrition": [
		{"nutrient_id": 1, "name": "Energy", "unit": "kcal", "per_serving": 160, "per_100g": 400, "percent_dv": null},
		{"nutrient_id": 2, "name": "Total Fat", "unit": "g", "per_serving": 3, "per_100g": 7.5, "percent_dv": 4.5},
		{"nutrient_id": 3, "name": "Total Carbohydrate", "unit": "g", "per_serving": 26, "per_100g": 65, "percent_dv": 9.5},
		{"nutrient_id": 4, "name": "Dietary Fibre", "unit": "g", "per_serving": 4, "per_100g": 10, "percent_dv": 16},
		{"nutrient_id": 5, "name": "Protein", "unit": "g", "per_serving": 5, "per_100g": 12.5, "percent_dv": 10},
		{"nutrient_id": 6, "name": "Sodium", "unit": "mg", "per_serving": 420, "per_100g": 1050, "percent_dv": 21}
	]
}`

func TestRecipeDetailPage_RendersIngredientsAndCharts(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/42/": recipeWithNutrition,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	rec := getPage(t, env, env.loggedIn(t), "/recipes/42")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Masala Oats")
	assert.Contains(t, body, "Rolled Oats")
	assert.Contains(t, body, "Dried Vegetables")
	assert.Contains(t, body, "Net Carbs")
	assert.Contains(t, body, "% Daily value")
	assert.Contains(t, body, "Sodium")
}

func TestEditRecipePage_PrefillsIngredientRows(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/42/": recipeWithNutrition,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	rec := getPage(t, env, env.loggedIn(t), "/recipes/42/edit")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<span>Rolled Oats</span>")
	assert.Contains(t, body, `value="35"`)
	assert.Contains(t, body, "Save changes")
}

func TestDashboardPage_RendersRecentRecipes(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/dashboard/": `{
			"stats": {"total_recipes": 3, "total_ingredients": 18, "total_labels": 2, "compliance_pct": 67},
			"compliance_breakdown": {
				"mandatory_nutrients": "All present", "mandatory_status": "OK",
				"serving_declaration": "Declared", "serving_status": "OK",
				"fop_indicators": "2 high", "fop_status": "WARN",
				"allergen_info": "Declared", "allergen_status": "OK"
			},
			"recent_recipes": [
				{"id": 42, "name": "Masala Oats", "brand_name": "Annapurna", "ingredient_count": 4, "created_at": "2026-08-01"},
				{"id": 43, "name": "Plain Poha", "brand_name": "", "ingredient_count": 2, "created_at": "2026-08-02"}
			]
		}`,
		"/api/auth/profile/": `{"id": 7, "username": "asha", "first_name": "Asha"}`,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	rec := getPage(t, env, env.loggedIn(t), "/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome back, Asha")
	assert.Contains(t, body, "Masala Oats")
	assert.Contains(t, body, "Annapurna · 4 ingredients")
	assert.Contains(t, body, "2 ingredients")
}

func TestRecipeListPage_RendersComplianceTags(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/": `{"recipes": [
			{"id": 1, "name": "Masala Oats", "serving_size": 40, "compliance": "compliant"},
			{"id": 2, "name": "Bhujia", "serving_size": 30, "compliance": "non-compliant"},
			{"id": 3, "name": "Plain Poha", "serving_size": 50, "compliance": "pending"}
		]}`,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	rec := getPage(t, env, env.loggedIn(t), "/recipes")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<span class="tag ok">compliant</span>`)
	assert.Contains(t, body, `<span class="tag warn">review</span>`)
	assert.Contains(t, body, `<span class="tag">pending</span>`)
}

func TestLabelPage_OffersClientSidePNG(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/42/label/": `{
			"recipe": {"id": 42, "name": "Masala Oats"},
			"label_html": "<div class=\"fssai-label\">label body</div>",
			"is_compliant": true,
			"ingredient_list": "Rolled Oats (87.5%), Dried Vegetables (10%), Salt (2.5%)"
		}`,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	rec := getPage(t, env, env.loggedIn(t), "/recipes/42/label")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// The PNG download rasterizes the rendered frame in the browser, so
	// the page must carry the frame id, the handler and html2canvas.
	assert.Contains(t, body, `id="label-frame"`)
	assert.Contains(t, body, "downloadLabelPNG(")
	assert.Contains(t, body, "html2canvas")
	assert.Contains(t, body, `<div class="fssai-label">label body</div>`)
}

func TestAnalysisPage_RendersMacroAndDVCharts(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/42/analyze/": `{
			"recipe": {"id": 42, "name": "Masala Oats"},
			"nutrition": [
				{"nutrient_id": 1, "name": "Energy", "unit": "kcal", "per_serving": 160, "percent_dv": null},
				{"nutrient_id": 2, "name": "Total Fat", "unit": "g", "per_serving": 3, "percent_dv": 4.5},
				{"nutrient_id": 3, "name": "Total Carbohydrate", "unit": "g", "per_serving": 26, "percent_dv": 9.5},
				{"nutrient_id": 5, "name": "Protein", "unit": "g", "per_serving": 5, "percent_dv": 10},
				{"nutrient_id": 6, "name": "Sodium", "unit": "mg", "per_serving": 420, "percent_dv": 55}
			],
			"fop_indicators": [
				{"nutrient": "Sodium", "value": 1050, "unit": "mg", "level": "high"}
			]
		}`,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	req := httptest.NewRequest(http.MethodPost, "/recipes/42/analyze", nil)
	req.AddCookie(env.loggedIn(t))
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Analysis: Masala Oats")
	assert.Contains(t, body, "Calories by macronutrient")
	assert.Contains(t, body, "Net Carbs")
	assert.Contains(t, body, "% Daily value")
	assert.Contains(t, body, `class="dv-warn"`)
}

func TestAnalysisPage_NoMacroDataState(t *testing.T) {
	backend := jsonBackend(t, map[string]string{
		"/api/recipes/42/analyze/": `{
			"recipe": {"id": 42, "name": "Water"},
			"nutrition": [],
			"fop_indicators": []
		}`,
	})
	defer backend.Close()

	env := newTestEnv(t, backend.URL)
	req := httptest.NewRequest(http.MethodPost, "/recipes/42/analyze", nil)
	req.AddCookie(env.loggedIn(t))
	rec := httptest.NewRecorder()
	env.server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No macro data for this recipe yet.")
}
