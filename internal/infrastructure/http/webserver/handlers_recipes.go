package webserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/satvika/web/internal/domain/nutrition"
	"github.com/satvika/web/internal/upstream"
)

func (s *WebServer) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	query := r.URL.Query().Get("q")
	recipes, err := s.api.ListRecipes(r.Context(), sess.Token, query)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/recipes.html", map[string]interface{}{
		"Recipes": recipes,
		"Query":   query,
	})
}

func (s *WebServer) handleNewRecipePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	defaults, err := s.api.GetDefaults(r.Context(), sess.Token)
	if err != nil {
		// The form still works without prefills.
		defaults = &upstream.Defaults{
			DefaultServingSize:     100,
			DefaultServingUnit:     "g",
			DefaultServingsPerPack: 1,
		}
	}
	s.renderTemplate(w, r, "pages/recipe_form.html", map[string]interface{}{
		"Defaults": defaults,
		"IsEdit":   false,
	})
}

func (s *WebServer) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	input, err := s.recipeFormInput(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recipe, err := s.api.CreateRecipe(r.Context(), sess.Token, input)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/recipes/%d", recipe.ID), http.StatusSeeOther)
}

func (s *WebServer) handleRecipeDetail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	recipe, err := s.api.GetRecipe(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/recipe_detail.html", map[string]interface{}{
		"Recipe":      recipe,
		"MacroSlices": nutrition.MacroSlices(recipe.Nutrition),
		"DVBars":      nutrition.DVBars(recipe.Nutrition),
		"Energy":      nutrition.EnergyPerServing(recipe.Nutrition),
	})
}

func (s *WebServer) handleEditRecipePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	recipe, err := s.api.GetRecipe(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/recipe_form.html", map[string]interface{}{
		"Recipe": recipe,
		"IsEdit": true,
	})
}

func (s *WebServer) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	input, err := s.recipeFormInput(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.api.UpdateRecipe(r.Context(), sess.Token, id, input); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/recipes/%d", id), http.StatusSeeOther)
}

func (s *WebServer) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	if err := s.api.DeleteRecipe(r.Context(), sess.Token, id); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	// HTMX delete swaps the row out; full requests go back to the list.
	if r.Header.Get("HX-Request") == "true" {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *WebServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	result, err := s.api.Analyze(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/analysis.html", map[string]interface{}{
		"Result":      result,
		"MacroSlices": nutrition.MacroSlices(result.Nutrition),
		"DVBars":      nutrition.DVBars(result.Nutrition),
		"Energy":      nutrition.EnergyPerServing(result.Nutrition),
	})
}

func (s *WebServer) handleCompliance(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	report, err := s.api.Compliance(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/compliance.html", map[string]interface{}{
		"Report": report,
	})
}

func (s *WebServer) handleLabel(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	label, err := s.api.Label(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/label.html", map[string]interface{}{
		"Label":    label,
		"RecipeID": id,
	})
}

func (s *WebServer) handleVersions(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	history, err := s.api.Versions(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/versions.html", map[string]interface{}{
		"History": history,
	})
}

// handleExport streams a label export in the requested format straight
// through to the browser as a download.
func (s *WebServer) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}
	// Generate the label record first; a manually created recipe has
	// nothing to download until the export runs.
	exp, err := s.api.Export(r.Context(), sess.Token, id, format)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	dl, err := s.api.DownloadLabel(r.Context(), sess.Token, id, format, exp.LabelID)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Write(dl.Data)
}

func (s *WebServer) handleShare(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := recipeID(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	channel := r.FormValue("channel")
	result, err := s.api.Share(r.Context(), sess.Token, id, channel)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderPartial(w, "partials/share_result.html", result)
}

// recipeID reads the {id} route parameter.
func recipeID(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// recipeFormInput maps the recipe form onto the API payload. Ingredient
// rows arrive as parallel ingredient_id / weight_grams fields.
func (s *WebServer) recipeFormInput(r *http.Request) (upstream.RecipeInput, error) {
	var input upstream.RecipeInput
	if err := r.ParseForm(); err != nil {
		return input, fmt.Errorf("invalid form submission")
	}

	input.Name = strings.TrimSpace(r.FormValue("name"))
	input.Description = strings.TrimSpace(r.FormValue("description"))
	input.BrandName = strings.TrimSpace(r.FormValue("brand_name"))
	input.Manufacturer = strings.TrimSpace(r.FormValue("manufacturer"))
	input.FSSAILicense = strings.TrimSpace(r.FormValue("fssai_license"))
	input.AllergenInfo = strings.TrimSpace(r.FormValue("allergen_info"))
	input.ServingUnit = r.FormValue("serving_unit")
	if input.ServingUnit == "" {
		input.ServingUnit = "g"
	}

	input.ServingSize = formFloat(r, "serving_size", 100)
	input.ServingsPerPack = formFloat(r, "servings_per_pack", 1)

	ids := r.Form["ingredient_id"]
	weights := r.Form["weight_grams"]
	for i, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			continue
		}
		weight := 100.0
		if i < len(weights) {
			if v, err := strconv.ParseFloat(weights[i], 64); err == nil && v > 0 {
				weight = v
			}
		}
		input.Ingredients = append(input.Ingredients, upstream.IngredientInput{
			IngredientID: id,
			WeightGrams:  weight,
		})
	}

	if err := s.validate.Struct(input); err != nil {
		return input, fmt.Errorf("recipe name and positive serving sizes are required")
	}
	return input, nil
}

func formFloat(r *http.Request, field string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.FormValue(field), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
