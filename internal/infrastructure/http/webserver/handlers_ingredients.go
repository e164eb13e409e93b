package webserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/satvika/web/internal/domain/ingredient"
	"github.com/satvika/web/internal/domain/nutrition"
	"github.com/satvika/web/internal/upstream"
)

func (s *WebServer) handleIngredientList(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")
	ingredients, categories, err := s.api.ListIngredients(r.Context(), sess.Token, query, category)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/ingredients.html", map[string]interface{}{
		"Ingredients": ingredients,
		"Categories":  categories,
		"Query":       query,
		"Category":    category,
	})
}

func (s *WebServer) handleIngredientDetail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid ingredient id.")
		return
	}
	detail, err := s.api.GetIngredient(r.Context(), sess.Token, id)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/ingredient_detail.html", map[string]interface{}{
		"Ingredient": detail,
		"IsLiquid":   ingredient.IsLiquid(detail.Name, detail.Category),
	})
}

// searchHit decorates an autocomplete match with the unit the recipe
// form should preselect.
type searchHit struct {
	upstream.IngredientHit
	DefaultUnit string
}

// handleHTMXIngredientSearch backs the recipe-form autocomplete. The
// sequencer drops responses that were overtaken by a newer keystroke
// so a slow early query never replaces fresher results.
func (s *WebServer) handleHTMXIngredientSearch(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.renderPartial(w, "partials/search_results.html", map[string]interface{}{})
		return
	}

	seq := s.searchSeq.Next(sess.ID)
	hits, err := s.api.SearchIngredients(r.Context(), query)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Search is unavailable right now.")
		return
	}
	if !s.searchSeq.IsCurrent(sess.ID, seq) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	decorated := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		decorated = append(decorated, searchHit{
			IngredientHit: h,
			DefaultUnit:   ingredient.DefaultUnit(h.Name, h.Category),
		})
	}
	s.renderPartial(w, "partials/search_results.html", map[string]interface{}{
		"Query": query,
		"Hits":  decorated,
	})
}

// handleHTMXLiveCalculate re-renders the nutrition preview as the user
// edits the unsaved ingredient rows.
func (s *WebServer) handleHTMXLiveCalculate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	req := upstream.LiveCalcRequest{
		ServingSize: formFloat(r, "serving_size", 100),
	}
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
		req.Ingredients = append(req.Ingredients, upstream.IngredientInput{
			IngredientID: id,
			WeightGrams:  weight,
		})
	}

	if len(req.Ingredients) == 0 {
		s.renderPartial(w, "partials/live_nutrition.html", map[string]interface{}{})
		return
	}

	result, err := s.api.LiveCalculate(r.Context(), sess.Token, req)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Could not recalculate nutrition.")
		return
	}
	s.renderPartial(w, "partials/live_nutrition.html", map[string]interface{}{
		"Nutrition":     result.Nutrition,
		"FOPIndicators": result.FOPIndicators,
		"TotalWeight":   result.TotalWeight,
		"MacroSlices":   nutrition.MacroSlices(result.Nutrition),
		"DVBars":        nutrition.DVBars(result.Nutrition),
		"Energy":        nutrition.EnergyPerServing(result.Nutrition),
	})
}
