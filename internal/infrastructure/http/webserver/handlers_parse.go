package webserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/satvika/web/internal/domain/parse"
	"github.com/satvika/web/internal/upstream"
)

// The parse flow has two screens backed by one Review per session:
// free-text input, then match review with editable weights. Confirming
// hands the reconciled payload to the auto-analyze pipeline.

func (s *WebServer) handleParsePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	review := s.review(sess)
	s.renderParseState(w, r, review, "")
}

func (s *WebServer) handleParseSubmit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	text := strings.TrimSpace(r.FormValue("recipe_text"))
	if text == "" {
		review := s.review(sess)
		s.renderParseState(w, r, review, "Enter your recipe text first.")
		return
	}

	result, err := s.api.ParseRecipe(r.Context(), sess.Token, text)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	review := s.review(sess)
	review.Begin(text, result)
	s.renderParseState(w, r, review, "")
}

func (s *WebServer) handleParseBack(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	review := s.review(sess)
	review.BackToEdit()
	s.renderParseState(w, r, review, "")
}

func (s *WebServer) handleParseConfirm(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	review := s.review(sess)
	payload, err := review.Confirm(parse.Meta{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Description:     strings.TrimSpace(r.FormValue("description")),
		ServingSize:     formFloat(r, "serving_size", 100),
		ServingUnit:     r.FormValue("serving_unit"),
		ServingsPerPack: formFloat(r, "servings_per_pack", 1),
		BrandName:       strings.TrimSpace(r.FormValue("brand_name")),
		Manufacturer:    strings.TrimSpace(r.FormValue("manufacturer")),
		FSSAILicense:    strings.TrimSpace(r.FormValue("fssai_license")),
		AllergenInfo:    strings.TrimSpace(r.FormValue("allergen_info")),
	})
	if err != nil {
		s.renderParseState(w, r, review, "Parse the recipe before confirming.")
		return
	}

	req := upstream.AutoAnalyzeRequest{
		Name:            payload.Meta.Name,
		Description:     payload.Meta.Description,
		ServingSize:     payload.Meta.ServingSize,
		ServingUnit:     payload.Meta.ServingUnit,
		ServingsPerPack: payload.Meta.ServingsPerPack,
		BrandName:       payload.Meta.BrandName,
		Manufacturer:    payload.Meta.Manufacturer,
		FSSAILicense:    payload.Meta.FSSAILicense,
		AllergenInfo:    payload.Meta.AllergenInfo,
	}
	for _, ref := range payload.Ingredients {
		req.Ingredients = append(req.Ingredients, upstream.IngredientInput{
			IngredientID: ref.IngredientID,
			WeightGrams:  ref.WeightGrams,
		})
	}

	result, err := s.api.AutoAnalyze(r.Context(), sess.Token, req)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}

	// A fresh flow greets the next visit to /parse.
	s.dropReview(sess.ID)

	s.renderTemplate(w, r, "pages/parse_result.html", map[string]interface{}{
		"Result": result,
	})
}

// HTMX partials for in-place review edits.

func (s *WebServer) handleHTMXParseRemove(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	review := s.review(sess)
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid item index.")
		return
	}
	if err := review.Remove(idx); err != nil {
		s.partialError(w, http.StatusBadRequest, "That item is no longer in the list.")
		return
	}
	s.renderPartial(w, "partials/parse_review.html", s.parseViewData(review, ""))
}

func (s *WebServer) handleHTMXParseWeight(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	review := s.review(sess)
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid item index.")
		return
	}
	grams, err := strconv.ParseFloat(r.FormValue("weight_grams"), 64)
	if err != nil {
		s.partialError(w, http.StatusBadRequest, "Enter a weight in grams.")
		return
	}
	if err := review.SetWeight(idx, grams); err != nil {
		s.partialError(w, http.StatusBadRequest, "Weight must be greater than zero.")
		return
	}
	s.renderPartial(w, "partials/parse_review.html", s.parseViewData(review, ""))
}

func (s *WebServer) renderParseState(w http.ResponseWriter, r *http.Request, review *parse.Review, errMsg string) {
	s.renderTemplate(w, r, "pages/parse.html", s.parseViewData(review, errMsg))
}

func (s *WebServer) parseViewData(review *parse.Review, errMsg string) map[string]interface{} {
	return map[string]interface{}{
		"Phase":     review.Phase(),
		"InReview":  review.Phase() == parse.PhaseReview,
		"Text":      review.Text(),
		"Matched":   review.Matched(),
		"Unmatched": review.Unmatched(),
		"Error":     errMsg,
	}
}
