package webserver

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satvika/web/internal/domain/batch"
	"github.com/satvika/web/internal/upstream"
)

// maxCSVUpload bounds batch uploads to 2 MiB.
const maxCSVUpload = 2 << 20

func (s *WebServer) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	settings, err := s.api.GetSettings(r.Context(), sess.Token)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/settings.html", map[string]interface{}{
		"Settings": settings,
	})
}

func (s *WebServer) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	update := upstream.SettingsUpdate{
		CurrentPassword: r.FormValue("current_password"),
		NewPassword:     r.FormValue("new_password"),
	}
	if v := strings.TrimSpace(r.FormValue("first_name")); r.Form.Has("first_name") {
		update.FirstName = &v
	}
	if v := strings.TrimSpace(r.FormValue("last_name")); r.Form.Has("last_name") {
		update.LastName = &v
	}
	if v := strings.TrimSpace(r.FormValue("email")); r.Form.Has("email") {
		update.Email = &v
	}

	if err := s.validate.Struct(update); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Please check the settings form and try again.")
		return
	}
	if err := s.api.UpdateSettings(r.Context(), sess.Token, update); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.setFlash(r, "Settings saved.")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (s *WebServer) handleDefaultsUpdate(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}

	defaults := upstream.Defaults{
		DefaultBrandName:       strings.TrimSpace(r.FormValue("default_brand_name")),
		DefaultManufacturer:    strings.TrimSpace(r.FormValue("default_manufacturer")),
		DefaultFSSAILicense:    strings.TrimSpace(r.FormValue("default_fssai_license")),
		DefaultServingSize:     formFloat(r, "default_serving_size", 100),
		DefaultServingUnit:     r.FormValue("default_serving_unit"),
		DefaultServingsPerPack: formFloat(r, "default_servings_per_pack", 1),
	}
	if defaults.DefaultServingUnit == "" {
		defaults.DefaultServingUnit = "g"
	}

	if err := s.api.UpdateDefaults(r.Context(), sess.Token, defaults); err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.setFlash(r, "Recipe defaults saved.")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (s *WebServer) handleAlertsPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	result, err := s.api.RegulatoryAlerts(r.Context(), sess.Token)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.alerts.Update(result.Alerts)
	s.alerts.MarkSeen()
	s.renderTemplate(w, r, "pages/alerts.html", map[string]interface{}{
		"Result": result,
	})
}

func (s *WebServer) handleHTMXAlertBadge(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, "partials/alert_badge.html", map[string]interface{}{
		"Count": s.alerts.UnseenCount(),
	})
}

// Batch CSV flow

func (s *WebServer) handleBatchPage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "pages/batch.html", map[string]interface{}{
		"Header": strings.Join(batch.Header, ","),
	})
}

// handleBatchTemplate serves the sample CSV so users start from the
// exact column contract the importer expects.
func (s *WebServer) handleBatchTemplate(w http.ResponseWriter, r *http.Request) {
	data := batch.Template()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="recipe_batch_template.csv"`)
	w.Write(data)
}

func (s *WebServer) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if !s.config.Features.EnableBatchUpload {
		s.renderError(w, r, http.StatusNotFound, "Batch upload is not enabled.")
		return
	}
	if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Upload a CSV file up to 2 MB.")
		return
	}
	file, header, err := r.FormFile("csv_file")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Choose a CSV file to upload.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCSVUpload))
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Could not read the uploaded file.")
		return
	}

	// Validate locally first so a malformed file fails fast with row
	// numbers instead of a round trip.
	rows, err := batch.ParseUpload(data)
	if err != nil {
		s.renderTemplate(w, r, "pages/batch.html", map[string]interface{}{
			"Header": strings.Join(batch.Header, ","),
			"Error":  err.Error(),
		})
		return
	}

	result, err := s.api.BatchUpload(r.Context(), sess.Token, header.Filename, data)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.logger.Info("batch upload complete",
		zap.Int("rows", len(rows)),
		zap.Int("created", result.Created),
		zap.Int("errors", result.Errors),
	)
	s.renderTemplate(w, r, "pages/batch_result.html", map[string]interface{}{
		"Result": result,
	})
}

func (s *WebServer) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	result, err := s.api.BatchProcess(r.Context(), sess.Token)
	if err != nil {
		s.renderUpstreamError(w, r, err)
		return
	}
	s.renderTemplate(w, r, "pages/batch_process.html", map[string]interface{}{
		"Result": result,
	})
}

// AI assist partials

func (s *WebServer) handleHTMXAnalyzeQuestion(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		s.partialError(w, http.StatusBadRequest, "Ask a question first.")
		return
	}
	recipeID, _ := strconv.Atoi(r.FormValue("recipe_id"))
	answer, err := s.api.AIAnalyze(r.Context(), sess.Token, question, recipeID)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Analysis is unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/ai_answer.html", map[string]interface{}{
		"Question": question,
		"Answer":   answer,
	})
}

func (s *WebServer) handleHTMXSuggestName(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	var names []string
	for _, raw := range r.Form["ingredient_name"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			names = append(names, raw)
		}
	}
	if len(names) == 0 {
		s.partialError(w, http.StatusBadRequest, "Add some ingredients first.")
		return
	}
	suggestions, err := s.api.SuggestRecipeName(r.Context(), sess.Token, names)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Name suggestions are unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/name_suggestions.html", map[string]interface{}{
		"Suggestions": suggestions,
	})
}

func (s *WebServer) handleHTMXSuggestIngredients(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	name := strings.TrimSpace(r.FormValue("recipe_name"))
	if name == "" {
		s.partialError(w, http.StatusBadRequest, "Enter a recipe name first.")
		return
	}
	suggestions, err := s.api.SuggestIngredients(r.Context(), sess.Token, name)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Ingredient suggestions are unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/ingredient_suggestions.html", map[string]interface{}{
		"Suggestions": suggestions,
	})
}

func (s *WebServer) handleHTMXTranslate(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	id, err := strconv.Atoi(r.FormValue("recipe_id"))
	if err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	language := r.FormValue("language")
	result, err := s.api.Translate(r.Context(), sess.Token, id, language)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Translation is unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/translation.html", result)
}

func (s *WebServer) handleHTMXReformulate(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	id, err := strconv.Atoi(r.FormValue("recipe_id"))
	if err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid recipe id.")
		return
	}
	result, err := s.api.Reformulate(r.Context(), sess.Token, id)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Reformulation advice is unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/reformulation.html", result)
}

func (s *WebServer) handleHTMXAllergens(w http.ResponseWriter, r *http.Request) {
	if !s.config.Features.EnableAIFeatures {
		s.partialError(w, http.StatusNotFound, "AI assistance is not enabled.")
		return
	}
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		s.partialError(w, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	recipeID, _ := strconv.Atoi(r.FormValue("recipe_id"))
	var names []string
	for _, raw := range r.Form["ingredient_name"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			names = append(names, raw)
		}
	}
	result, err := s.api.DetectAllergens(r.Context(), sess.Token, recipeID, names)
	if err != nil {
		s.partialError(w, http.StatusBadGateway, "Allergen detection is unavailable right now.")
		return
	}
	s.renderPartial(w, "partials/allergens.html", result)
}
