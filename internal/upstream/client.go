// Package upstream is the typed client for the remote nutrition and
// compliance API. All computation (nutrition math, compliance checks,
// label rendering, AI features) happens on the API side; this client
// only shapes requests and decodes responses.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the nutrition API over HTTP with bearer auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Authentication

// Login exchanges credentials for a JWT and the user record.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	req := map[string]string{"username": username, "password": password}
	var resp AuthResponse
	if err := c.post(ctx, "/api/auth/login/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns a JWT for it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/api/auth/register/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a Google ID token for a JWT.
func (c *Client) GoogleLogin(ctx context.Context, credential string) (*AuthResponse, error) {
	req := map[string]string{"credential": credential}
	var resp AuthResponse
	if err := c.post(ctx, "/api/auth/google/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the token server-side. A failure is not fatal to the
// local logout.
func (c *Client) Logout(ctx context.Context, token string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	return c.post(ctx, "/api/auth/logout/", token, struct{}{}, &resp)
}

// RefreshToken trades the current JWT for a fresh one. The old token is
// revoked by the API.
func (c *Client) RefreshToken(ctx context.Context, token string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := c.post(ctx, "/api/auth/refresh/", token, struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Profile fetches the authenticated user. Also serves as a token check.
func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var resp User
	if err := c.get(ctx, "/api/auth/profile/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dashboard fetches the landing-page aggregates.
func (c *Client) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	var resp Dashboard
	if err := c.get(ctx, "/api/dashboard/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recipes

// ListRecipes fetches the user's recipes, optionally filtered by a
// name/brand substring.
func (c *Client) ListRecipes(ctx context.Context, token, query string) ([]RecipeSummary, error) {
	path := "/api/recipes/"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var resp struct {
		Recipes []RecipeSummary `json:"recipes"`
	}
	if err := c.get(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Recipes, nil
}

// CreateRecipe stores a new recipe and returns it with nutrition.
func (c *Client) CreateRecipe(ctx context.Context, token string, input RecipeInput) (*Recipe, error) {
	var resp Recipe
	if err := c.post(ctx, "/api/recipes/create/", token, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRecipe fetches a recipe with its computed nutrition.
func (c *Client) GetRecipe(ctx context.Context, token string, id int) (*Recipe, error) {
	var resp Recipe
	if err := c.get(ctx, recipePath(id, ""), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateRecipe patches recipe fields and, when Ingredients is non-nil,
// replaces the ingredient set.
func (c *Client) UpdateRecipe(ctx context.Context, token string, id int, input RecipeInput) (*Recipe, error) {
	var resp Recipe
	if err := c.do(ctx, http.MethodPatch, recipePath(id, "update/"), token, input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteRecipe removes a recipe and all its ingredient rows.
func (c *Client) DeleteRecipe(ctx context.Context, token string, id int) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodDelete, recipePath(id, "delete/"), token, nil, &resp)
}

// ParseRecipe submits free text and returns the matched/unmatched split.
func (c *Client) ParseRecipe(ctx context.Context, token, text string) (ParseResult, error) {
	req := map[string]string{"recipe_text": text}
	var resp ParseResult
	if err := c.post(ctx, "/api/recipes/parse/", token, req, &resp); err != nil {
		return ParseResult{}, err
	}
	return resp, nil
}

// Analyze runs the full nutrition analysis for a stored recipe.
func (c *Client) Analyze(ctx context.Context, token string, id int) (*AnalysisResult, error) {
	var resp AnalysisResult
	if err := c.get(ctx, recipePath(id, "analyze/"), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Compliance runs the regulatory check for a stored recipe.
func (c *Client) Compliance(ctx context.Context, token string, id int) (*ComplianceReport, error) {
	var resp ComplianceReport
	if err := c.get(ctx, recipePath(id, "compliance/"), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Label fetches the server-rendered label preview.
func (c *Client) Label(ctx context.Context, token string, id int) (*LabelPreview, error) {
	var resp LabelPreview
	if err := c.get(ctx, recipePath(id, "label/"), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Versions fetches the auto-save history of a recipe.
func (c *Client) Versions(ctx context.Context, token string, id int) (*VersionHistory, error) {
	var resp VersionHistory
	if err := c.get(ctx, recipePath(id, "versions/"), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export generates and stores a label server-side. A recipe created
// manually has no label record until this runs, so it must precede the
// first download.
func (c *Client) Export(ctx context.Context, token string, id int, format string) (*ExportResult, error) {
	req := map[string]string{"format": format}
	var resp ExportResult
	if err := c.post(ctx, recipePath(id, "export/"), token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download is an exported label blob with its serving metadata.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DownloadLabel fetches a generated label as a blob. labelID pins the
// exact record returned by Export; zero falls back to the newest label.
// The filename follows the nutrition_label_{id}.{ext} convention
// regardless of what the API's disposition header says.
func (c *Client) DownloadLabel(ctx context.Context, token string, id int, format string, labelID int) (*Download, error) {
	path := recipePath(id, "export/download/") + "?format=" + url.QueryEscape(format)
	if labelID > 0 {
		path += "&label_id=" + strconv.Itoa(labelID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(req.Method, "/api/recipes/{id}/export/download/", resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, c.errorFromBody(resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	filename := fmt.Sprintf("nutrition_label_%d.%s", id, format)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	return &Download{
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Pipeline

// AutoAnalyze runs the one-shot parse/calculate/comply/label pipeline.
func (c *Client) AutoAnalyze(ctx context.Context, token string, req AutoAnalyzeRequest) (*AutoAnalyzeResult, error) {
	var resp AutoAnalyzeResult
	if err := c.post(ctx, "/api/auto-analyze/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LiveCalculate recalculates nutrition for an unsaved ingredient set.
func (c *Client) LiveCalculate(ctx context.Context, token string, req LiveCalcRequest) (*LiveCalcResult, error) {
	var resp LiveCalcResult
	if err := c.post(ctx, "/api/live-calculate/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AI features

// AIAnalyze asks the API's model for nutritional insights, optionally
// grounded in a stored recipe.
func (c *Client) AIAnalyze(ctx context.Context, token, prompt string, recipeID int) (string, error) {
	req := map[string]interface{}{"prompt": prompt}
	if recipeID > 0 {
		req["recipe_id"] = recipeID
	}
	var resp struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}
	if err := c.post(ctx, "/api/ai/analyze/", token, req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// SuggestRecipeName proposes names for an ingredient set.
func (c *Client) SuggestRecipeName(ctx context.Context, token string, ingredients []string) ([]string, error) {
	req := map[string]interface{}{"ingredients": ingredients}
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := c.post(ctx, "/api/suggest-recipe-name/", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// SuggestIngredients proposes a database-matched ingredient set for a
// recipe name.
func (c *Client) SuggestIngredients(ctx context.Context, token, recipeName string) ([]SuggestedIngredient, error) {
	req := map[string]string{"recipe_name": recipeName}
	var resp struct {
		Ingredients []SuggestedIngredient `json:"ingredients"`
	}
	if err := c.post(ctx, "/api/suggest-ingredients/", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Ingredients, nil
}

// Translate renders the label text in a regional language.
func (c *Client) Translate(ctx context.Context, token string, recipeID int, language string) (*TranslateResult, error) {
	req := map[string]interface{}{"recipe_id": recipeID, "language": language}
	var resp TranslateResult
	if err := c.post(ctx, "/api/translate/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reformulate asks for ingredient substitutions that bring HIGH
// front-of-pack indicators under their thresholds.
func (c *Client) Reformulate(ctx context.Context, token string, recipeID int) (*ReformulateResult, error) {
	req := map[string]int{"recipe_id": recipeID}
	var resp ReformulateResult
	if err := c.post(ctx, "/api/reformulate/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Share builds a WhatsApp or email share link for a recipe's label.
func (c *Client) Share(ctx context.Context, token string, recipeID int, channel string) (*ShareResult, error) {
	req := map[string]interface{}{"recipe_id": recipeID, "channel": channel}
	var resp ShareResult
	if err := c.post(ctx, "/api/share/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Allergens

// DetectAllergens resolves allergens either from a stored recipe or an
// ad-hoc ingredient name list.
func (c *Client) DetectAllergens(ctx context.Context, token string, recipeID int, names []string) (*AllergenResult, error) {
	req := map[string]interface{}{}
	if recipeID > 0 {
		req["recipe_id"] = recipeID
	} else {
		req["ingredient_names"] = names
	}
	var resp AllergenResult
	if err := c.post(ctx, "/api/allergens/detect/", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Batch

// BatchUpload sends a recipe CSV as multipart form data.
func (c *Client) BatchUpload(ctx context.Context, token, filename string, csvData []byte) (*BatchUploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("csv_file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(csvData); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recipes/batch-upload/", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var resp BatchUploadResult
	if err := c.doRequest(req, "/api/recipes/batch-upload/", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchProcess regenerates labels and compliance for every recipe.
func (c *Client) BatchProcess(ctx context.Context, token string) (*BatchProcessResult, error) {
	var resp BatchProcessResult
	if err := c.post(ctx, "/api/batch-process/", token, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Alerts, settings, defaults

// RegulatoryAlerts fetches the alerts feed with per-recipe impact.
func (c *Client) RegulatoryAlerts(ctx context.Context, token string) (*AlertsResult, error) {
	var resp AlertsResult
	if err := c.get(ctx, "/api/regulatory-alerts/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSettings fetches the settings-page aggregate.
func (c *Client) GetSettings(ctx context.Context, token string) (*Settings, error) {
	var resp Settings
	if err := c.get(ctx, "/api/settings/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSettings saves profile edits, an optional password change, and
// optional default overrides.
func (c *Client) UpdateSettings(ctx context.Context, token string, update SettingsUpdate) error {
	var resp struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodPatch, "/api/settings/", token, update, &resp)
}

// GetDefaults fetches the recipe-form prefills.
func (c *Client) GetDefaults(ctx context.Context, token string) (*Defaults, error) {
	var resp Defaults
	if err := c.get(ctx, "/api/defaults/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateDefaults replaces the recipe-form prefills.
func (c *Client) UpdateDefaults(ctx context.Context, token string, defaults Defaults) error {
	var resp struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodPatch, "/api/defaults/", token, defaults, &resp)
}

// Ingredients

// ListIngredients browses the ingredient database with optional name
// and category filters.
func (c *Client) ListIngredients(ctx context.Context, token, query, category string) ([]IngredientSummary, []string, error) {
	path := "/api/ingredients/"
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if category != "" {
		q.Set("category", category)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Ingredients []IngredientSummary `json:"ingredients"`
		Categories  []string            `json:"categories"`
	}
	if err := c.get(ctx, path, token, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Ingredients, resp.Categories, nil
}

// GetIngredient fetches the full nutrient profile of one ingredient.
func (c *Client) GetIngredient(ctx context.Context, token string, id int) (*IngredientDetail, error) {
	var resp IngredientDetail
	if err := c.get(ctx, "/api/ingredients/"+strconv.Itoa(id)+"/", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchIngredients is the autocomplete endpoint. It needs no token.
func (c *Client) SearchIngredients(ctx context.Context, query string) ([]IngredientHit, error) {
	path := "/api/ingredients/search/v2/?q=" + url.QueryEscape(query)
	var resp struct {
		Results []IngredientHit `json:"results"`
	}
	if err := c.get(ctx, path, "", &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// VerifyConnection checks if the API is reachable.
func (c *Client) VerifyConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ingredients/search/v2/?q=", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Connection verification failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// Helper methods

func recipePath(id int, suffix string) string {
	return "/api/recipes/" + strconv.Itoa(id) + "/" + suffix
}

func (c *Client) post(ctx context.Context, path, token string, body interface{}, response interface{}) error {
	return c.do(ctx, http.MethodPost, path, token, body, response)
}

func (c *Client) get(ctx context.Context, path, token string, response interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, nil, response)
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, response interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.doRequest(req, path, response)
}

func (c *Client) doRequest(req *http.Request, endpoint string, response interface{}) error {
	c.logger.Debug("API request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(req.Method, endpoint, resp.StatusCode, start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("API error response",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", endpoint),
		)
		return c.errorFromBody(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// errorFromBody extracts the API's {"error": "..."} message if present.
func (c *Client) errorFromBody(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		unauthorizedTotal.Inc()
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return statusError(status, payload.Error)
}

func (c *Client) observe(method, endpoint string, status int, start time.Time) {
	endpoint = normalizeEndpoint(endpoint)
	requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}

// normalizeEndpoint strips query strings and collapses numeric path
// segments so metric label cardinality stays bounded.
func normalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	segs := strings.Split(endpoint, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			segs[i] = "{id}"
		}
	}
	return strings.Join(segs, "/")
}
