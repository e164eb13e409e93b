package upstream

import (
	"encoding/json"

	"github.com/satvika/web/internal/domain/nutrition"
	"github.com/satvika/web/internal/domain/parse"
)

// User is the account record attached to auth responses and the profile
// endpoint.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResponse is returned by login, register and the Google sign-in
// exchange.
type AuthResponse struct {
	Success   bool   `json:"success"`
	User      User   `json:"user"`
	Token     string `json:"token"`
	IsNewUser bool   `json:"is_new_user,omitempty"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Dashboard aggregates the landing-page stats.
type Dashboard struct {
	Stats struct {
		TotalRecipes     int `json:"total_recipes"`
		TotalIngredients int `json:"total_ingredients"`
		TotalLabels      int `json:"total_labels"`
		CompliancePct    int `json:"compliance_pct"`
	} `json:"stats"`
	ComplianceBreakdown struct {
		MandatoryNutrients string `json:"mandatory_nutrients"`
		MandatoryStatus    string `json:"mandatory_status"`
		ServingDeclaration string `json:"serving_declaration"`
		ServingStatus      string `json:"serving_status"`
		FOPIndicators      string `json:"fop_indicators"`
		FOPStatus          string `json:"fop_status"`
		AllergenInfo       string `json:"allergen_info"`
		AllergenStatus     string `json:"allergen_status"`
	} `json:"compliance_breakdown"`
	RecentRecipes []RecentRecipe `json:"recent_recipes"`
}

// RecentRecipe is a dashboard list row.
type RecentRecipe struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	BrandName       string `json:"brand_name"`
	IngredientCount int    `json:"ingredient_count"`
	CreatedAt       string `json:"created_at"`
}

// RecipeSummary is a recipe-list row with its computed compliance state.
type RecipeSummary struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	BrandName       string  `json:"brand_name"`
	Description     string  `json:"description"`
	IngredientCount int     `json:"ingredient_count"`
	ServingSize     float64 `json:"serving_size"`
	ServingUnit     string  `json:"serving_unit"`
	Manufacturer    string  `json:"manufacturer"`
	AllergenInfo    string  `json:"allergen_info"`
	Compliance      string  `json:"compliance"`
	CreatedAt       string  `json:"created_at"`
}

// RecipeIngredient is one weighed ingredient row of a stored recipe.
type RecipeIngredient struct {
	ID             int     `json:"id"`
	IngredientID   int     `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	WeightGrams    float64 `json:"weight_grams"`
}

// Recipe is the full recipe record, optionally with computed nutrition.
type Recipe struct {
	ID              int                       `json:"id"`
	Name            string                    `json:"name"`
	Description     string                    `json:"description"`
	ServingSize     float64                   `json:"serving_size"`
	ServingUnit     string                    `json:"serving_unit"`
	ServingsPerPack float64                   `json:"servings_per_pack"`
	BrandName       string                    `json:"brand_name"`
	Manufacturer    string                    `json:"manufacturer"`
	FSSAILicense    string                    `json:"fssai_license"`
	AllergenInfo    string                    `json:"allergen_info"`
	CreatedAt       string                    `json:"created_at"`
	UpdatedAt       string                    `json:"updated_at"`
	TotalWeight     float64                   `json:"total_weight"`
	Ingredients     []RecipeIngredient        `json:"ingredients"`
	Nutrition       []nutrition.NutrientEntry `json:"nutrition,omitempty"`
}

// IngredientInput references an ingredient by ID when creating or
// updating a recipe.
type IngredientInput struct {
	IngredientID int     `json:"ingredient_id"`
	WeightGrams  float64 `json:"weight_grams"`
}

// RecipeInput is the create/update payload.
type RecipeInput struct {
	Name            string            `json:"name" validate:"required,max=200"`
	Description     string            `json:"description"`
	ServingSize     float64           `json:"serving_size" validate:"gt=0"`
	ServingUnit     string            `json:"serving_unit"`
	ServingsPerPack float64           `json:"servings_per_pack" validate:"gt=0"`
	BrandName       string            `json:"brand_name"`
	Manufacturer    string            `json:"manufacturer"`
	FSSAILicense    string            `json:"fssai_license"`
	AllergenInfo    string            `json:"allergen_info"`
	Ingredients     []IngredientInput `json:"ingredients"`
}

// AnalysisResult is the full nutrition analysis of a stored recipe.
type AnalysisResult struct {
	Recipe        Recipe                    `json:"recipe"`
	Nutrition     []nutrition.NutrientEntry `json:"nutrition"`
	FOPIndicators []nutrition.FOPIndicator  `json:"fop_indicators"`
}

// ComplianceReport is the regulatory check result for a recipe.
type ComplianceReport struct {
	RecipeID          int                      `json:"recipe_id"`
	RecipeName        string                   `json:"recipe_name"`
	IsCompliant       bool                     `json:"is_compliant"`
	ComplianceNotes   []string                 `json:"compliance_notes"`
	Issues            []string                 `json:"issues"`
	Warnings          []string                 `json:"warnings"`
	Info              []string                 `json:"info"`
	FOPIndicators     []nutrition.FOPIndicator `json:"fop_indicators"`
	AIRecommendations []string                 `json:"ai_recommendations"`
	AISummary         string                   `json:"ai_summary"`
	AIPowered         bool                     `json:"ai_powered"`
}

// LabelPreview is the server-rendered label plus its supporting data.
type LabelPreview struct {
	Recipe          Recipe                    `json:"recipe"`
	LabelHTML       string                    `json:"label_html"`
	Nutrition       []nutrition.NutrientEntry `json:"nutrition"`
	IsCompliant     bool                      `json:"is_compliant"`
	ComplianceNotes []string                  `json:"compliance_notes"`
	FOPIndicators   []nutrition.FOPIndicator  `json:"fop_indicators"`
	IngredientList  string                    `json:"ingredient_list"`
}

// ExportResult acknowledges a generated label and points at its download.
type ExportResult struct {
	Success     bool   `json:"success"`
	LabelID     int    `json:"label_id"`
	Format      string `json:"format"`
	DownloadURL string `json:"download_url"`
	IsCompliant bool   `json:"is_compliant"`
}

// AutoAnalyzeRequest drives the one-shot pipeline: either a recipe_id
// for re-analysis, free text for parsing, or a full manual payload.
type AutoAnalyzeRequest struct {
	RecipeID        int               `json:"recipe_id,omitempty"`
	RecipeText      string            `json:"recipe_text,omitempty"`
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	ServingSize     float64           `json:"serving_size,omitempty"`
	ServingUnit     string            `json:"serving_unit,omitempty"`
	ServingsPerPack float64           `json:"servings_per_pack,omitempty"`
	BrandName       string            `json:"brand_name,omitempty"`
	Manufacturer    string            `json:"manufacturer,omitempty"`
	FSSAILicense    string            `json:"fssai_license,omitempty"`
	AllergenInfo    string            `json:"allergen_info,omitempty"`
	Ingredients     []IngredientInput `json:"ingredients,omitempty"`
}

// ComplianceData is the compliance block inside the pipeline result.
type ComplianceData struct {
	IsCompliant       bool     `json:"is_compliant"`
	ComplianceNotes   []string `json:"compliance_notes"`
	Issues            []string `json:"issues"`
	Warnings          []string `json:"warnings"`
	Info              []string `json:"info"`
	AIRecommendations []string `json:"ai_recommendations"`
	AISummary         string   `json:"ai_summary"`
	AIPowered         bool     `json:"ai_powered"`
}

// VersionStamp identifies the auto-save snapshot created by the pipeline.
type VersionStamp struct {
	Number    int    `json:"number"`
	CreatedAt string `json:"created_at"`
}

// AutoAnalyzeResult is everything the pipeline returns in one shot.
type AutoAnalyzeResult struct {
	Success              bool                      `json:"success"`
	Recipe               Recipe                    `json:"recipe"`
	Nutrition            []nutrition.NutrientEntry `json:"nutrition"`
	Compliance           ComplianceData            `json:"compliance"`
	FOPIndicators        []nutrition.FOPIndicator  `json:"fop_indicators"`
	LabelHTML            string                    `json:"label_html"`
	PDFDownloadURL       string                    `json:"pdf_download_url"`
	LabelID              *int                      `json:"label_id"`
	Version              VersionStamp              `json:"version"`
	IngredientList       string                    `json:"ingredient_list"`
	AllergenInfo         string                    `json:"allergen_info"`
	UnmatchedIngredients []string                  `json:"unmatched_ingredients"`
}

// LiveCalcRequest recalculates nutrition for an unsaved ingredient set.
type LiveCalcRequest struct {
	Ingredients []IngredientInput `json:"ingredients"`
	ServingSize float64           `json:"serving_size"`
}

// LiveCalcResult is the unsaved recalculation response.
type LiveCalcResult struct {
	Nutrition     []nutrition.NutrientEntry `json:"nutrition"`
	FOPIndicators []nutrition.FOPIndicator  `json:"fop_indicators"`
	TotalWeight   float64                   `json:"total_weight"`
}

// RecipeVersion is one auto-save snapshot in the history list.
type RecipeVersion struct {
	VersionNumber int             `json:"version_number"`
	IsCompliant   bool            `json:"is_compliant"`
	ChangeSummary string          `json:"change_summary"`
	CreatedAt     string          `json:"created_at"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

// VersionHistory is the version list for a recipe.
type VersionHistory struct {
	RecipeID   int             `json:"recipe_id"`
	RecipeName string          `json:"recipe_name"`
	Versions   []RecipeVersion `json:"versions"`
}

// IngredientSummary is a browse-list row with headline macros per 100g.
type IngredientSummary struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Energy   float64 `json:"energy"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// IngredientNutrient is one nutrient value of an ingredient detail view.
type IngredientNutrient struct {
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	ValuePer100g float64 `json:"value_per_100g"`
	Category     string  `json:"category"`
}

// IngredientDetail is the full ingredient record.
type IngredientDetail struct {
	ID          int                  `json:"id"`
	Name        string               `json:"name"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Aliases     []string             `json:"aliases"`
	Nutrients   []IngredientNutrient `json:"nutrients"`
}

// IngredientHit is an autocomplete match.
type IngredientHit struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// AllergenResult is the auto-detection response.
type AllergenResult struct {
	Success        bool     `json:"success"`
	Detected       bool     `json:"detected"`
	Allergens      []string `json:"allergens"`
	AllergenString string   `json:"allergen_string"`
}

// BatchCreated is one successfully ingested row of a batch upload.
type BatchCreated struct {
	Row              int    `json:"row"`
	ID               int    `json:"id"`
	Name             string `json:"name"`
	IngredientsAdded int    `json:"ingredients_added"`
}

// BatchRowError is one rejected row of a batch upload.
type BatchRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BatchUploadResult summarizes a CSV ingestion.
type BatchUploadResult struct {
	Success      bool            `json:"success"`
	Created      int             `json:"created"`
	Errors       int             `json:"errors"`
	Recipes      []BatchCreated  `json:"recipes"`
	ErrorDetails []BatchRowError `json:"error_details"`
}

// BatchProcessItem is one recipe's outcome in a process-all run.
type BatchProcessItem struct {
	RecipeID int    `json:"recipe_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// BatchProcessResult summarizes a process-all-labels run.
type BatchProcessResult struct {
	Success        bool               `json:"success"`
	Total          int                `json:"total"`
	Compliant      int                `json:"compliant"`
	NonCompliant   int                `json:"non_compliant"`
	ComplianceRate float64            `json:"compliance_rate"`
	Results        []BatchProcessItem `json:"results"`
}

// RecipeRef is a minimal recipe pointer used in alert impact lists.
type RecipeRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Alert is one regulatory notice with its impact analysis.
type Alert struct {
	ID                int         `json:"id"`
	Title             string      `json:"title"`
	TitleHindi        string      `json:"title_hindi"`
	Severity          string      `json:"severity"`
	Category          string      `json:"category"`
	Date              string      `json:"date"`
	Description       string      `json:"description"`
	AffectedNutrients []string    `json:"affected_nutrients"`
	RegulationRef     string      `json:"regulation_ref"`
	IsActive          bool        `json:"is_active"`
	ImpactedRecipes   int         `json:"impacted_recipes"`
	ImpactDetails     []RecipeRef `json:"impact_details"`
}

// AlertsResult is the regulatory alerts feed.
type AlertsResult struct {
	Alerts       []Alert `json:"alerts"`
	TotalRecipes int     `json:"total_recipes"`
	LastUpdated  string  `json:"last_updated"`
	AIGuidance   string  `json:"ai_guidance"`
}

// Defaults are the per-user recipe-form prefills.
type Defaults struct {
	DefaultBrandName       string  `json:"default_brand_name"`
	DefaultManufacturer    string  `json:"default_manufacturer"`
	DefaultFSSAILicense    string  `json:"default_fssai_license"`
	DefaultServingSize     float64 `json:"default_serving_size"`
	DefaultServingUnit     string  `json:"default_serving_unit"`
	DefaultServingsPerPack float64 `json:"default_servings_per_pack"`
}

// Settings is the settings-page aggregate.
type Settings struct {
	Profile struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		DateJoined string `json:"date_joined"`
	} `json:"profile"`
	Defaults Defaults `json:"defaults"`
	Stats    struct {
		TotalRecipes int `json:"total_recipes"`
		TotalLabels  int `json:"total_labels"`
	} `json:"stats"`
}

// SettingsUpdate is the settings save payload. Nil fields are omitted
// so the API only touches what was edited.
type SettingsUpdate struct {
	FirstName       *string   `json:"first_name,omitempty"`
	LastName        *string   `json:"last_name,omitempty"`
	Email           *string   `json:"email,omitempty" validate:"omitempty,email"`
	CurrentPassword string    `json:"current_password,omitempty"`
	NewPassword     string    `json:"new_password,omitempty" validate:"omitempty,min=8"`
	Defaults        *Defaults `json:"defaults,omitempty"`
}

// TranslateResult is the label translation response.
type TranslateResult struct {
	Success         bool   `json:"success"`
	Language        string `json:"language"`
	LanguageDisplay string `json:"language_display"`
	Original        string `json:"original"`
	Translated      string `json:"translated"`
}

// HighNutrient is one over-threshold nutrient in a reformulation report.
type HighNutrient struct {
	Nutrient  string  `json:"nutrient"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Threshold float64 `json:"threshold"`
	Excess    float64 `json:"excess"`
}

// ReformulationSuggestion is one proposed ingredient change.
type ReformulationSuggestion struct {
	OriginalIngredient    string   `json:"original_ingredient"`
	Action                string   `json:"action"`
	Replacement           string   `json:"replacement"`
	CurrentWeight         *float64 `json:"current_weight"`
	NewWeight             *float64 `json:"new_weight"`
	TargetNutrient        string   `json:"target_nutrient"`
	Reason                string   `json:"reason"`
	EstimatedReductionPct *float64 `json:"estimated_reduction_pct"`
	BeforePer100g         *float64 `json:"before_per_100g"`
	AfterPer100g          *float64 `json:"after_per_100g"`
	Unit                  string   `json:"unit"`
	Threshold             *float64 `json:"threshold"`
}

// ReformulateResult is the smart-reformulation response.
type ReformulateResult struct {
	Success            bool                      `json:"success"`
	NeedsReformulation bool                      `json:"needs_reformulation"`
	Message            string                    `json:"message,omitempty"`
	HighNutrients      []HighNutrient            `json:"high_nutrients,omitempty"`
	Attribution        json.RawMessage           `json:"attribution,omitempty"`
	Suggestions        []ReformulationSuggestion `json:"suggestions"`
}

// ShareResult carries the pre-filled share link.
type ShareResult struct {
	Success     bool   `json:"success"`
	Channel     string `json:"channel"`
	ShareURL    string `json:"share_url"`
	SummaryText string `json:"summary_text"`
}

// SuggestedIngredient is an AI-proposed ingredient matched against the
// database where possible.
type SuggestedIngredient struct {
	Name         string  `json:"name"`
	IngredientID *int    `json:"ingredient_id"`
	WeightGrams  float64 `json:"weight_grams"`
	Confidence   float64 `json:"confidence"`
	Category     string  `json:"category"`
}

// ParseResult re-exports the matched/unmatched split so handlers can
// hand it straight to the review flow.
type ParseResult = parse.Result
