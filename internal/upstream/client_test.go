package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop())
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha", body["username"])
		assert.Equal(t, "secret", body["password"])

		json.NewEncoder(w).Encode(AuthResponse{
			Success: true,
			Token:   "jwt-token",
			User:    User{ID: 7, Username: "asha"},
		})
	})

	resp, err := c.Login(context.Background(), "asha", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, 7, resp.User.ID)
}

func TestBearerTokenAttached(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/dashboard/", r.URL.Path)
		json.NewEncoder(w).Encode(Dashboard{})
	})

	_, err := c.Dashboard(context.Background(), "tok-123")
	require.NoError(t, err)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		})
		_, err := c.Dashboard(context.Background(), "tok")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Recipe name is required"})
	})

	_, err := c.CreateRecipe(context.Background(), "tok", RecipeInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Recipe name")
}

func TestListRecipesQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/", r.URL.Path)
		assert.Equal(t, "poha mix", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"recipes": []RecipeSummary{{ID: 1, Name: "Poha Mix", Compliance: "compliant"}},
		})
	})

	recipes, err := c.ListRecipes(context.Background(), "tok", "poha mix")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "compliant", recipes[0].Compliance)
}

func TestParseRecipe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/parse/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "200g rice, 10g salt", body["recipe_text"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"matched": []map[string]interface{}{
				{"parsed_name": "rice", "ingredient_id": 4, "ingredient_name": "Rice", "weight_grams": 200, "confidence": 0.97},
			},
			"unmatched": []map[string]interface{}{
				{"name": "salt", "weight_grams": 10},
			},
		})
	})

	result, err := c.ParseRecipe(context.Background(), "tok", "200g rice, 10g salt")
	require.NoError(t, err)
	require.Len(t, result.Matched, 1)
	assert.Equal(t, 4, result.Matched[0].IngredientID)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "salt", result.Unmatched[0].Name)
}

func TestExport_CreatesLabelRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/recipes/42/export/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pdf", body["format"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"label_id":11,"format":"pdf","download_url":"/api/recipes/42/export/download/?format=pdf&label_id=11","is_compliant":true}`)
	})

	res, err := c.Export(context.Background(), "tok", 42, "pdf")
	require.NoError(t, err)
	assert.Equal(t, 11, res.LabelID)
	assert.True(t, res.IsCompliant)
}

func TestDownloadLabel_FilenameConvention(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/42/export/download/", r.URL.Path)
		assert.Equal(t, "pdf", r.URL.Query().Get("format"))
		assert.Equal(t, "3", r.URL.Query().Get("label_id"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake"))
	})

	dl, err := c.DownloadLabel(context.Background(), "tok", 42, "pdf", 3)
	require.NoError(t, err)
	assert.Equal(t, "nutrition_label_42.pdf", dl.Filename)
	assert.Equal(t, "application/pdf", dl.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 fake"), dl.Data)
}

func TestDownloadLabel_DispositionWins(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="nutrition_label_poha_mix.csv"`)
		w.Write([]byte("a,b\n"))
	})

	dl, err := c.DownloadLabel(context.Background(), "tok", 9, "csv", 0)
	require.NoError(t, err)
	assert.Equal(t, "nutrition_label_poha_mix.csv", dl.Filename)
}

func TestBatchUpload_Multipart(t *testing.T) {
	csvData := []byte("name,description\nPoha,\n")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recipes/batch-upload/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("csv_file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "recipes.csv", header.Filename)

		json.NewEncoder(w).Encode(BatchUploadResult{Success: true, Created: 1})
	})

	result, err := c.BatchUpload(context.Background(), "tok", "recipes.csv", csvData)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestSearchIngredients_NoAuth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ingredients/search/v2/", r.URL.Path)
		assert.Equal(t, "mil", r.URL.Query().Get("q"))
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []IngredientHit{{ID: 3, Name: "Milk", Category: "Dairy"}},
		})
	})

	hits, err := c.SearchIngredients(context.Background(), "mil")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Milk", hits[0].Name)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/recipes/{id}/analyze/", normalizeEndpoint("/api/recipes/42/analyze/"))
	assert.Equal(t, "/api/ingredients/search/v2/", normalizeEndpoint("/api/ingredients/search/v2/?q=mil"))
	assert.Equal(t, "/api/dashboard/", normalizeEndpoint("/api/dashboard/"))
}

func TestDeleteRecipe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/recipes/5/delete/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	require.NoError(t, c.DeleteRecipe(context.Background(), "tok", 5))
}
