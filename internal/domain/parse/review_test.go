package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeItems() Result {
	return Result{
		Matched: []MatchedItem{
			{ParsedName: "wheat flour", IngredientID: 11, IngredientName: "Wheat Flour", WeightGrams: 250, Confidence: 0.95},
			{ParsedName: "sugar", IngredientID: 22, IngredientName: "Sugar", WeightGrams: 50, Confidence: 0.99},
			{ParsedName: "ghee", IngredientID: 33, IngredientName: "Ghee", WeightGrams: 30, Confidence: 0.80},
		},
		Unmatched: []UnmatchedItem{
			{Name: "secret spice mix", WeightGrams: 5},
		},
	}
}

func TestReview_BeginEntersReview(t *testing.T) {
	r := NewReview()
	assert.Equal(t, PhaseInput, r.Phase())

	r.Begin("250g wheat flour, 50g sugar, 30g ghee", threeItems())
	assert.Equal(t, PhaseReview, r.Phase())
	assert.Len(t, r.Matched(), 3)
	assert.Len(t, r.Unmatched(), 1)
}

func TestReview_RemoveMiddlePreservesOrder(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	require.NoError(t, r.Remove(1))

	got := r.Matched()
	require.Len(t, got, 2)
	assert.Equal(t, 11, got[0].IngredientID)
	assert.Equal(t, 33, got[1].IngredientID)
	assert.Equal(t, 250.0, got[0].WeightGrams)
	assert.Equal(t, 30.0, got[1].WeightGrams)
}

func TestReview_RemoveBounds(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	assert.ErrorIs(t, r.Remove(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, r.Remove(3), ErrIndexOutOfRange)
	assert.Len(t, r.Matched(), 3)
}

func TestReview_SetWeight(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	require.NoError(t, r.SetWeight(0, 300))

	got := r.Matched()
	assert.Equal(t, 300.0, got[0].WeightGrams)
	assert.Equal(t, 50.0, got[1].WeightGrams)
	assert.Equal(t, 30.0, got[2].WeightGrams)
}

func TestReview_SetWeightRejectsNonPositive(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	assert.ErrorIs(t, r.SetWeight(0, 0), ErrInvalidWeight)
	assert.ErrorIs(t, r.SetWeight(0, -1), ErrInvalidWeight)
	assert.Equal(t, 250.0, r.Matched()[0].WeightGrams)
}

func TestReview_ActionsRequireReviewPhase(t *testing.T) {
	r := NewReview()
	assert.ErrorIs(t, r.Remove(0), ErrNotInReview)
	assert.ErrorIs(t, r.SetWeight(0, 10), ErrNotInReview)
	_, err := r.Confirm(Meta{Name: "x"})
	assert.ErrorIs(t, err, ErrNotInReview)
}

func TestReview_BackToEditDiscards(t *testing.T) {
	r := NewReview()
	r.Begin("some text", threeItems())
	require.NoError(t, r.SetWeight(0, 999))

	r.BackToEdit()
	assert.Equal(t, PhaseInput, r.Phase())
	assert.Empty(t, r.Matched())
	assert.Equal(t, "some text", r.Text())

	// Re-parsing starts review fresh, without the earlier edit.
	r.Begin("some text", threeItems())
	assert.Equal(t, 250.0, r.Matched()[0].WeightGrams)
}

func TestReview_ConfirmBuildsPayload(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())
	require.NoError(t, r.Remove(2))
	require.NoError(t, r.SetWeight(1, 60))

	p, err := r.Confirm(Meta{Name: "Atta Biscuits", ServingSize: 30, ServingUnit: "g"})
	require.NoError(t, err)

	assert.Equal(t, "Atta Biscuits", p.Meta.Name)
	require.Len(t, p.Ingredients, 2)
	assert.Equal(t, IngredientRef{IngredientID: 11, WeightGrams: 250}, p.Ingredients[0])
	assert.Equal(t, IngredientRef{IngredientID: 22, WeightGrams: 60}, p.Ingredients[1])
}

func TestReview_ConfirmDefaultsBlankName(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	p, err := r.Confirm(Meta{})
	require.NoError(t, err)
	assert.Equal(t, DefaultRecipeName, p.Meta.Name)
}

func TestReview_MatchedReturnsCopy(t *testing.T) {
	r := NewReview()
	r.Begin("text", threeItems())

	got := r.Matched()
	got[0].WeightGrams = 1
	assert.Equal(t, 250.0, r.Matched()[0].WeightGrams)
}
