// Package parse holds the client-side state container for the AI-assisted
// recipe creation flow. The remote API does the actual text parsing and
// ingredient matching; this package only reconciles the returned match
// lists while the user reviews them, then assembles the create payload.
package parse

import "errors"

// DefaultRecipeName substitutes for a blank name on confirmation.
const DefaultRecipeName = "Untitled Recipe"

var (
	// ErrNotInReview is returned by review-phase actions while the flow
	// is still collecting free text.
	ErrNotInReview = errors.New("parse: not in review phase")

	// ErrIndexOutOfRange is returned for actions addressing a matched
	// item that does not exist.
	ErrIndexOutOfRange = errors.New("parse: matched item index out of range")

	// ErrInvalidWeight is returned when a weight edit is not positive.
	ErrInvalidWeight = errors.New("parse: weight must be greater than zero")
)

// Phase is the flow state: free-text input or match review.
type Phase string

const (
	PhaseInput  Phase = "input"
	PhaseReview Phase = "review"
)

// MatchedItem is a parsed ingredient the API resolved against the
// ingredient database. Weight is editable and the item is removable
// before confirmation.
type MatchedItem struct {
	ParsedName     string  `json:"parsed_name"`
	IngredientID   int     `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	WeightGrams    float64 `json:"weight_grams"`
	Confidence     float64 `json:"confidence"`
}

// UnmatchedItem is a parsed ingredient with no database match. It is
// shown for information only and never joins the create payload.
type UnmatchedItem struct {
	Name        string  `json:"name"`
	WeightGrams float64 `json:"weight_grams"`
}

// Result is the API's parse response.
type Result struct {
	Matched   []MatchedItem   `json:"matched"`
	Unmatched []UnmatchedItem `json:"unmatched"`
}

// Meta carries the recipe-level fields entered alongside the free text.
type Meta struct {
	Name            string
	Description     string
	ServingSize     float64
	ServingUnit     string
	ServingsPerPack float64
	BrandName       string
	Manufacturer    string
	FSSAILicense    string
	AllergenInfo    string
}

// IngredientRef is one confirmed ingredient in the create payload.
type IngredientRef struct {
	IngredientID int     `json:"ingredient_id"`
	WeightGrams  float64 `json:"weight_grams"`
}

// Payload is the recipe-creation request assembled on confirmation.
type Payload struct {
	Meta        Meta
	Ingredients []IngredientRef
}

// Review is the two-state flow container. The forward transition happens
// once, when the parse response arrives; going back discards all review
// state. Review is not safe for concurrent use; each flow instance
// belongs to a single session.
type Review struct {
	phase     Phase
	text      string
	matched   []MatchedItem
	unmatched []UnmatchedItem
}

// NewReview starts a flow in the input phase.
func NewReview() *Review {
	return &Review{phase: PhaseInput}
}

// Phase reports the current flow state.
func (r *Review) Phase() Phase { return r.phase }

// Text returns the free text entered before parsing.
func (r *Review) Text() string { return r.text }

// Matched returns a copy of the current matched list.
func (r *Review) Matched() []MatchedItem {
	out := make([]MatchedItem, len(r.matched))
	copy(out, r.matched)
	return out
}

// Unmatched returns a copy of the unmatched list.
func (r *Review) Unmatched() []UnmatchedItem {
	out := make([]UnmatchedItem, len(r.unmatched))
	copy(out, r.unmatched)
	return out
}

// Begin moves the flow into review with the parse response.
func (r *Review) Begin(text string, result Result) {
	r.phase = PhaseReview
	r.text = text
	r.matched = make([]MatchedItem, len(result.Matched))
	copy(r.matched, result.Matched)
	r.unmatched = make([]UnmatchedItem, len(result.Unmatched))
	copy(r.unmatched, result.Unmatched)
}

// BackToEdit discards review state and returns to free-text input. The
// entered text survives so the user can adjust and re-parse.
func (r *Review) BackToEdit() {
	r.phase = PhaseInput
	r.matched = nil
	r.unmatched = nil
}

// Remove drops the matched item at idx, preserving the order and the
// weights of the remaining items.
func (r *Review) Remove(idx int) error {
	if r.phase != PhaseReview {
		return ErrNotInReview
	}
	if idx < 0 || idx >= len(r.matched) {
		return ErrIndexOutOfRange
	}
	next := make([]MatchedItem, 0, len(r.matched)-1)
	next = append(next, r.matched[:idx]...)
	next = append(next, r.matched[idx+1:]...)
	r.matched = next
	return nil
}

// SetWeight updates the weight of the matched item at idx.
func (r *Review) SetWeight(idx int, grams float64) error {
	if r.phase != PhaseReview {
		return ErrNotInReview
	}
	if idx < 0 || idx >= len(r.matched) {
		return ErrIndexOutOfRange
	}
	if grams <= 0 {
		return ErrInvalidWeight
	}
	r.matched[idx].WeightGrams = grams
	return nil
}

// Confirm assembles the create payload from the surviving matched items
// and the recipe metadata. Unmatched items never contribute. A blank
// name falls back to DefaultRecipeName.
func (r *Review) Confirm(meta Meta) (Payload, error) {
	if r.phase != PhaseReview {
		return Payload{}, ErrNotInReview
	}
	if meta.Name == "" {
		meta.Name = DefaultRecipeName
	}
	refs := make([]IngredientRef, 0, len(r.matched))
	for _, m := range r.matched {
		refs = append(refs, IngredientRef{
			IngredientID: m.IngredientID,
			WeightGrams:  m.WeightGrams,
		})
	}
	return Payload{Meta: meta, Ingredients: refs}, nil
}
