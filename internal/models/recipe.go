package models

import "encoding/json"

// Recipe is a recipe summary as returned by the suggestions endpoint
type Recipe struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	MatchPercentage *float64 `json:"match_percentage,omitempty"`
	Suggested       bool     `json:"is_suggested"`

	// Ingredient descriptors are either strings or objects depending on how
	// the recipe was generated, so they are kept undecoded.
	Ingredients []json.RawMessage `json:"ingredients"`
}

// IngredientCount returns the number of ingredient descriptors
func (r Recipe) IngredientCount() int {
	return len(r.Ingredients)
}
