package models

// ExistingItem is an ingredient the user already owns.
// It is shown next to the shopping list and never merged into it.
type ExistingItem struct {
	Name      string `json:"name"`
	Available string `json:"available,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

// HasAvailability reports whether the owned quantity can be displayed
func (e ExistingItem) HasAvailability() bool {
	return e.Available != "" && e.Unit != ""
}

// MissingIngredients is the validated answer to a missing-ingredients request
type MissingIngredients struct {
	MissingItems  []ShoppingListItem `json:"missing_items"`
	ExistingItems []ExistingItem     `json:"existing_items"`
}
