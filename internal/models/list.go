package models

import (
	"time"
)

// DefaultQuantity is used when the backend omits an item's quantity
const DefaultQuantity = "1"

// RecipeRef identifies a recipe an item is needed for
type RecipeRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ShoppingListItem is a single ingredient to buy
type ShoppingListItem struct {
	Name     string      `json:"name"`
	Quantity string      `json:"quantity"`
	Unit     string      `json:"unit"`
	Checked  bool        `json:"checked"`
	Recipes  []RecipeRef `json:"recipes"`
}

// RecipeNames returns the names of the recipes the item is needed for
func (i ShoppingListItem) RecipeNames() []string {
	names := make([]string, 0, len(i.Recipes))
	for _, r := range i.Recipes {
		names = append(names, r.Name)
	}
	return names
}

// ShoppingList is a list as persisted by the backend
type ShoppingList struct {
	ID        int                `json:"id"`
	Name      string             `json:"name"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// CheckedCount returns the number of checked items
func (l *ShoppingList) CheckedCount() int {
	n := 0
	for _, item := range l.Items {
		if item.Checked {
			n++
		}
	}
	return n
}

// DisplayName returns the list name, falling back to its creation date
func (l *ShoppingList) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return "List of " + l.CreatedAt.Format("2006-01-02")
}

// Request types

// SaveListRequest is the request body for creating or updating a list
type SaveListRequest struct {
	Name  string             `json:"name"`
	Items []ShoppingListItem `json:"items"`
}

// MissingIngredientsRequest asks the backend which ingredients are missing
type MissingIngredientsRequest struct {
	RecipeIDs []int `json:"recipe_ids"`
}

// GenerateRequest is the request body for generating a list
type GenerateRequest struct {
	RecipeIDs []int `json:"recipe_ids,omitempty"`
}

// ImportRequest is the request body for importing a pasted checklist
type ImportRequest struct {
	Content string `json:"content"`
	Replace bool   `json:"replace"`
}
