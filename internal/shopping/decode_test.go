package shopping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

func TestDecodeMissingIngredients(t *testing.T) {
	body := `{
		"missing_items": [
			{"name": "Tomate", "quantity": 3, "unit": "pcs", "recipes": [{"id": 7, "name": "Salade"}]},
			{"name": "", "quantity": "", "recipes": []},
			{"name": "NO QUERY SPECIFIED", "quantity": 0.5, "unit": "kg"},
			{"name": "Sel", "quantity": 0}
		],
		"existing_items": [
			{"name": "Lait", "available": 2, "unit": "L"},
			"garbage"
		]
	}`

	got, err := DecodeMissingIngredients([]byte(body))
	require.NoError(t, err)

	want := &models.MissingIngredients{
		MissingItems: []models.ShoppingListItem{
			{Name: "Tomate", Quantity: "3", Unit: "pcs", Recipes: []models.RecipeRef{{ID: 7, Name: "Salade"}}},
			{Name: UnknownIngredient, Quantity: "1", Unit: "", Recipes: []models.RecipeRef{}},
			{Name: IngredientToVerify, Quantity: "0.5", Unit: "kg", Recipes: []models.RecipeRef{}},
			{Name: "Sel", Quantity: "1", Unit: "", Recipes: []models.RecipeRef{}},
		},
		ExistingItems: []models.ExistingItem{
			{Name: "Lait", Available: "2", Unit: "L"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeMissingIngredients() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMissingIngredientsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"missing_items": null}`, `{"missing_items": []}`} {
		got, err := DecodeMissingIngredients([]byte(body))
		require.NoError(t, err, body)
		assert.Empty(t, got.MissingItems, body)
		assert.Empty(t, got.ExistingItems, body)
	}
}

func TestDecodeMissingIngredientsShapeErrors(t *testing.T) {
	tests := map[string]string{
		"not json":             `<html>`,
		"array body":           `[]`,
		"null body":            `null`,
		"missing_items object": `{"missing_items": {"name": "Tomate"}}`,
		"missing_items string": `{"missing_items": "Tomate"}`,
		"element not object":   `{"missing_items": ["Tomate"]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeMissingIngredients([]byte(body))
			assert.Nil(t, got)
			assert.True(t, IsShape(err), "expected shape error, got %v", err)
		})
	}
}

func TestDecodeMissingIngredientsToleratesBadExisting(t *testing.T) {
	got, err := DecodeMissingIngredients([]byte(`{"missing_items": [{"name": "Riz"}], "existing_items": "none"}`))
	require.NoError(t, err)
	assert.Len(t, got.MissingItems, 1)
	assert.Empty(t, got.ExistingItems)
}

func TestDecodeMissingIngredientsLenientRecipes(t *testing.T) {
	got, err := DecodeMissingIngredients([]byte(`{"missing_items": [
		{"name": "Riz", "recipes": [3, {"id": "12", "name": "Risotto"}, {"name": "Sans id"}]}
	]}`))
	require.NoError(t, err)

	want := []models.RecipeRef{{ID: 12, Name: "Risotto"}, {ID: 0, Name: "Sans id"}}
	if diff := cmp.Diff(want, got.MissingItems[0].Recipes); diff != "" {
		t.Errorf("recipes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeItems(t *testing.T) {
	items, err := DecodeItems([]byte(`[{"name": "Riz", "quantity": 2, "checked": true}, {"name": "Sel", "checked": false}]`))
	require.NoError(t, err)
	want := []models.ShoppingListItem{
		{Name: "Riz", Quantity: "2", Checked: true, Recipes: []models.RecipeRef{}},
		{Name: "Sel", Quantity: "1", Recipes: []models.RecipeRef{}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("DecodeItems() mismatch (-want +got):\n%s", diff)
	}

	items, err = DecodeItems(nil)
	require.NoError(t, err)
	assert.Nil(t, items)

	_, err = DecodeItems([]byte(`{"name": "Riz"}`))
	assert.True(t, IsShape(err))
}
