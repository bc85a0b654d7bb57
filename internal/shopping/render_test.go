package shopping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

func TestRender(t *testing.T) {
	items := []models.ShoppingListItem{
		{Name: "Tomate", Quantity: "3", Unit: "pcs", Checked: true, Recipes: []models.RecipeRef{{ID: 1, Name: "Salade"}, {ID: 2, Name: "Sauce"}}},
		{Name: "Farine", Quantity: "500", Unit: "LANGPAIR=EN|FR"},
	}
	var sb strings.Builder

	err := Render(&sb, "Weekend", DefaultCategories().Categorize(items))
	require.NoError(t, err)

	want := `Weekend
=======

Produce (1)
  0. [x] Tomate: 3 pcs
       For: Salade, Sauce

Pantry (1)
  1. [ ] Farine: 500

1/2 items checked
`
	assert.Equal(t, want, sb.String())
}

func TestRenderEmpty(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, Render(&sb, "", DefaultCategories().Categorize(nil)))

	assert.Equal(t, "Your shopping list is empty.\n", sb.String())
}
