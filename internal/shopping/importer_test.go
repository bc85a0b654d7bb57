package shopping

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

func TestChecklistParserLines(t *testing.T) {
	tests := []struct {
		line string
		want models.ShoppingListItem
	}{
		{"- [ ] 2 cups flour", models.ShoppingListItem{Name: "flour", Quantity: "2", Unit: "cup"}},
		{"- [x] 200 g de farine", models.ShoppingListItem{Name: "farine", Quantity: "200", Unit: "gram", Checked: true}},
		{"* [X] 1 1/2 tbsp olive oil, extra virgin", models.ShoppingListItem{Name: "olive oil", Quantity: "1.5", Unit: "tablespoon", Checked: true}},
		{"- [ ] ½ oignon", models.ShoppingListItem{Name: "oignon", Quantity: "0.5"}},
		{"- [ ] 1 ¾ l lait", models.ShoppingListItem{Name: "lait", Quantity: "1.75", Unit: "liter"}},
		{"- [ ] 2 - 3 gousses d'ail", models.ShoppingListItem{Name: "ail", Quantity: "2.5", Unit: "clove"}},
		{"- [ ] 1/3 cup sugar", models.ShoppingListItem{Name: "sugar", Quantity: "0.33", Unit: "cup"}},
		{"- [ ] 1,5 kg pommes de terre", models.ShoppingListItem{Name: "pommes de terre", Quantity: "1.5", Unit: "kilogram"}},
		{"- [ ] Can opener (kitchen)", models.ShoppingListItem{Name: "Can opener", Quantity: "1"}},
		{"- [] 3 pincées sel", models.ShoppingListItem{Name: "sel", Quantity: "3", Unit: "pinch"}},
		{"1. [ ] 4 eggs", models.ShoppingListItem{Name: "eggs", Quantity: "4"}},
	}
	p := NewChecklistParser()
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := p.Parse(tt.line)
			require.Len(t, got, 1)
			if diff := cmp.Diff(tt.want, got[0]); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestChecklistParserSkipsOtherLines(t *testing.T) {
	content := "# Groceries\n\nSome notes\n- [ ]\n- plain bullet\n- [ ] Pain\n"

	got := NewChecklistParser().Parse(content)

	assert.Equal(t, []string{"Pain"}, names(got))
}

func TestChecklistParserReadsRenderedList(t *testing.T) {
	items := []models.ShoppingListItem{
		{Name: "Tomate", Quantity: "2", Unit: "pcs", Checked: true, Recipes: []models.RecipeRef{{ID: 1, Name: "Salade"}}},
		{Name: "Lait", Quantity: "1"},
		{Name: "Saffron", Quantity: "0.5", Unit: "g"},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "Weekend", DefaultCategories().Categorize(items)))

	got := NewChecklistParser().Parse(buf.String())

	want := []models.ShoppingListItem{
		{Name: "Tomate", Quantity: "2", Unit: "pcs", Checked: true},
		{Name: "Lait", Quantity: "1"},
		{Name: "Saffron", Quantity: "0.5", Unit: "g"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChecklistParserKeepsColonInRenderedName(t *testing.T) {
	items := []models.ShoppingListItem{{Name: "Sauce: soja", Quantity: "1", Unit: "bottle"}}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "", DefaultCategories().Categorize(items)))

	got := NewChecklistParser().Parse(buf.String())

	assert.Equal(t, []models.ShoppingListItem{{Name: "Sauce: soja", Quantity: "1", Unit: "bottle"}}, got)
}

func TestReconcilerImport(t *testing.T) {
	b := &fakeBackend{missing: respond(`{"missing_items": [{"name": "Tomate"}, {"name": "Lait"}]}`)}
	c := newMemCache()
	r := newTestReconciler(b, c)
	ctx := context.Background()
	_, err := r.Generate(ctx, []int{1})
	require.NoError(t, err)

	added, err := r.Import(ctx, []models.ShoppingListItem{{Name: "tomate "}, {Name: "Pain"}, {Name: "Pain"}}, false)

	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"Tomate", "Lait", "Pain"}, names(r.Items()))
	assert.Equal(t, "1", r.Items()[2].Quantity)
	assert.Equal(t, r.Items(), cachedItems(t, c))
	assert.Equal(t, "1 items imported", r.State().Success)
}

func TestReconcilerImportReplace(t *testing.T) {
	b := &fakeBackend{missing: respond(`{"missing_items": [{"name": "Tomate"}]}`)}
	r := newTestReconciler(b, newMemCache())
	ctx := context.Background()
	_, err := r.Generate(ctx, []int{1})
	require.NoError(t, err)

	added, err := r.Import(ctx, []models.ShoppingListItem{{Name: "Pain", Quantity: "2", Checked: true}}, true)

	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []models.ShoppingListItem{{Name: "Pain", Quantity: "2", Checked: true, Recipes: []models.RecipeRef{}}}, r.Items())
}

func TestReconcilerImportNothing(t *testing.T) {
	r := newTestReconciler(&fakeBackend{}, newMemCache())

	_, err := r.Import(context.Background(), nil, false)

	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Equal(t, CodeValidation, Code(err))
}
