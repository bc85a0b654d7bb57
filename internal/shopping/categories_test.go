package shopping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

func item(name string) models.ShoppingListItem {
	return models.ShoppingListItem{Name: name, Quantity: "1"}
}

func TestCategorize(t *testing.T) {
	items := []models.ShoppingListItem{
		item("Tomato Salad"),
		item("Oeuf"),
		item("Saffron"),
		item("Lait entier"),
		item("Farine"),
	}

	got := DefaultCategories().Categorize(items)

	assert.Equal(t, []string{"Tomato Salad"}, names(got.Items("Produce")))
	assert.Equal(t, []string{"Oeuf"}, names(got.Items("Proteins")))
	assert.Equal(t, []string{"Lait entier"}, names(got.Items("Dairy")))
	assert.Equal(t, []string{"Farine"}, names(got.Items("Pantry")))
	assert.Equal(t, []string{"Saffron"}, names(got.Items(OtherCategory)))
}

func TestCategorizeIsPartition(t *testing.T) {
	items := []models.ShoppingListItem{
		item("Poulet"), item("Poulet"), item(""), item("EXAMPLE REQUEST"), item("Riz"), item("Chou"),
	}

	got := DefaultCategories().Categorize(items)

	seen := make(map[int]int)
	total := 0
	for _, b := range got.Buckets {
		for _, e := range b.Items {
			seen[e.Index]++
			total++
		}
	}
	assert.Equal(t, len(items), total)
	for i := range items {
		assert.Equal(t, 1, seen[i], "item %d", i)
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	table := CategoryTable{
		{Name: "First", Keywords: []string{"salad"}},
		{Name: "Second", Keywords: []string{"tomato"}},
	}

	got := table.Categorize([]models.ShoppingListItem{item("Tomato salad")})

	assert.Len(t, got.Items("First"), 1)
	assert.Empty(t, got.Items("Second"))
}

func TestCategorizeKeepsEmptyBucketsInOrder(t *testing.T) {
	got := DefaultCategories().Categorize(nil)

	var order []string
	for _, b := range got.Buckets {
		order = append(order, b.Name)
		assert.Empty(t, b.Items)
	}
	assert.Equal(t, []string{"Produce", "Proteins", "Dairy", "Pantry", OtherCategory}, order)
	assert.Empty(t, got.NonEmpty())
}

func TestCategorizeUsesCleanedName(t *testing.T) {
	table := CategoryTable{{Name: "Review", Keywords: []string{"verify"}}}

	got := table.Categorize([]models.ShoppingListItem{item("GET?Q=tomate")})

	assert.Len(t, got.Items("Review"), 1)
}

func TestParseCategories(t *testing.T) {
	data := []byte(`
categories:
  - name: Fruits
    keywords: [pomme, banane]
  - name: Bakery
    keywords: [pain]
`)

	table, err := ParseCategories(data)
	require.NoError(t, err)

	require.Len(t, table, 2)
	assert.Equal(t, "Fruits", table[0].Name)
	assert.Equal(t, "Bakery", table.Classify("Pain complet"))
	assert.Equal(t, OtherCategory, table.Classify("Lait"))
}

func TestParseCategoriesRejectsBadTables(t *testing.T) {
	tests := map[string]string{
		"empty":     "categories: []",
		"unnamed":   "categories:\n  - keywords: [a]",
		"duplicate": "categories:\n  - name: A\n  - name: A",
		"reserved":  "categories:\n  - name: Other",
		"not yaml":  "categories: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCategories([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - name: Spices\n    keywords: [cumin]\n"), 0o644))

	table, err := LoadCategories(path)
	require.NoError(t, err)
	assert.Equal(t, "Spices", table.Classify("Cumin moulu"))

	_, err = LoadCategories(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func names(items []models.ShoppingListItem) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}
