package shopping

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// OtherCategory collects items no declared category matches
const OtherCategory = "Other"

// Category is a named bucket and the keywords that select it
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Matches reports whether any keyword is a case-insensitive substring of name
func (c Category) Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range c.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// CategoryTable is an ordered list of categories.
// Order decides ties: the first matching category wins.
type CategoryTable []Category

// DefaultCategories returns the built-in table.
// Keywords are French with English equivalents.
func DefaultCategories() CategoryTable {
	return CategoryTable{
		{Name: "Produce", Keywords: []string{
			"pomme", "banane", "carotte", "tomate", "oignon", "ail", "poireau", "salade",
			"épinard", "courgette", "aubergine",
			"apple", "banana", "carrot", "tomato", "onion", "garlic", "leek", "salad",
			"lettuce", "spinach", "zucchini", "eggplant",
		}},
		{Name: "Proteins", Keywords: []string{
			"poulet", "boeuf", "porc", "poisson", "oeuf", "tofu", "lentilles", "pois chiche",
			"chicken", "beef", "pork", "fish", "egg", "lentil", "chickpea",
		}},
		{Name: "Dairy", Keywords: []string{
			"lait", "fromage", "yaourt", "beurre", "crème",
			"milk", "cheese", "yogurt", "butter", "cream",
		}},
		{Name: "Pantry", Keywords: []string{
			"farine", "sucre", "sel", "huile", "vinaigre", "riz", "pâte", "conserve",
			"flour", "sugar", "salt", "oil", "vinegar", "rice", "pasta", "canned",
		}},
	}
}

type categoryFile struct {
	Categories CategoryTable `yaml:"categories"`
}

// LoadCategories reads a category table from a YAML file of the form
//
//	categories:
//	  - name: Produce
//	    keywords: [tomate, salade]
func LoadCategories(path string) (CategoryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories file: %w", err)
	}
	return ParseCategories(data)
}

// ParseCategories decodes a YAML category table
func ParseCategories(data []byte) (CategoryTable, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	if err := f.Categories.Validate(); err != nil {
		return nil, err
	}
	return f.Categories, nil
}

// Validate checks that names are present and unique
func (t CategoryTable) Validate() error {
	if len(t) == 0 {
		return errors.New("category table is empty")
	}
	seen := make(map[string]bool, len(t))
	for i, c := range t {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if c.Name == OtherCategory {
			return fmt.Errorf("category name %q is reserved", OtherCategory)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Classify returns the category for an item name
func (t CategoryTable) Classify(name string) string {
	for _, c := range t {
		if c.Matches(name) {
			return c.Name
		}
	}
	return OtherCategory
}

// Bucket is one category of a categorized list
type Bucket struct {
	Name  string  `json:"name"`
	Items []Entry `json:"items"`
}

// Entry is an item together with its position in the list
type Entry struct {
	Index int                     `json:"index"`
	Item  models.ShoppingListItem `json:"item"`
}

// Categorized holds one bucket per declared category plus Other, in
// declaration order. Empty buckets are kept.
type Categorized struct {
	Buckets []Bucket `json:"buckets"`
}

// Items returns the items in the named bucket
func (c Categorized) Items(name string) []models.ShoppingListItem {
	for _, b := range c.Buckets {
		if b.Name != name {
			continue
		}
		items := make([]models.ShoppingListItem, len(b.Items))
		for i, e := range b.Items {
			items[i] = e.Item
		}
		return items
	}
	return nil
}

// NonEmpty returns the buckets that hold at least one item
func (c Categorized) NonEmpty() []Bucket {
	var out []Bucket
	for _, b := range c.Buckets {
		if len(b.Items) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// Categorize assigns every item to the first category whose keywords match
// its cleaned name. Items keep their relative order inside a bucket.
func (t CategoryTable) Categorize(items []models.ShoppingListItem) Categorized {
	out := Categorized{Buckets: make([]Bucket, 0, len(t)+1)}
	index := make(map[string]int, len(t)+1)
	for _, c := range t {
		index[c.Name] = len(out.Buckets)
		out.Buckets = append(out.Buckets, Bucket{Name: c.Name, Items: []Entry{}})
	}
	index[OtherCategory] = len(out.Buckets)
	out.Buckets = append(out.Buckets, Bucket{Name: OtherCategory, Items: []Entry{}})

	for i, item := range items {
		name := t.Classify(CleanName(item.Name))
		b := &out.Buckets[index[name]]
		b.Items = append(b.Items, Entry{Index: i, Item: item})
	}
	return out
}
