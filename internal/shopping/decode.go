package shopping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// DecodeMissingIngredients validates a missing-ingredients response and
// converts it into cleaned shopping list items. Any structural problem is
// reported as a *ShapeError; nothing is returned partially.
//
// Tolerated variations: absent or null arrays are empty, quantities may be
// numbers or strings, a missing quantity becomes "1", a missing unit
// becomes "". A non-array existing_items is treated as empty.
func DecodeMissingIngredients(body []byte) (*models.MissingIngredients, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return nil, &ShapeError{Reason: "body is not a JSON object"}
	}

	rawMissing, err := decodeArray(top["missing_items"])
	if err != nil {
		return nil, &ShapeError{Field: "missing_items", Reason: err.Error()}
	}

	result := &models.MissingIngredients{
		MissingItems:  make([]models.ShoppingListItem, 0, len(rawMissing)),
		ExistingItems: []models.ExistingItem{},
	}

	for i, raw := range rawMissing {
		item, err := decodeMissingItem(raw)
		if err != nil {
			return nil, &ShapeError{Field: fmt.Sprintf("missing_items[%d]", i), Reason: err.Error()}
		}
		result.MissingItems = append(result.MissingItems, item)
	}

	rawExisting, err := decodeArray(top["existing_items"])
	if err != nil {
		return result, nil
	}
	for _, raw := range rawExisting {
		fields, err := decodeObject(raw)
		if err != nil {
			continue
		}
		result.ExistingItems = append(result.ExistingItems, models.ExistingItem{
			Name:      CleanName(scalarString(fields["name"])),
			Available: scalarString(fields["available"]),
			Unit:      scalarString(fields["unit"]),
		})
	}

	return result, nil
}

func decodeMissingItem(raw json.RawMessage) (models.ShoppingListItem, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return models.ShoppingListItem{}, err
	}

	quantity := scalarString(fields["quantity"])
	if quantity == "" || quantity == "0" && isNumber(fields["quantity"]) {
		quantity = models.DefaultQuantity
	}

	item := models.ShoppingListItem{
		Name:     CleanName(scalarString(fields["name"])),
		Quantity: quantity,
		Unit:     scalarString(fields["unit"]),
		Checked:  bytes.Equal(bytes.TrimSpace(fields["checked"]), []byte("true")),
		Recipes:  []models.RecipeRef{},
	}

	rawRecipes, err := decodeArray(fields["recipes"])
	if err != nil {
		return item, nil
	}
	for _, r := range rawRecipes {
		ref, err := decodeObject(r)
		if err != nil {
			continue
		}
		id, _ := strconv.Atoi(scalarString(ref["id"]))
		item.Recipes = append(item.Recipes, models.RecipeRef{
			ID:   id,
			Name: scalarString(ref["name"]),
		})
	}
	return item, nil
}

// DecodeItems decodes the items of a stored list with the same tolerance as
// DecodeMissingIngredients. Absent or null items decode as nil.
func DecodeItems(raw json.RawMessage) ([]models.ShoppingListItem, error) {
	if isNull(raw) {
		return nil, nil
	}
	rawItems, err := decodeArray(raw)
	if err != nil {
		return nil, &ShapeError{Field: "items", Reason: err.Error()}
	}
	items := make([]models.ShoppingListItem, 0, len(rawItems))
	for i, r := range rawItems {
		item, err := decodeMissingItem(r)
		if err != nil {
			return nil, &ShapeError{Field: fmt.Sprintf("items[%d]", i), Reason: err.Error()}
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeArray accepts a JSON array; absent and null decode as empty.
func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] != '[' {
		return nil, fmt.Errorf("is not an array")
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("is not an array: %w", err)
	}
	return out, nil
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("is not an object")
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("is not an object: %w", err)
	}
	return out, nil
}

// scalarString renders strings and numbers as text; anything else is "".
func scalarString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	}
	return ""
}

func isNumber(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '-' || raw[0] >= '0' && raw[0] <= '9')
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
