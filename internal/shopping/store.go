package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// Well-known cache keys
const (
	KeyShoppingList    = "shoppingList"
	KeySelectedRecipes = "selectedRecipes"
	KeyExistingItems   = "existingItems"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// Cache is the local key-value store the reconciler mirrors its state into
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Backend is the smart-pantry REST API as seen by the reconciler.
//
// FetchMissingIngredients returns the raw response body; it is validated by
// DecodeMissingIngredients before anything is changed.
type Backend interface {
	FetchSuggestedRecipes(ctx context.Context) ([]models.Recipe, error)
	FetchMissingIngredients(ctx context.Context, recipeIDs []int) ([]byte, error)
	ListShoppingLists(ctx context.Context) ([]models.ShoppingList, error)
	GetShoppingList(ctx context.Context, id int) (*models.ShoppingList, error)
	CreateShoppingList(ctx context.Context, req *models.SaveListRequest) (*models.ShoppingList, error)
	UpdateShoppingList(ctx context.Context, id int, req *models.SaveListRequest) (*models.ShoppingList, error)
	DeleteShoppingList(ctx context.Context, id int) error
}

func getJSON(ctx context.Context, c Cache, key string, v any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, c Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.Set(ctx, key, data)
}
