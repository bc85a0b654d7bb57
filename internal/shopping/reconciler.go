package shopping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foxxcyber/smart-pantry/internal/models"
)

// PlaceholderName is the name of the item synthesized when the backend
// reports nothing missing and Options.PlaceholderOnEmpty is set.
const PlaceholderName = "example ingredient to verify"

// Notice codes exposed to the UI
const (
	CodeValidation   = "validation_error"
	CodeTransport    = "transport_error"
	CodeShape        = "shape_error"
	CodeSuperseded   = "superseded"
	CodeNotFound     = "not_found"
	CodeSavedLocally = "saved_locally"
)

// Options configures a Reconciler
type Options struct {
	// Categories decides how Categorize buckets items. Defaults to
	// DefaultCategories().
	Categories CategoryTable

	// PlaceholderOnEmpty synthesizes a single item when the backend
	// returns no missing ingredients, so the list is never empty after a
	// successful generate.
	PlaceholderOnEmpty bool

	Logger *zap.Logger
	Now    func() time.Time
}

// Notice is a user-facing message with a machine-readable code
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// State is a snapshot of everything the UI renders
type State struct {
	ListID          int                       `json:"list_id,omitempty"`
	ListName        string                    `json:"list_name,omitempty"`
	Items           []models.ShoppingListItem `json:"items"`
	Existing        []models.ExistingItem     `json:"existing_items"`
	ShowExisting    bool                      `json:"show_existing"`
	SelectedRecipes []int                     `json:"selected_recipes"`
	Suggestions     []models.Recipe           `json:"suggestions"`
	SavedLists      []models.ShoppingList     `json:"saved_lists"`
	CheckedCount    int                       `json:"checked_count"`
	TotalCount      int                       `json:"total_count"`
	Loading         bool                      `json:"loading"`
	Saving          bool                      `json:"saving"`
	Error           *Notice                   `json:"error,omitempty"`
	Success         string                    `json:"success,omitempty"`
}

// GenerateResult is the outcome of a successful Generate
type GenerateResult struct {
	Items    []models.ShoppingListItem `json:"items"`
	Existing []models.ExistingItem     `json:"existing_items"`
	Message  string                    `json:"message"`
}

// SaveResult is the outcome of Save. LocalOnly marks the degraded case
// where the backend rejected the list but the cache holds it.
type SaveResult struct {
	ID        int   `json:"id,omitempty"`
	Created   bool  `json:"created"`
	LocalOnly bool  `json:"local_only"`
	RemoteErr error `json:"-"`
}

// ClearResult reports what Clear did remotely
type ClearResult struct {
	ListID        int   `json:"list_id,omitempty"`
	RemoteDeleted bool  `json:"remote_deleted"`
	RemoteErr     error `json:"-"`
}

// Reconciler owns one user's shopping list: it merges selected recipes into
// a categorized list, keeps check-marks across regenerations, and mirrors
// the list into the backend and the local cache.
type Reconciler struct {
	backend Backend
	cache   Cache
	opts    Options
	log     *zap.Logger

	// generation is bumped by every Generate; only the latest may commit.
	generation atomic.Uint64

	mu           sync.Mutex
	items        []models.ShoppingListItem
	existing     []models.ExistingItem
	showExisting bool
	listID       int
	listName     string
	// epoch changes whenever a different list becomes current
	epoch       uint64
	selected    []int
	suggestions []models.Recipe
	savedLists  []models.ShoppingList
	loading     int
	saving      bool
	notice      *Notice
	success     string
}

// New creates a reconciler over the given backend and cache
func New(backend Backend, cache Cache, opts Options) *Reconciler {
	if opts.Categories == nil {
		opts.Categories = DefaultCategories()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		backend: backend,
		cache:   cache,
		opts:    opts,
		log:     opts.Logger,
	}
}

// Load restores cached state and fetches suggestions and saved lists.
// The most recent saved list becomes current. When saved lists cannot be
// fetched the list is restored from the cache instead.
func (r *Reconciler) Load(ctx context.Context) error {
	r.restoreCached(ctx)

	var g errgroup.Group
	g.Go(func() error {
		return r.RefreshSuggestions(ctx)
	})
	g.Go(func() error {
		r.loadSavedLists(ctx)
		return nil
	})
	return g.Wait()
}

func (r *Reconciler) restoreCached(ctx context.Context) {
	var selected []int
	if ok, err := getJSON(ctx, r.cache, KeySelectedRecipes, &selected); err != nil {
		r.log.Warn("Failed to restore selected recipes", zap.Error(err))
	} else if ok {
		r.mu.Lock()
		r.selected = selected
		r.mu.Unlock()
	}

	var existing []models.ExistingItem
	if ok, err := getJSON(ctx, r.cache, KeyExistingItems, &existing); err != nil {
		r.log.Warn("Failed to restore existing items", zap.Error(err))
	} else if ok {
		r.mu.Lock()
		r.existing = existing
		r.showExisting = len(existing) > 0
		r.mu.Unlock()
	}
}

func (r *Reconciler) loadSavedLists(ctx context.Context) {
	lists, err := r.backend.ListShoppingLists(ctx)
	if err != nil {
		r.log.Warn("Failed to load saved shopping lists, using cached list", zap.Error(err))
		var cached []models.ShoppingListItem
		ok, cerr := getJSON(ctx, r.cache, KeyShoppingList, &cached)
		if cerr != nil {
			r.log.Warn("Failed to restore cached shopping list", zap.Error(cerr))
			return
		}
		if ok {
			r.mu.Lock()
			r.items = cached
			r.mu.Unlock()
			r.log.Debug("Shopping list restored from cache", zap.Int("items", len(cached)))
		}
		return
	}

	sortMostRecentFirst(lists)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.savedLists = lists
	if len(lists) == 0 {
		return
	}
	latest := lists[0]
	r.epoch++
	r.listID = latest.ID
	r.listName = latest.Name
	if latest.Items != nil {
		r.items = cloneItems(latest.Items)
	}
}

// RefreshSuggestions fetches suggested recipes and tags them as suggested
func (r *Reconciler) RefreshSuggestions(ctx context.Context) error {
	r.begin()
	recipes, err := r.backend.FetchSuggestedRecipes(ctx)
	if err != nil {
		err = transportError("fetch suggested recipes", err)
		r.end(err, "Could not load data. Please try again later.", "")
		return err
	}
	for i := range recipes {
		recipes[i].Suggested = true
	}

	r.mu.Lock()
	r.suggestions = recipes
	r.mu.Unlock()
	r.end(nil, "", "")
	return nil
}

// ToggleRecipe adds or removes a recipe from the selection and returns the
// new selection.
func (r *Reconciler) ToggleRecipe(ctx context.Context, id int) []int {
	r.mu.Lock()
	found := false
	next := make([]int, 0, len(r.selected)+1)
	for _, s := range r.selected {
		if s == id {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, id)
	}
	r.selected = next
	selected := append([]int(nil), next...)
	r.mu.Unlock()

	if len(selected) == 0 {
		r.forget(ctx, KeySelectedRecipes)
	} else {
		r.mirror(ctx, KeySelectedRecipes, selected)
	}
	return selected
}

// SelectedRecipes returns the current recipe selection
func (r *Reconciler) SelectedRecipes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.selected...)
}

// Generate asks the backend which ingredients the given recipes still need
// and replaces the current list with them. Items whose cleaned name was
// checked in the previous list stay checked. With no ids, the current
// selection is used.
//
// Nothing changes when the call fails. When a newer Generate started while
// this one was waiting, the response is dropped and ErrSuperseded returned.
func (r *Reconciler) Generate(ctx context.Context, recipeIDs []int) (*GenerateResult, error) {
	if len(recipeIDs) == 0 {
		recipeIDs = r.SelectedRecipes()
	}
	recipeIDs = uniqueIDs(recipeIDs)
	if len(recipeIDs) == 0 {
		r.setNotice(CodeValidation, "Please select at least one recipe")
		return nil, ErrNoRecipesSelected
	}

	seq := r.generation.Add(1)
	r.begin()

	r.log.Debug("Requesting missing ingredients", zap.Ints("recipe_ids", recipeIDs))
	body, err := r.backend.FetchMissingIngredients(ctx, recipeIDs)
	if err != nil {
		err = transportError("fetch missing ingredients", err)
		r.end(err, "Could not generate the list. Please try again.", "")
		return nil, err
	}

	decoded, err := DecodeMissingIngredients(body)
	if err != nil {
		r.log.Warn("Rejected missing ingredients response", zap.Error(err))
		r.end(err, "Incorrect data format received from the server", "")
		return nil, err
	}

	items := decoded.MissingItems
	if len(items) == 0 && r.opts.PlaceholderOnEmpty {
		r.log.Warn("No missing ingredients returned, adding placeholder item", zap.Ints("recipe_ids", recipeIDs))
		items = []models.ShoppingListItem{r.placeholderItem(recipeIDs[0])}
	}

	r.mu.Lock()
	if seq != r.generation.Load() {
		r.mu.Unlock()
		r.end(nil, "", "")
		return nil, ErrSuperseded
	}

	wasChecked := make(map[string]bool, len(r.items))
	for _, item := range r.items {
		if item.Checked {
			wasChecked[CleanName(item.Name)] = true
		}
	}
	for i := range items {
		items[i].Checked = wasChecked[CleanName(items[i].Name)]
	}

	r.items = items
	r.existing = decoded.ExistingItems
	if len(r.existing) > 0 {
		r.showExisting = true
	}
	result := &GenerateResult{
		Items:    cloneItems(r.items),
		Existing: append([]models.ExistingItem(nil), r.existing...),
	}
	r.mu.Unlock()

	if n := len(result.Existing); n > 0 {
		result.Message = fmt.Sprintf("List generated! You already have %d ingredients available.", n)
		r.mirror(ctx, KeyExistingItems, result.Existing)
	} else {
		result.Message = "Shopping list generated"
	}
	r.mirror(ctx, KeyShoppingList, result.Items)

	r.log.Info("Shopping list generated",
		zap.Int("items", len(result.Items)),
		zap.Int("existing", len(result.Existing)))
	r.end(nil, "", result.Message)
	return result, nil
}

func (r *Reconciler) placeholderItem(recipeID int) models.ShoppingListItem {
	name := fmt.Sprintf("Recipe #%d", recipeID)
	r.mu.Lock()
	for _, s := range r.suggestions {
		if s.ID == recipeID && s.Title != "" {
			name = s.Title
			break
		}
	}
	r.mu.Unlock()
	return models.ShoppingListItem{
		Name:     PlaceholderName,
		Quantity: models.DefaultQuantity,
		Unit:     "",
		Recipes:  []models.RecipeRef{{ID: recipeID, Name: name}},
	}
}

// ToggleCheck flips the checked flag of the item at index. Only the local
// cache is updated; the backend sees the change on the next Save.
func (r *Reconciler) ToggleCheck(ctx context.Context, index int) (models.ShoppingListItem, error) {
	r.mu.Lock()
	if index < 0 || index >= len(r.items) {
		r.mu.Unlock()
		return models.ShoppingListItem{}, ErrItemNotFound
	}
	r.items[index].Checked = !r.items[index].Checked
	item := r.items[index]
	items := cloneItems(r.items)
	r.mu.Unlock()

	r.mirror(ctx, KeyShoppingList, items)
	return item, nil
}

// Save persists the current list. The first save creates it remotely and
// adopts the returned id; later saves update that id. The cache is
// written unless the list was cleared or replaced while saving, in which
// case the returned id is not adopted either. A backend failure is not an error: the result is marked
// LocalOnly and carries the cause.
func (r *Reconciler) Save(ctx context.Context) (*SaveResult, error) {
	r.mu.Lock()
	items := cloneItems(r.items)
	listID := r.listID
	name := r.listName
	epoch := r.epoch
	r.mu.Unlock()

	if len(items) == 0 {
		r.setNotice(CodeValidation, "Cannot save an empty list")
		return nil, ErrEmptyList
	}
	if name == "" {
		name = "List of " + r.opts.Now().Format("2006-01-02")
	}

	r.setSaving(true)
	defer r.setSaving(false)

	req := &models.SaveListRequest{Name: name, Items: items}
	var saved *models.ShoppingList
	var err error
	if listID == 0 {
		saved, err = r.backend.CreateShoppingList(ctx, req)
	} else {
		saved, err = r.backend.UpdateShoppingList(ctx, listID, req)
	}

	// A list cleared or replaced meanwhile must not come back from the cache
	current := r.isCurrent(epoch)
	if !current {
		r.log.Info("Shopping list replaced during save, result not adopted", zap.Int("list_id", listID))
	} else if cerr := setJSON(ctx, r.cache, KeyShoppingList, items); cerr != nil {
		if err != nil {
			return nil, fmt.Errorf("saving shopping list: remote: %v, cache: %w", err, cerr)
		}
		r.log.Warn("Failed to mirror saved list into cache", zap.Error(cerr))
	}

	if err != nil {
		err = transportError("save shopping list", err)
		r.log.Warn("Remote save failed, list kept locally", zap.Int("list_id", listID), zap.Error(err))
		if current {
			r.setNotice(CodeSavedLocally, "Error while saving the list. The list was saved locally only.")
		}
		return &SaveResult{ID: listID, Created: false, LocalOnly: true, RemoteErr: err}, nil
	}

	result := &SaveResult{ID: listID, Created: listID == 0}
	if saved != nil && saved.ID != 0 {
		result.ID = saved.ID
	}

	r.mu.Lock()
	current = r.epoch == epoch
	if current {
		r.listID = result.ID
		r.listName = name
	}
	r.mu.Unlock()

	r.refreshSavedLists(ctx)
	r.log.Info("Shopping list saved", zap.Int("list_id", result.ID), zap.Bool("created", result.Created))
	if current {
		r.setSuccess("Shopping list saved")
	}
	return result, nil
}

// Import adds parsed checklist items to the list. Items already listed,
// compared by cleaned name ignoring case, are skipped. With replace, the list is replaced instead
// and any in-flight Generate is superseded. Import returns how many items
// were added.
func (r *Reconciler) Import(ctx context.Context, items []models.ShoppingListItem, replace bool) (int, error) {
	if len(items) == 0 {
		r.setNotice(CodeValidation, "No items found to import")
		return 0, ErrNothingToImport
	}

	r.mu.Lock()
	if replace {
		r.generation.Add(1)
		r.items = nil
	}
	listed := make(map[string]bool, len(r.items)+len(items))
	for _, item := range r.items {
		listed[importKey(item.Name)] = true
	}
	added := 0
	for _, item := range items {
		key := importKey(item.Name)
		if listed[key] {
			continue
		}
		listed[key] = true
		if item.Quantity == "" {
			item.Quantity = models.DefaultQuantity
		}
		r.items = append(r.items, item)
		added++
	}
	snapshot := cloneItems(r.items)
	r.mu.Unlock()

	r.mirror(ctx, KeyShoppingList, snapshot)
	r.log.Info("Imported checklist", zap.Int("added", added), zap.Bool("replace", replace))
	r.setSuccess(fmt.Sprintf("%d items imported", added))
	return added, nil
}

// Categorize buckets the current list using the configured category table
func (r *Reconciler) Categorize() Categorized {
	r.mu.Lock()
	items := cloneItems(r.items)
	r.mu.Unlock()
	return r.opts.Categories.Categorize(items)
}

// Clear empties the list and the cached copy. When the list was saved,
// it is deleted remotely as well; a failed delete is logged only.
func (r *Reconciler) Clear(ctx context.Context) *ClearResult {
	r.mu.Lock()
	listID := r.listID
	r.items = nil
	r.listID = 0
	r.listName = ""
	r.epoch++
	r.mu.Unlock()

	r.forget(ctx, KeyShoppingList)

	result := &ClearResult{ListID: listID}
	if listID == 0 {
		return result
	}
	if err := r.backend.DeleteShoppingList(ctx, listID); err != nil {
		result.RemoteErr = transportError("delete shopping list", err)
		r.log.Warn("Failed to delete shopping list", zap.Int("list_id", listID), zap.Error(err))
		return result
	}
	result.RemoteDeleted = true
	r.refreshSavedLists(ctx)
	return result
}

// SavedLists returns the user's saved lists, most recent first
func (r *Reconciler) SavedLists() []models.ShoppingList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ShoppingList(nil), r.savedLists...)
}

// SelectList makes a saved list current, replacing the items wholesale
func (r *Reconciler) SelectList(ctx context.Context, id int) (*models.ShoppingList, error) {
	r.begin()
	list, err := r.backend.GetShoppingList(ctx, id)
	if err != nil {
		err = transportError("get shopping list", err)
		r.end(err, "Could not load the selected list", "")
		return nil, err
	}
	if list == nil || list.Items == nil {
		err = &ShapeError{Field: "items", Reason: "is missing"}
		r.end(err, "Could not load the selected list", "")
		return nil, err
	}

	r.mu.Lock()
	r.items = cloneItems(list.Items)
	r.listID = id
	r.listName = list.Name
	r.epoch++
	r.mu.Unlock()

	r.end(nil, "", "")
	return list, nil
}

// NewList starts an empty, unsaved list
func (r *Reconciler) NewList() {
	r.mu.Lock()
	r.items = nil
	r.listID = 0
	r.listName = ""
	r.epoch++
	r.success = "New list created. Don't forget to save it."
	r.mu.Unlock()
}

// ResumeCached makes the cached list current under listID, 0 meaning an
// unsaved list. It reports false when the cache holds no list.
func (r *Reconciler) ResumeCached(ctx context.Context, listID int) (bool, error) {
	var cached []models.ShoppingListItem
	ok, err := getJSON(ctx, r.cache, KeyShoppingList, &cached)
	if err != nil || !ok {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = cached
	r.listID = listID
	r.listName = ""
	r.epoch++
	for _, l := range r.savedLists {
		if l.ID == listID {
			r.listName = l.Name
			break
		}
	}
	return true, nil
}

// ToggleExistingPanel expands or collapses the already-owned items
func (r *Reconciler) ToggleExistingPanel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showExisting = !r.showExisting
	return r.showExisting
}

// DismissNotices clears the current error and success messages
func (r *Reconciler) DismissNotices() {
	r.mu.Lock()
	r.notice = nil
	r.success = ""
	r.mu.Unlock()
}

// State returns a snapshot of the reconciler
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := State{
		ListID:          r.listID,
		ListName:        r.listName,
		Items:           cloneItems(r.items),
		Existing:        append([]models.ExistingItem{}, r.existing...),
		ShowExisting:    r.showExisting,
		SelectedRecipes: append([]int{}, r.selected...),
		Suggestions:     append([]models.Recipe{}, r.suggestions...),
		SavedLists:      append([]models.ShoppingList{}, r.savedLists...),
		TotalCount:      len(r.items),
		Loading:         r.loading > 0,
		Saving:          r.saving,
		Success:         r.success,
	}
	if r.notice != nil {
		n := *r.notice
		s.Error = &n
	}
	for _, item := range r.items {
		if item.Checked {
			s.CheckedCount++
		}
	}
	return s
}

// Items returns a copy of the current list
func (r *Reconciler) Items() []models.ShoppingListItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneItems(r.items)
}

func (r *Reconciler) isCurrent(epoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epoch == epoch
}

func (r *Reconciler) refreshSavedLists(ctx context.Context) {
	lists, err := r.backend.ListShoppingLists(ctx)
	if err != nil {
		r.log.Warn("Failed to refresh saved shopping lists", zap.Error(err))
		return
	}
	sortMostRecentFirst(lists)
	r.mu.Lock()
	r.savedLists = lists
	r.mu.Unlock()
}

func (r *Reconciler) mirror(ctx context.Context, key string, v any) {
	if err := setJSON(ctx, r.cache, key, v); err != nil {
		r.log.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (r *Reconciler) forget(ctx context.Context, key string) {
	if err := r.cache.Remove(ctx, key); err != nil && !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("Failed to remove cache entry", zap.String("key", key), zap.Error(err))
	}
}

func (r *Reconciler) begin() {
	r.mu.Lock()
	r.loading++
	r.notice = nil
	r.mu.Unlock()
}

// end finishes an operation started with begin, recording the outcome
func (r *Reconciler) end(err error, failure, success string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loading > 0 {
		r.loading--
	}
	if err != nil {
		r.notice = &Notice{Code: Code(err), Message: failure}
		return
	}
	if success != "" {
		r.success = success
	}
}

func (r *Reconciler) setNotice(code, message string) {
	r.mu.Lock()
	r.notice = &Notice{Code: code, Message: message}
	r.mu.Unlock()
}

func (r *Reconciler) setSuccess(message string) {
	r.mu.Lock()
	r.notice = nil
	r.success = message
	r.mu.Unlock()
}

func (r *Reconciler) setSaving(v bool) {
	r.mu.Lock()
	r.saving = v
	r.mu.Unlock()
}

// Code maps an operation error to its notice code
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRecipesSelected), errors.Is(err, ErrEmptyList), errors.Is(err, ErrNothingToImport):
		return CodeValidation
	case errors.Is(err, ErrSuperseded):
		return CodeSuperseded
	case errors.Is(err, ErrItemNotFound):
		return CodeNotFound
	case IsShape(err):
		return CodeShape
	default:
		return CodeTransport
	}
}

func importKey(name string) string {
	return strings.ToLower(strings.TrimSpace(CleanName(name)))
}

func sortMostRecentFirst(lists []models.ShoppingList) {
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].CreatedAt.After(lists[j].CreatedAt)
	})
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func cloneItems(items []models.ShoppingListItem) []models.ShoppingListItem {
	if items == nil {
		return []models.ShoppingListItem{}
	}
	out := make([]models.ShoppingListItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].Recipes = append([]models.RecipeRef{}, item.Recipes...)
	}
	return out
}
