package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/smart-pantry/internal/models"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// fakePantry serves the smart-pantry endpoints the CLI uses
type fakePantry struct {
	mu     sync.Mutex
	lists  map[int]models.ShoppingList
	nextID int
}

func newFakePantry(t *testing.T) *httptest.Server {
	t.Helper()
	p := &fakePantry{lists: make(map[int]models.ShoppingList)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/smart-pantry/recipes", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "title": "Salade", "match_percentage": 80}, {"id": 2, "title": "Omelette"}]`))
	})
	mux.HandleFunc("POST /api/smart-pantry/missing-ingredients", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"missing_items": [{"name": "Tomate", "quantity": 2, "unit": "pcs"}, {"name": "Lait"}],
			"existing_items": [{"name": "Sel", "available": "1", "unit": "kg"}]}`))
	})
	mux.HandleFunc("GET /api/smart-pantry/shopping-lists", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		out := []models.ShoppingList{}
		for _, l := range p.lists {
			out = append(out, l)
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("GET /api/smart-pantry/shopping-list/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		l, ok := p.lists[id]
		if !ok {
			http.Error(w, `{"detail": "not found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("POST /api/smart-pantry/shopping-list", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		var req models.SaveListRequest
		json.NewDecoder(r.Body).Decode(&req)
		p.nextID++
		l := models.ShoppingList{ID: p.nextID, Name: req.Name, Items: req.Items, CreatedAt: time.Now().UTC()}
		p.lists[l.ID] = l
		json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("PUT /api/smart-pantry/shopping-list/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		var req models.SaveListRequest
		json.NewDecoder(r.Body).Decode(&req)
		l := p.lists[id]
		l.Name, l.Items = req.Name, req.Items
		p.lists[id] = l
		json.NewEncoder(w).Encode(l)
	})
	mux.HandleFunc("DELETE /api/smart-pantry/shopping-list/{id}", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		id, _ := strconv.Atoi(r.PathValue("id"))
		delete(p.lists, id)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t       *testing.T
	backend string
	cache   string
	stdin   string
}

func newCLI(t *testing.T, backend string) *cli {
	t.Helper()
	t.Setenv("PANTRY_TOKEN", "")
	t.Setenv("CATEGORIES_FILE", "")
	t.Setenv("S3_ENDPOINT", "")
	return &cli{t: t, backend: backend, cache: filepath.Join(t.TempDir(), "cache.db")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	args = append(args, "--backend", c.backend, "--cache", c.cache)
	err := execute(context.Background(), strings.NewReader(c.stdin), &out, args)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err)
	return out
}

func TestCLIListLifecycle(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)

	out := c.mustRun("suggest")
	assert.Contains(t, out, "[ ] #1 Salade (80% match)")
	assert.Contains(t, out, "[ ] #2 Omelette")

	_, err := c.run("generate")
	assert.ErrorContains(t, err, "select at least one recipe")

	assert.Contains(t, c.mustRun("select", "1"), "Selected recipes: #1")
	assert.Contains(t, c.mustRun("suggest"), "[x] #1 Salade")

	out = c.mustRun("generate")
	assert.Contains(t, out, "List generated! You already have 1 ingredients available.")
	assert.Contains(t, out, "[ ] Tomate: 2 pcs")

	assert.Contains(t, c.mustRun("toggle", "0"), "Tomate checked")

	out = c.mustRun("show", "--existing")
	assert.Contains(t, out, "[x] Tomate: 2 pcs")
	assert.Contains(t, out, "1/2 items checked")
	assert.Contains(t, out, "Sel: 1 kg")

	assert.Contains(t, c.mustRun("save"), "Saved new list #1")
	assert.Contains(t, c.mustRun("lists"), "* #1 List of ")
	assert.Contains(t, c.mustRun("show"), "[x] Tomate")

	assert.Contains(t, c.mustRun("toggle", "0", "--save"), "Updated list #1")
	assert.Contains(t, c.mustRun("show"), "0/2 items checked")

	assert.Contains(t, c.mustRun("clear"), "Deleted list #1")
	assert.Contains(t, c.mustRun("show"), "Your shopping list is empty.")
	assert.Contains(t, c.mustRun("lists"), "No saved lists.")
}

func TestCLIOpenKeepsChosenList(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)

	c.mustRun("generate", "--recipes", "1", "--save")
	c.mustRun("new")
	assert.Contains(t, c.mustRun("show"), "Your shopping list is empty.")

	c.mustRun("generate", "--recipes", "2", "--save")
	assert.Contains(t, c.mustRun("lists"), "* #2")

	assert.Contains(t, c.mustRun("open", "1"), "Tomate")
	assert.Contains(t, c.mustRun("lists"), "* #1")

	_, err := c.run("open", "9")
	assert.Error(t, err)
}

func TestCLIImport(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)
	c.mustRun("generate", "--recipes", "1")
	c.mustRun("toggle", "0")
	printed := c.mustRun("show")

	file := filepath.Join(t.TempDir(), "list.md")
	require.NoError(t, os.WriteFile(file, []byte("- [ ] 2 baguettes\n- [x] Tomate\n"), 0o644))
	assert.Contains(t, c.mustRun("import", file), "1 of 2 items imported")
	assert.Contains(t, c.mustRun("show"), "[ ] baguettes: 2")

	c.mustRun("new")
	c.stdin = printed
	assert.Contains(t, c.mustRun("import", "--replace"), "2 of 2 items imported")
	c.stdin = ""
	out := c.mustRun("show")
	assert.Contains(t, out, "[x] Tomate: 2 pcs")
	assert.Contains(t, out, "[ ] Lait: 1")

	_, err := c.run("import", file+".missing")
	assert.Error(t, err)
}

func TestCLIToggleUnknownItem(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)
	c.mustRun("generate", "--recipes", "1")

	_, err := c.run("toggle", "7")

	assert.ErrorIs(t, err, shopping.ErrItemNotFound)
}

func TestCLISaveEmpty(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)

	_, err := c.run("save")

	assert.ErrorContains(t, err, "cannot save an empty list")
}

func TestCLIOffline(t *testing.T) {
	srv := newFakePantry(t)
	c := newCLI(t, srv.URL)
	c.mustRun("generate", "--recipes", "1")
	srv.Close()

	out := c.mustRun("show")
	assert.Contains(t, out, "Tomate")

	out = c.mustRun("save")
	assert.Contains(t, out, "saved locally only")
}

func TestCLIExpiredToken(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = c.run("show", "--token", token)

	assert.ErrorContains(t, err, "session has expired")
}

func TestCLIExportNeedsStorage(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)

	_, err := c.run("export")

	assert.ErrorContains(t, err, "S3_ENDPOINT")
}

func TestCLICategoriesRoundTrip(t *testing.T) {
	c := newCLI(t, newFakePantry(t).URL)

	out := c.mustRun("categories")

	table, err := shopping.ParseCategories([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, shopping.DefaultCategories(), table)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "#7"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, ids)

	_, err = parseIDs([]string{"0"})
	assert.Error(t, err)
	_, err = parseIDs([]string{"abc"})
	assert.Error(t, err)
}
