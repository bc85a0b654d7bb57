package handlers

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/smart-pantry/internal/middleware"
	"github.com/foxxcyber/smart-pantry/internal/models"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// GetState returns everything the shopping page renders
func (h *Handler) GetState(c *fiber.Ctx) error {
	return Success(c, h.reconciler(c).State())
}

// Load refetches suggestions and saved lists. On a new session the
// initial load already did that.
func (h *Handler) Load(c *fiber.Ctx) error {
	r, loaded, err := h.sessions.Get(c.UserContext(), middleware.GetUserID(c), middleware.GetToken(c))
	if !loaded {
		err = r.Load(c.UserContext())
	}
	if err != nil {
		return h.fail(c, err)
	}
	return Success(c, r.State())
}

// RefreshSuggestions refetches suggested recipes
func (h *Handler) RefreshSuggestions(c *fiber.Ctx) error {
	r := h.reconciler(c)
	if err := r.RefreshSuggestions(c.UserContext()); err != nil {
		return h.fail(c, err)
	}
	return Success(c, r.State().Suggestions)
}

// ToggleRecipe adds or removes a recipe from the selection
func (h *Handler) ToggleRecipe(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "invalid recipe id")
	}

	selected := h.reconciler(c).ToggleRecipe(c.UserContext(), id)
	return Success(c, fiber.Map{"selected_recipes": selected})
}

// Generate builds the list from the given or selected recipes
func (h *Handler) Generate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "invalid request body")
		}
	}

	res, err := h.reconciler(c).Generate(c.UserContext(), req.RecipeIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return Success(c, res)
}

// ToggleItem flips the checked flag of one item
func (h *Handler) ToggleItem(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "invalid item index")
	}

	item, err := h.reconciler(c).ToggleCheck(c.UserContext(), index)
	if err != nil {
		return h.fail(c, err)
	}
	return Success(c, item)
}

// Save persists the list: 201 when created, 200 when updated, 202 when the
// backend failed and only the cache holds it
func (h *Handler) Save(c *fiber.Ctx) error {
	res, err := h.reconciler(c).Save(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}

	switch {
	case res.LocalOnly:
		return c.Status(fiber.StatusAccepted).JSON(APIResponse{
			Success: true,
			Data:    res,
			Code:    shopping.CodeSavedLocally,
			Error:   "Error while saving the list. The list was saved locally only.",
		})
	case res.Created:
		return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: res})
	default:
		return Success(c, res)
	}
}

// Clear empties the list and deletes it remotely when it was saved
func (h *Handler) Clear(c *fiber.Ctx) error {
	return Success(c, h.reconciler(c).Clear(c.UserContext()))
}

// Categories returns the list grouped by category. ?non_empty=true drops
// empty buckets.
func (h *Handler) Categories(c *fiber.Ctx) error {
	cat := h.reconciler(c).Categorize()
	if c.QueryBool("non_empty") {
		return Success(c, shopping.Categorized{Buckets: cat.NonEmpty()})
	}
	return Success(c, cat)
}

// Print returns the printable list as plain text
func (h *Handler) Print(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.reconciler(c).Render(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(buf.Bytes())
}

// ToggleExisting expands or collapses the already-owned items
func (h *Handler) ToggleExisting(c *fiber.Ctx) error {
	return Success(c, fiber.Map{"show_existing": h.reconciler(c).ToggleExistingPanel()})
}

// DismissNotices clears the error and success messages
func (h *Handler) DismissNotices(c *fiber.Ctx) error {
	r := h.reconciler(c)
	r.DismissNotices()
	return Success(c, r.State())
}

// Import adds the items of a pasted checklist to the list
func (h *Handler) Import(c *fiber.Ctx) error {
	var req models.ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "invalid request body")
	}

	r := h.reconciler(c)
	added, err := r.Import(c.UserContext(), h.parser.Parse(req.Content), req.Replace)
	if err != nil {
		return h.fail(c, err)
	}
	return Success(c, fiber.Map{"added": added, "state": r.State()})
}
