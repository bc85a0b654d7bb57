package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the shopping list API under router. auth must set
// the user id and token locals.
func RegisterRoutes(router fiber.Router, h *Handler, auth fiber.Handler) {
	shop := router.Group("/shopping", auth)
	shop.Get("/state", h.GetState)
	shop.Post("/load", h.Load)
	shop.Post("/suggestions/refresh", h.RefreshSuggestions)
	shop.Post("/recipes/:id/toggle", h.ToggleRecipe)
	shop.Post("/generate", h.Generate)
	shop.Post("/items/:index/toggle", h.ToggleItem)
	shop.Post("/save", h.Save)
	shop.Delete("/", h.Clear)
	shop.Get("/categories", h.Categories)
	shop.Get("/print", h.Print)
	shop.Post("/existing/toggle", h.ToggleExisting)
	shop.Post("/notices/dismiss", h.DismissNotices)
	shop.Post("/import", h.Import)

	// Saved lists
	shop.Get("/lists", h.ListShoppingLists)
	shop.Post("/lists/new", h.NewShoppingList)
	shop.Post("/lists/:id/select", h.SelectShoppingList)

	// Exports
	shop.Post("/export", h.ExportShoppingList)
	shop.Get("/exports", h.ListExports)
}
