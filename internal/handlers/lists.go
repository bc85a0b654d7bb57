package handlers

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/database"
	"github.com/foxxcyber/smart-pantry/internal/middleware"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// ListShoppingLists returns the user's saved lists, most recent first
func (h *Handler) ListShoppingLists(c *fiber.Ctx) error {
	lists := h.reconciler(c).SavedLists()
	return SuccessWithMeta(c, lists, len(lists))
}

// NewShoppingList starts an empty, unsaved list
func (h *Handler) NewShoppingList(c *fiber.Ctx) error {
	r := h.reconciler(c)
	r.NewList()
	return Success(c, r.State())
}

// SelectShoppingList makes a saved list current
func (h *Handler) SelectShoppingList(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "invalid list id")
	}

	list, err := h.reconciler(c).SelectList(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return Success(c, list)
}

// ExportShoppingList uploads the printable list and returns a download URL
func (h *Handler) ExportShoppingList(c *fiber.Ctx) error {
	if h.exporter == nil {
		return Error(c, fiber.StatusServiceUnavailable, "", "export storage is not configured")
	}

	userID := middleware.GetUserID(c)
	r := h.reconciler(c)
	state := r.State()
	if state.TotalCount == 0 {
		return Error(c, fiber.StatusBadRequest, shopping.CodeValidation, "Cannot export an empty list")
	}

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return err
	}

	res, err := h.exporter.ExportList(c.UserContext(), userID, buf.Bytes())
	if err != nil {
		h.log.Error("Export upload failed", zap.String("user_id", userID), zap.Error(err))
		return Error(c, fiber.StatusBadGateway, shopping.CodeTransport, "failed to upload list")
	}

	if h.exportLog != nil {
		record := &database.ListExport{
			UserID:    userID,
			ObjectKey: res.Key,
			ItemCount: state.TotalCount,
		}
		if state.ListID != 0 {
			id := state.ListID
			record.ListID = &id
		}
		if err := h.exportLog.RecordExport(c.UserContext(), record); err != nil {
			h.log.Error("Failed to record export", zap.String("key", res.Key), zap.Error(err))
			if derr := h.exporter.Delete(c.UserContext(), res.Key); derr != nil {
				h.log.Warn("Failed to remove unrecorded export", zap.String("key", res.Key), zap.Error(derr))
			}
			return Error(c, fiber.StatusInternalServerError, "", "failed to record export")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: res})
}

// ListExports returns the user's recent exports
func (h *Handler) ListExports(c *fiber.Ctx) error {
	if h.exportLog == nil {
		return SuccessWithMeta(c, []*database.ListExport{}, 0)
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	exports, err := h.exportLog.ListExports(c.UserContext(), middleware.GetUserID(c), limit)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "", "failed to list exports")
	}
	if exports == nil {
		exports = []*database.ListExport{}
	}
	return SuccessWithMeta(c, exports, len(exports))
}
