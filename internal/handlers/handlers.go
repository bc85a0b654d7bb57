package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/database"
	"github.com/foxxcyber/smart-pantry/internal/middleware"
	"github.com/foxxcyber/smart-pantry/internal/pantry"
	"github.com/foxxcyber/smart-pantry/internal/services"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// Exporter uploads rendered lists
type Exporter interface {
	ExportList(ctx context.Context, owner string, content []byte) (*services.ExportResult, error)
	Delete(ctx context.Context, key string) error
}

// ExportLog records uploaded lists
type ExportLog interface {
	RecordExport(ctx context.Context, e *database.ListExport) error
	ListExports(ctx context.Context, userID string, limit int) ([]*database.ListExport, error)
}

// Handler holds all handler dependencies
type Handler struct {
	sessions  *services.SessionManager
	exporter  Exporter
	exportLog ExportLog
	parser    *shopping.ChecklistParser
	log       *zap.Logger
}

// New creates a new Handler instance. exporter and exportLog may be nil when
// object storage or the database are not configured.
func New(sessions *services.SessionManager, exporter Exporter, exportLog ExportLog, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		sessions:  sessions,
		exporter:  exporter,
		exportLog: exportLog,
		parser:    shopping.NewChecklistParser(),
		log:       log,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains collection metadata
type Meta struct {
	Total int `json:"total"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with a total count
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Code:    code,
		Error:   message,
	})
}

// fail maps a reconciler error onto a status and notice code
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var status *pantry.StatusError
	switch {
	case errors.Is(err, pantry.ErrUnauthorized):
		return Error(c, fiber.StatusUnauthorized, "unauthorized", "Your session has expired. Please log in again.")
	case errors.As(err, &status) && status.StatusCode == fiber.StatusNotFound:
		return Error(c, fiber.StatusNotFound, shopping.CodeNotFound, err.Error())
	}

	code := shopping.Code(err)
	switch code {
	case shopping.CodeValidation:
		return Error(c, fiber.StatusBadRequest, code, err.Error())
	case shopping.CodeNotFound:
		return Error(c, fiber.StatusNotFound, code, err.Error())
	case shopping.CodeSuperseded:
		return Error(c, fiber.StatusConflict, code, err.Error())
	case shopping.CodeShape, shopping.CodeTransport:
		h.log.Warn("Backend call failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err))
		return Error(c, fiber.StatusBadGateway, code, err.Error())
	}
	return Error(c, fiber.StatusInternalServerError, "", "Internal Server Error")
}

// reconciler returns the caller's reconciler. A new session is loaded
// before it is returned; a failed load is logged by the session manager.
func (h *Handler) reconciler(c *fiber.Ctx) *shopping.Reconciler {
	r, _, _ := h.sessions.Get(c.UserContext(), middleware.GetUserID(c), middleware.GetToken(c))
	return r
}
