package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/foxxcyber/smart-pantry/internal/config"
)

// JWTClaims represents the claims of a smart-pantry access token.
// The backend puts the user id in "user_id" or, failing that, "sub".
type JWTClaims struct {
	UserID any `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// UserKey returns the user id as a string
func (c *JWTClaims) UserKey() string {
	switch v := c.UserID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return c.RegisteredClaims.Subject
}

// AuthRequired middleware checks for a valid JWT token. The raw token is
// kept so it can be forwarded to the backend on the user's behalf.
func AuthRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    "unauthorized",
				"error":   "missing authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    "unauthorized",
				"error":   "invalid authorization format",
			})
		}

		// The header aliases fiber's request buffer; sessions keep the token
		tokenString := utils.CopyString(strings.TrimPrefix(authHeader, "Bearer "))

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    "unauthorized",
				"error":   "Your session has expired. Please log in again.",
			})
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid || claims.UserKey() == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    "unauthorized",
				"error":   "invalid token claims",
			})
		}

		c.Locals("user_id", claims.UserKey())
		c.Locals("token", tokenString)

		return c.Next()
	}
}

// RequestID tags each request with an X-Request-ID, reusing the caller's
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Locals("request_id", id)
		c.Set("X-Request-ID", id)
		return c.Next()
	}
}

// GetUserID extracts the user ID from the context
func GetUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// GetToken extracts the caller's bearer token from the context
func GetToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("token").(string); ok {
		return token
	}
	return ""
}

// GetRequestID extracts the request id from the context
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("request_id").(string); ok {
		return id
	}
	return ""
}
