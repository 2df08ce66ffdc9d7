package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// ApiResponse is the envelope every endpoint returns.
type ApiResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Success writes a 200 envelope.
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return SuccessStatus(c, fiber.StatusOK, message, data)
}

// SuccessStatus writes a success envelope with an explicit status code.
func SuccessStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(ApiResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Error writes a failure envelope.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ApiResponse{
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// ValidationError writes a 400 envelope with a per-field message map.
func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ApiResponse{
		Success:   false,
		Message:   "Validation failed",
		Data:      fields,
		Timestamp: time.Now(),
	})
}
