package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"sams_go/database"
	"sams_go/middleware"
	"sams_go/services"
	"sams_go/utils"
)

type AuthController struct {
	Service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{Service: service}
}

// Register creates a new user account and returns a session token
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	resp, err := ac.Service.Register(&req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "users", resp.UserID, fiber.Map{
		"username": resp.Username,
		"role":     resp.Role,
	})
	return utils.SuccessStatus(c, fiber.StatusCreated, "User registered successfully", resp)
}

// Login authenticates a user and returns a session token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := utils.ValidateStruct(&req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	resp, err := ac.Service.Login(&req)
	if err != nil {
		return respondError(c, err)
	}

	middleware.LogActivity(c, "LOGIN", "auth", resp.UserID, fiber.Map{
		"username": resp.Username,
		"role":     resp.Role,
	})
	return utils.Success(c, "Login successful", resp)
}

// GetProfile returns the current user's profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "User not found")
	}

	return utils.Success(c, "Profile retrieved successfully", fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"role":       user.Role,
		"enabled":    user.Enabled,
		"student_id": user.StudentID,
		"last_login": user.LastLogin,
	})
}

// Logout invalidates the current JWT by storing it in the Redis blacklist
// for 24 hours
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Missing authorization header")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid authorization header format")
	}

	if rc := database.GetRedisClient(); rc != nil {
		key := "blacklist:jwt:" + tokenString
		if err := rc.Set(context.Background(), key, "1", 24*time.Hour).Err(); err != nil {
			// Redis failure must not block logout
			middleware.LogActivity(c, "LOGOUT", "auth", 0, fiber.Map{"error": err.Error()})
		}
	}

	if user, err := middleware.GetCurrentUser(c); err == nil {
		middleware.LogActivity(c, "LOGOUT", "auth", user.ID, fiber.Map{"username": user.Username})
	}

	return utils.Success(c, "Logged out successfully", nil)
}
