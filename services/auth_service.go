package services

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sams_go/middleware"
	"sams_go/models"
	"sams_go/utils"
)

// RegisterRequest carries a new account's credentials.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Role            string `json:"role"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by both register and login.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// AuthService implements credential registration and login.
type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(req *RegisterRequest) (*LoginResponse, error) {
	logrus.WithField("username", req.Username).Info("Registering new user")

	if req.Password != req.ConfirmPassword {
		return nil, invalidOpf("Passwords do not match")
	}

	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var clash int64
		tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&clash)
		if clash > 0 {
			return duplicatef("Username already exists")
		}
		tx.Model(&models.User{}).Where("email = ?", req.Email).Count(&clash)
		if clash > 0 {
			return duplicatef("Email already exists")
		}

		role := strings.ToUpper(req.Role)
		if !models.IsValidRole(role) {
			if req.Role != "" {
				logrus.WithField("role", req.Role).Warn("Invalid role provided, defaulting to STUDENT")
			}
			role = models.RoleStudent
		}

		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}

		user = models.User{
			Username: req.Username,
			Email:    req.Email,
			Password: hashed,
			Role:     role,
			Enabled:  true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	logrus.WithField("username", user.Username).Info("User registered successfully")
	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}

// Login authenticates a user and returns a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	logrus.WithField("username", req.Username).Info("User login attempt")

	var user models.User
	if err := s.DB.Where("username = ? AND enabled = ?", req.Username, true).First(&user).Error; err != nil {
		logrus.WithField("username", req.Username).Error("Authentication failed")
		return nil, invalidOpf("Invalid username or password")
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		logrus.WithField("username", req.Username).Error("Authentication failed")
		return nil, invalidOpf("Invalid username or password")
	}

	now := time.Now()
	user.LastLogin = &now
	s.DB.Model(&user).Update("last_login", now)

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		return nil, err
	}

	logrus.WithField("username", user.Username).Info("User logged in successfully")
	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}
