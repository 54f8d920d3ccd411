package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxUsernameLength = 50
	minPasswordLength = 6
	maxPasswordLength = 100
	maxPasswordBytes  = 72
)

type AuthService interface {
	Register(ctx context.Context, username, password, confirm string) (*models.User, error)
	Login(ctx context.Context, username, password string, role models.Role) (*models.User, error)
}

type authService struct {
	users repository.UserRepository
	log   *slog.Logger
}

func NewAuthService(users repository.UserRepository, log *slog.Logger) AuthService {
	return &authService{users: users, log: log.With("component", "auth")}
}

// Register creates a regular user account.
func (s *authService) Register(ctx context.Context, username, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)

	var v validator
	v.check(username != "", "username", "is required")
	v.maxChars(username, maxUsernameLength, "username")
	chars := utf8.RuneCountInString(password)
	v.check(chars >= minPasswordLength && chars <= maxPasswordLength, "password", "must be between 6 and 100 characters")
	v.check(len(password) <= maxPasswordBytes, "password", "must be at most 72 bytes")
	v.check(password == confirm, "confirm_password", "passwords do not match")
	if err := v.err(); err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Role: models.RoleUser}
	if err := user.HashPassword(password); err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fieldError("password", "must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, storageErr("create user", err)
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and, when role is set, that the account has
// that role. Every mismatch returns the same error.
func (s *authService) Login(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("find user", err)
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if role != "" && user.Role != role {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
