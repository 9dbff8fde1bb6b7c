// Package auth implements registration and credential checks over the
// user table.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"medichat/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a user when username and email are both unused. The
// password is bcrypt-hashed before it touches the store.
func (s *Service) Register(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username already exists", models.ErrConflict)
	}
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already exists", models.ErrConflict)
	}

	user := models.User{Username: username, Email: email}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.db.Create(&user).Error; err != nil {
		// Lost the race against a concurrent register.
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email already exists", models.ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies username/password. An unknown username and a
// hash mismatch are indistinguishable to the caller.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", models.ErrInvalidInput)
	}

	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", models.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid username or password", models.ErrUnauthorized)
	}
	return &user, nil
}

// ByID resolves a session's user id back to an identity.
func (s *Service) ByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
