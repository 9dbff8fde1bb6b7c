package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User holds one registered account. The password is only ever stored as
// a bcrypt hash.
type User struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Username     string        `json:"username" gorm:"uniqueIndex;size:80;not null"`
	Email        string        `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string        `json:"-" gorm:"size:128;not null"`
	CreatedAt    time.Time     `json:"created_at"`
	Messages     []ChatMessage `json:"-" gorm:"foreignKey:UserID"`
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// PublicUser is the identity shape returned by the API.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public strips everything a client should not see.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}
