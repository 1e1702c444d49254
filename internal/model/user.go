package model

import (
	"errors"
	"strconv"
	"time"
)

// MinPasswordLength is the shortest password accepted for an account.
const MinPasswordLength = 8

// User is an account that owns a sneaker collection.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	TokenVersion int64      `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// OwnerID returns the owner id under which the user's sneakers are stored.
func (u User) OwnerID() string {
	return OwnerIDFor(u.ID)
}

// OwnerIDFor converts a user id into a collection owner id.
func OwnerIDFor(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
