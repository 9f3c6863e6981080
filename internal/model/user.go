package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes student and administrator accounts.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents a portal account.
type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	Role            Role      `json:"role"`
	PasswordHash    string    `json:"-"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// CreateUserRequest is the multipart form payload for creating a student
// account. The optional profile image arrives as a separate file part.
type CreateUserRequest struct {
	Username string `form:"username" binding:"required,min=2,max=64"`
	FullName string `form:"full_name" binding:"required,min=2,max=100"`
	Password string `form:"password" binding:"required,min=6,max=128"`
}
