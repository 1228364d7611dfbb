// Package models defines data structures for the application.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user in the system.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty" example:"507f1f77bcf86cd799439011"`
	Name      string             `json:"name" bson:"name" example:"John Doe"`
	Email     string             `json:"email" bson:"email" example:"user@example.com"`
	Password  string             `json:"-" bson:"password"`
	Credits   int                `json:"credits" bson:"credits" example:"20"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt" example:"2024-01-15T09:30:00Z"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt" example:"2024-01-15T09:30:00Z"`

	// GrantedPurchases lists the transactions whose credits were added, so a
	// purchase is never granted twice.
	GrantedPurchases []primitive.ObjectID `json:"-" bson:"grantedPurchases,omitempty"`
}

// CreateUserRequest is the payload for registering a user.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100" example:"John Doe"`
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"secret123"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// AuthResponse is returned by register and login.
// ChatID is the empty chat the client should open after login.
type AuthResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	User   User   `json:"user"`
	ChatID string `json:"chatId,omitempty" example:"507f1f77bcf86cd799439012"`
}
