package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionType is the user's billing tier.
type SubscriptionType string

const (
	SubscriptionFree    SubscriptionType = "free"
	SubscriptionPremium SubscriptionType = "premium"
)

// User represents an account.
type User struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Subscription SubscriptionType `json:"subscription_type"`
	Points       int              `json:"points"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
