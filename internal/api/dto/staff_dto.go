package dto

import (
	"time"

	"github.com/spec-kit/waitline/internal/domain"
)

// RegisterMerchantRequest creates a merchant with its owner account.
type RegisterMerchantRequest struct {
	MerchantName string `json:"merchant_name"`
	OwnerName    string `json:"owner_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StaffResponse is the API view of a staff member.
type StaffResponse struct {
	ID         string           `json:"id"`
	MerchantID string           `json:"merchant_id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       domain.StaffRole `json:"role"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
