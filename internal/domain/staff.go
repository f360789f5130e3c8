package domain

import "time"

// StaffRole enumerates dashboard permission levels.
type StaffRole string

const (
	StaffRoleOwner StaffRole = "OWNER"
	StaffRoleHost  StaffRole = "HOST"
)

// StaffMember is a merchant dashboard account.
type StaffMember struct {
	ID           string
	MerchantID   string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
