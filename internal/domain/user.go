package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMerchant Role = "merchant"
	RoleCustomer Role = "customer"
)

// AllowedRoles is ordered for stable error payloads.
var AllowedRoles = []Role{RoleAdmin, RoleMerchant, RoleCustomer}

// ParseRole lowercases raw and maps an empty value to RoleCustomer.
func ParseRole(raw string) (Role, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return RoleCustomer, true
	}
	for _, r := range AllowedRoles {
		if string(r) == v {
			return r, true
		}
	}
	return "", false
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// Identity is the public view of a user.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
