package domain

import "time"

type Session struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;index;not null" json:"user_id"`
	RefreshHash string    `gorm:"size:128;not null" json:"-"`
	UserAgent   string    `gorm:"size:512" json:"user_agent"`
	IP          string    `gorm:"size:64" json:"ip"`
	ExpiresAt   time.Time `gorm:"index;not null" json:"expires_at"`
	Revoked     bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive reports whether the session can still be exchanged for an access token.
func (s *Session) IsActive(now time.Time) bool {
	return !s.Revoked && s.ExpiresAt.After(now)
}
