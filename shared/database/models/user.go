package models

import (
	"time"
)

// Subscription tiers
const (
	TierFree    = "FREE"
	TierPremium = "PREMIUM"
	TierOracle  = "ORACLE"
)

// ReservedAdminID is the bootstrap account that always carries admin rights,
// independent of the IsAdmin flag.
const ReservedAdminID uint = 1

type User struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Username         string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email            string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password         string    `json:"-" gorm:"not null"`
	DisplayName      string    `json:"display_name" gorm:"size:100"`
	Avatar           string    `json:"avatar"`
	IsAdmin          bool      `json:"is_admin" gorm:"default:false"`
	SubscriptionTier string    `json:"subscription_tier" gorm:"size:20;default:'FREE'"`
	IsActive         bool      `json:"is_active" gorm:"default:true"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasAdminRights reports whether the user may pass admin-only middleware.
func (u *User) HasAdminRights() bool {
	return u.IsAdmin || u.ID == ReservedAdminID
}
