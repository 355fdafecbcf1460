package auth

import (
	"time"

	"astraldraft-backend/shared/database/models"

	"github.com/google/uuid"
)

// Session revocation reasons
const (
	RevokeReasonLogout              = "logout"
	RevokeReasonExpired             = "expired"
	RevokeReasonPasswordChange      = "password_change"
	RevokeReasonFingerprintMismatch = "fingerprint_mismatch"
	RevokeReasonTokenReuse          = "token_reuse"
	RevokeReasonUserTerminated      = "user_terminated"
)

// UserSession represents one authenticated client. Tokens are never stored
// raw; only SHA-256 hashes persist here. FamilyID links a refresh rotation
// chain so a detected reuse can invalidate every descendant at once.
type UserSession struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           uint       `json:"user_id" gorm:"index;not null"`
	FamilyID         uuid.UUID  `json:"family_id" gorm:"type:uuid;index;not null"`
	TokenHash        string     `json:"-" gorm:"size:64;index;not null"`
	RefreshTokenHash string     `json:"-" gorm:"size:64;uniqueIndex;not null"`
	CSRFSecret       string     `json:"-" gorm:"size:128;not null"`
	Fingerprint      string     `json:"-" gorm:"size:64;not null"`
	IPAddress        string     `json:"ip_address" gorm:"size:50"`
	UserAgent        string     `json:"user_agent" gorm:"size:500"`
	IsActive         bool       `json:"is_active" gorm:"default:true"`
	RevokedAt        *time.Time `json:"revoked_at"`
	RevokedReason    string     `json:"revoked_reason,omitempty" gorm:"size:64"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"not null"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Relations
	User models.User `json:"-" gorm:"foreignKey:UserID"`
}
