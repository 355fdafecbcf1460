package auth

import (
	"time"

	"github.com/google/uuid"
)

// Login failure types
const (
	FailureUserNotFound  = "user_not_found"
	FailureUserInactive  = "user_inactive"
	FailureWrongPassword = "wrong_password"
	FailureLockedOut     = "locked_out"
)

// LoginAttempt is the persistent audit trail behind the login-history
// endpoint. Lockout counting itself lives in the in-memory/Redis store, not
// in this table.
type LoginAttempt struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email       string    `json:"email" gorm:"size:255;index;not null"`
	IPAddress   string    `json:"ip_address" gorm:"size:50;not null"`
	UserAgent   string    `json:"user_agent" gorm:"type:text"`
	Successful  bool      `json:"successful" gorm:"default:false"`
	FailureType string    `json:"failure_type" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
}
