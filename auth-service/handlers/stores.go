package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"astraldraft-backend/shared/database/models"
	"astraldraft-backend/shared/database/models/auth"
	"astraldraft-backend/shared/utils/query"

	"astraldraft-backend/auth-service/services"
)

// UserStore is the handlers' surface onto user rows. Implemented by
// database.UserRepository; stubbed in tests.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByID(ctx context.Context, id uint) (*models.User, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	UsernameInUse(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdateProfile(ctx context.Context, id uint, displayName string) error
	UpdateAvatar(ctx context.Context, id uint, objectKey string) error
}

// SessionStore is the handlers' surface onto session rows. Implemented by
// database.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, session *auth.UserSession) error
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*auth.UserSession, error)
	FindByRefreshHash(ctx context.Context, refreshHash string) (*auth.UserSession, error)
	FindByIDAndUser(ctx context.Context, sessionID uuid.UUID, userID uint) (*auth.UserSession, error)
	Rotate(ctx context.Context, sessionID uuid.UUID, tokenHash, refreshHash string, expiresAt time.Time) error
	Revoke(ctx context.Context, sessionID uuid.UUID, reason string) error
	RevokeFamily(ctx context.Context, familyID uuid.UUID, reason string) error
	RevokeAllForUserExcept(ctx context.Context, userID uint, keep uuid.UUID, reason string) error
	ListActiveByUser(ctx context.Context, userID uint, params query.FilterParams) ([]auth.UserSession, int64, error)
}

// AttemptStore records and lists the login audit trail. Implemented by
// database.LoginAttemptRepository.
type AttemptStore interface {
	Record(ctx context.Context, attempt *auth.LoginAttempt) error
	ListByEmail(ctx context.Context, email string, params query.FilterParams) ([]auth.LoginAttempt, int64, error)
}

// EventPublisher pushes security events to a user's connected clients.
// Implemented by services.EventHub.
type EventPublisher interface {
	Publish(userID uint, event services.SecurityEvent)
}
