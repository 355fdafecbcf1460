package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"astraldraft-backend/shared/database/models/auth"
	"astraldraft-backend/shared/utils/query"
)

// SessionRepository owns the user_sessions table. Revocation is always a
// soft update so the rows stay around for reuse detection and audit.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *auth.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindActiveByTokenHash resolves the session behind a presented access
// token. Expired or revoked sessions are not returned.
func (r *SessionRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*auth.UserSession, error) {
	var session auth.UserSession
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_active = ? AND expires_at > ?", tokenHash, true, time.Now()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// FindByRefreshHash looks a session up by refresh token hash regardless of
// state. Callers need revoked rows too: a refresh token resurfacing after
// its session was rotated away is the theft signal.
func (r *SessionRepository) FindByRefreshHash(ctx context.Context, refreshHash string) (*auth.UserSession, error) {
	var session auth.UserSession
	err := r.db.WithContext(ctx).Where("refresh_token_hash = ?", refreshHash).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// Rotate swaps both token hashes on an existing session, keeping the family.
func (r *SessionRepository) Rotate(ctx context.Context, sessionID uuid.UUID, tokenHash, refreshHash string, expiresAt time.Time) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&auth.UserSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"token_hash":         tokenHash,
			"refresh_token_hash": refreshHash,
			"expires_at":         expiresAt,
			"last_used_at":       now,
			"updated_at":         now,
		}).Error
}

// Revoke deactivates a single session
func (r *SessionRepository) Revoke(ctx context.Context, sessionID uuid.UUID, reason string) error {
	return r.revokeWhere(ctx, reason, "id = ? AND is_active = ?", sessionID, true)
}

// RevokeFamily deactivates every session in a refresh rotation chain
func (r *SessionRepository) RevokeFamily(ctx context.Context, familyID uuid.UUID, reason string) error {
	return r.revokeWhere(ctx, reason, "family_id = ? AND is_active = ?", familyID, true)
}

// RevokeAllForUserExcept deactivates all of a user's sessions except the
// one driving the request (password change, terminate-all).
func (r *SessionRepository) RevokeAllForUserExcept(ctx context.Context, userID uint, keep uuid.UUID, reason string) error {
	return r.revokeWhere(ctx, reason, "user_id = ? AND id != ? AND is_active = ?", userID, keep, true)
}

func (r *SessionRepository) revokeWhere(ctx context.Context, reason string, cond string, args ...interface{}) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&auth.UserSession{}).
		Where(cond, args...).
		Updates(map[string]interface{}{
			"is_active":      false,
			"revoked_at":     now,
			"revoked_reason": reason,
		}).Error
}

// Touch updates the session's last-used timestamp
func (r *SessionRepository) Touch(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&auth.UserSession{}).
		Where("id = ?", sessionID).
		Update("last_used_at", time.Now()).Error
}

func (r *SessionRepository) FindByIDAndUser(ctx context.Context, sessionID uuid.UUID, userID uint) (*auth.UserSession, error) {
	var session auth.UserSession
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// ListActiveByUser returns a page of the user's active sessions.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID uint, params query.FilterParams) ([]auth.UserSession, int64, error) {
	allowedSortFields := map[string]string{
		"created_at":   "created_at",
		"updated_at":   "updated_at",
		"last_used_at": "last_used_at",
	}

	dbQuery := r.db.WithContext(ctx).Model(&auth.UserSession{}).
		Where("user_id = ? AND is_active = ?", userID, true)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []auth.UserSession
	if err := query.ApplyPagination(dbQuery, params.Page, params.Limit).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}
