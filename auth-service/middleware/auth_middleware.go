package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"astraldraft-backend/shared/database/models"
	modelauth "astraldraft-backend/shared/database/models/auth"
	utils "astraldraft-backend/shared/utils/auth"
	"astraldraft-backend/shared/utils/response"
)

// Context keys set by the auth middleware for downstream handlers
const (
	ContextUserKey    = "authUser"
	ContextClaimsKey  = "authClaims"
	ContextSessionKey = "authSession"
)

// UserLoader is the only read the middleware performs against user storage.
type UserLoader interface {
	GetActiveByID(ctx context.Context, id uint) (*models.User, error)
}

// SessionGuard resolves and, on a detected violation, destroys sessions.
type SessionGuard interface {
	FindActiveByTokenHash(ctx context.Context, tokenHash string) (*modelauth.UserSession, error)
	Revoke(ctx context.Context, sessionID uuid.UUID, reason string) error
	Touch(ctx context.Context, sessionID uuid.UUID) error
}

// AuthMiddleware orchestrates token extraction, verification, session and
// fingerprint checks, and identity loading for every protected route.
type AuthMiddleware struct {
	users                UserLoader
	sessions             SessionGuard
	fingerprintIncludeIP bool
}

func NewAuthMiddleware(users UserLoader, sessions SessionGuard, fingerprintIncludeIP bool) *AuthMiddleware {
	return &AuthMiddleware{
		users:                users,
		sessions:             sessions,
		fingerprintIncludeIP: fingerprintIncludeIP,
	}
}

// RequireAuth rejects the request unless it carries a valid access token
// bound to a live session with a matching fingerprint and an active user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c, true)
	}
}

// OptionalAuth performs the same checks but never fails the request. Routes
// that personalize without requiring login read the context keys and treat
// their absence as anonymous.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c, false)
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := UserFromContext(c)
		if user == nil || !user.HasAdminRights() {
			response.Error(c, http.StatusForbidden, response.CodeAdminRequired, "Admin privileges required")
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, required bool) {
	fail := func(status int, code, message string) {
		if required {
			response.Error(c, status, code, message)
			return
		}
		c.Next()
	}

	tokenString := ExtractToken(c)
	if tokenString == "" {
		fail(http.StatusUnauthorized, response.CodeTokenMissing, "Authentication token is required")
		return
	}

	claims, err := utils.ValidateToken(tokenString, utils.TokenTypeAccess)
	if err != nil {
		switch err {
		case utils.ErrTokenExpired:
			fail(http.StatusUnauthorized, response.CodeTokenExpired, "Token has expired")
		case utils.ErrTokenWrongType:
			fail(http.StatusUnauthorized, response.CodeTokenWrongType, "Wrong token type for this operation")
		default:
			fail(http.StatusUnauthorized, response.CodeTokenInvalid, "Invalid token")
		}
		return
	}

	session, err := m.sessions.FindActiveByTokenHash(c.Request.Context(), utils.HashToken(tokenString))
	if err != nil {
		log.Printf("❌ Session lookup failed (ip=%s path=%s): %v", c.ClientIP(), c.Request.URL.Path, err)
		fail(http.StatusInternalServerError, response.CodeInternalError, "Internal server error")
		return
	}
	if session == nil {
		fail(http.StatusUnauthorized, response.CodeSessionRevoked, "Session is no longer valid")
		return
	}

	if !utils.VerifyFingerprint(session.Fingerprint, FingerprintFromRequest(c), m.fingerprintIncludeIP) {
		// Treat as a hijacked token: destroy the session, fail closed.
		if err := m.sessions.Revoke(c.Request.Context(), session.ID, modelauth.RevokeReasonFingerprintMismatch); err != nil {
			log.Printf("❌ Failed to revoke session %s after fingerprint mismatch: %v", session.ID, err)
		}
		log.Printf("🚨 Session fingerprint mismatch (user=%d ip=%s path=%s)", session.UserID, c.ClientIP(), c.Request.URL.Path)
		fail(http.StatusUnauthorized, response.CodeFingerprintMismatch, "Session fingerprint mismatch")
		return
	}

	user, err := m.users.GetActiveByID(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Printf("❌ User lookup failed (ip=%s path=%s): %v", c.ClientIP(), c.Request.URL.Path, err)
		fail(http.StatusInternalServerError, response.CodeInternalError, "Internal server error")
		return
	}
	if user == nil {
		// Missing and deactivated accounts share one code to avoid
		// account enumeration.
		fail(http.StatusUnauthorized, response.CodeUserNotFound, "User not found")
		return
	}

	if err := m.sessions.Touch(c.Request.Context(), session.ID); err != nil {
		log.Printf("⚠️ Failed to touch session %s: %v", session.ID, err)
	}

	c.Set(ContextUserKey, user)
	c.Set(ContextClaimsKey, claims)
	c.Set(ContextSessionKey, session)

	c.Next()
}

// ExtractToken pulls the access token from the HttpOnly cookie first, then
// falls back to the Authorization header for non-browser API clients.
func ExtractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	tokenParts := strings.SplitN(authHeader, " ", 2)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(tokenParts[1])
}

// FingerprintFromRequest collects the client characteristics a session is
// bound to.
func FingerprintFromRequest(c *gin.Context) utils.FingerprintInput {
	return utils.FingerprintInput{
		UserAgent:      c.GetHeader("User-Agent"),
		AcceptLanguage: c.GetHeader("Accept-Language"),
		AcceptEncoding: c.GetHeader("Accept-Encoding"),
		IPAddress:      c.ClientIP(),
	}
}

// UserFromContext returns the authenticated user, or nil when anonymous.
func UserFromContext(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// ClaimsFromContext returns the verified token claims, or nil.
func ClaimsFromContext(c *gin.Context) *utils.Claims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

// SessionFromContext returns the session driving the request, or nil.
func SessionFromContext(c *gin.Context) *modelauth.UserSession {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, ok := value.(*modelauth.UserSession)
	if !ok {
		return nil
	}
	return session
}
