package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"astraldraft-backend/shared/config"
	"astraldraft-backend/shared/database/models"
	modelauth "astraldraft-backend/shared/database/models/auth"
	utils "astraldraft-backend/shared/utils/auth"
	"astraldraft-backend/shared/utils/response"

	"astraldraft-backend/auth-service/middleware"
	"astraldraft-backend/auth-service/services"
)

type AuthHandler struct {
	users    UserStore
	sessions SessionStore
	attempts AttemptStore
	lockout  *utils.LockoutTracker
	cookies  *middleware.CookieManager
	events   EventPublisher
	cfg      *config.Config
}

func NewAuthHandler(users UserStore, sessions SessionStore, attempts AttemptStore, lockout *utils.LockoutTracker, cookies *middleware.CookieManager, events EventPublisher) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		attempts: attempts,
		lockout:  lockout,
		cookies:  cookies,
		events:   events,
		cfg:      config.GetConfig(),
	}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// userResponse is the sanitized user shape returned by auth endpoints.
// Token values never appear in response bodies; they travel only as cookies.
type userResponse struct {
	ID               uint      `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	Avatar           string    `json:"avatar,omitempty"`
	IsAdmin          bool      `json:"is_admin"`
	SubscriptionTier string    `json:"subscription_tier"`
	CreatedAt        time.Time `json:"created_at"`
}

func sanitizeUser(user *models.User) userResponse {
	return userResponse{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		DisplayName:      user.DisplayName,
		Avatar:           user.Avatar,
		IsAdmin:          user.IsAdmin,
		SubscriptionTier: user.SubscriptionTier,
		CreatedAt:        user.CreatedAt,
	}
}

// Register creates an account and immediately opens a session for it.
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration payload"
// @Success 201 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, err.Error())
		return
	}
	if err := utils.ValidateEmail(req.Email); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, err.Error())
		return
	}

	ctx := c.Request.Context()
	if taken, err := h.users.EmailInUse(ctx, req.Email); err != nil {
		log.Printf("❌ Register email check failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Registration failed")
		return
	} else if taken {
		response.Error(c, http.StatusConflict, response.CodeValidationError, "Email is already registered")
		return
	}
	if taken, err := h.users.UsernameInUse(ctx, req.Username); err != nil {
		log.Printf("❌ Register username check failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Registration failed")
		return
	} else if taken {
		response.Error(c, http.StatusConflict, response.CodeValidationError, "Username is already taken")
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Password hashing failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Registration failed")
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := &models.User{
		Username:         req.Username,
		Email:            req.Email,
		Password:         passwordHash,
		DisplayName:      displayName,
		SubscriptionTier: models.TierFree,
		IsActive:         true,
	}
	if err := h.users.Create(ctx, user); err != nil {
		log.Printf("❌ User creation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Registration failed")
		return
	}

	log.Printf("✅ User registered: %s (%d)", user.Username, user.ID)

	expiresAt, err := h.openSession(c, user)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Registration succeeded but login failed")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":       sanitizeUser(user),
		"expires_at": expiresAt,
	})
}

// Login authenticates credentials and opens a new session family. The
// lockout tracker is consulted before any credential work so a locked key
// cannot probe passwords.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	key := utils.LockoutKey(ip, req.Email)

	locked, remaining, err := h.lockout.IsLocked(ctx, key)
	if err != nil {
		log.Printf("⚠️ Lockout check failed for %s: %v", ip, err)
	}
	if locked {
		h.recordAttempt(c, req.Email, false, modelauth.FailureLockedOut)
		response.Throttled(c, response.CodeAccountLocked, "Account temporarily locked. Try again later.", int(remaining.Seconds())+1)
		return
	}

	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		log.Printf("❌ Login lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Login failed")
		return
	}
	if user == nil {
		h.failLogin(c, key, req.Email, modelauth.FailureUserNotFound)
		return
	}
	if !user.IsActive {
		h.failLogin(c, key, req.Email, modelauth.FailureUserInactive)
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		h.failLogin(c, key, req.Email, modelauth.FailureWrongPassword)
		return
	}

	if err := h.lockout.Clear(ctx, key); err != nil {
		log.Printf("⚠️ Lockout clear failed for %s: %v", key, err)
	}
	h.recordAttempt(c, req.Email, true, "")

	expiresAt, err := h.openSession(c, user)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Login failed")
		return
	}

	log.Printf("✅ User logged in: %s from %s", user.Username, ip)
	response.Success(c, http.StatusOK, gin.H{
		"user":       sanitizeUser(user),
		"expires_at": expiresAt,
	})
}

// failLogin records the failure in both the lockout tracker and the audit
// trail, then returns the uniform credential error. The response never
// reveals whether the account exists.
func (h *AuthHandler) failLogin(c *gin.Context, key, email, failureType string) {
	if err := h.lockout.RecordFailure(c.Request.Context(), key); err != nil {
		log.Printf("⚠️ Lockout record failed for %s: %v", key, err)
	}
	h.recordAttempt(c, email, false, failureType)
	response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid email or password")
}

func (h *AuthHandler) recordAttempt(c *gin.Context, email string, successful bool, failureType string) {
	attempt := &modelauth.LoginAttempt{
		Email:       email,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Successful:  successful,
		FailureType: failureType,
	}
	if err := h.attempts.Record(c.Request.Context(), attempt); err != nil {
		log.Printf("⚠️ Login attempt audit failed: %v", err)
	}
}

// openSession mints a fresh session family for the user, persists the hashed
// tokens and sets all three cookies. Returns the session expiry.
func (h *AuthHandler) openSession(c *gin.Context, user *models.User) (time.Time, error) {
	sessionID := uuid.New()
	familyID := uuid.New()
	identity := utils.TokenIdentity{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}

	accessToken, err := utils.GenerateAccessToken(identity, sessionID, familyID)
	if err != nil {
		log.Printf("❌ Access token generation failed: %v", err)
		return time.Time{}, err
	}
	refreshToken, err := utils.GenerateRefreshToken(identity, sessionID, familyID)
	if err != nil {
		log.Printf("❌ Refresh token generation failed: %v", err)
		return time.Time{}, err
	}
	csrfSecret, err := utils.GenerateSessionSecret()
	if err != nil {
		log.Printf("❌ CSRF secret generation failed: %v", err)
		return time.Time{}, err
	}
	csrfToken, err := utils.GenerateCSRFToken(csrfSecret)
	if err != nil {
		log.Printf("❌ CSRF token generation failed: %v", err)
		return time.Time{}, err
	}

	fingerprint := utils.ComputeFingerprint(middleware.FingerprintFromRequest(c), h.cfg.FingerprintIncludeIP)
	expiresAt := time.Now().Add(h.cfg.RefreshTokenDuration())

	session := &modelauth.UserSession{
		ID:               sessionID,
		UserID:           user.ID,
		FamilyID:         familyID,
		TokenHash:        utils.HashToken(accessToken),
		RefreshTokenHash: utils.HashToken(refreshToken),
		CSRFSecret:       csrfSecret,
		Fingerprint:      fingerprint,
		IPAddress:        c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
		IsActive:         true,
		ExpiresAt:        expiresAt,
	}
	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		log.Printf("❌ Session creation failed: %v", err)
		return time.Time{}, err
	}

	h.cookies.SetAuthCookies(c, accessToken, refreshToken, csrfToken)
	return expiresAt, nil
}

// Refresh rotates the token pair inside the current session family. A refresh
// hash that matches a revoked or superseded session is treated as stolen and
// kills the entire family.
// @Summary Refresh the token pair
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(middleware.RefreshCookieName)
	if raw == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Refresh token required")
		return
	}

	claims, err := utils.ValidateToken(raw, utils.TokenTypeRefresh)
	if err != nil {
		switch err {
		case utils.ErrTokenExpired:
			response.Error(c, http.StatusUnauthorized, response.CodeTokenExpired, "Refresh token expired")
		case utils.ErrTokenWrongType:
			response.Error(c, http.StatusUnauthorized, response.CodeTokenWrongType, "Not a refresh token")
		default:
			response.Error(c, http.StatusUnauthorized, response.CodeTokenInvalid, "Invalid refresh token")
		}
		return
	}

	ctx := c.Request.Context()
	session, err := h.sessions.FindByRefreshHash(ctx, utils.HashToken(raw))
	if err != nil {
		log.Printf("❌ Refresh session lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}
	if session == nil {
		// Valid signature but no matching row: the hash was rotated away.
		// Revoke the whole family named in the claims.
		if familyID, parseErr := uuid.Parse(claims.FamilyID); parseErr == nil {
			if revokeErr := h.sessions.RevokeFamily(ctx, familyID, modelauth.RevokeReasonTokenReuse); revokeErr != nil {
				log.Printf("❌ Family revocation failed: %v", revokeErr)
			} else {
				log.Printf("🚨 Refresh token reuse detected for user %d, family %s revoked", claims.UserID, claims.FamilyID)
			}
			h.events.Publish(claims.UserID, services.SecurityEvent{
				Type:      services.EventAllSessionsRevoked,
				Reason:    modelauth.RevokeReasonTokenReuse,
				Message:   "Suspicious token reuse detected. All sessions were signed out.",
				Timestamp: time.Now(),
			})
		}
		h.cookies.ClearAuthCookies(c)
		response.Error(c, http.StatusUnauthorized, response.CodeTokenReused, "Refresh token reuse detected")
		return
	}
	if !session.IsActive {
		if err := h.sessions.RevokeFamily(ctx, session.FamilyID, modelauth.RevokeReasonTokenReuse); err != nil {
			log.Printf("❌ Family revocation failed: %v", err)
		}
		log.Printf("🚨 Revoked refresh token replayed for user %d, family %s revoked", session.UserID, session.FamilyID)
		h.events.Publish(session.UserID, services.SecurityEvent{
			Type:      services.EventAllSessionsRevoked,
			Reason:    modelauth.RevokeReasonTokenReuse,
			Message:   "Suspicious token reuse detected. All sessions were signed out.",
			Timestamp: time.Now(),
		})
		h.cookies.ClearAuthCookies(c)
		response.Error(c, http.StatusUnauthorized, response.CodeTokenReused, "Refresh token reuse detected")
		return
	}
	if time.Now().After(session.ExpiresAt) {
		if err := h.sessions.Revoke(ctx, session.ID, modelauth.RevokeReasonExpired); err != nil {
			log.Printf("⚠️ Session expiry revoke failed: %v", err)
		}
		h.cookies.ClearAuthCookies(c)
		response.Error(c, http.StatusUnauthorized, response.CodeSessionRevoked, "Session expired")
		return
	}

	in := middleware.FingerprintFromRequest(c)
	if !utils.VerifyFingerprint(session.Fingerprint, in, h.cfg.FingerprintIncludeIP) {
		if err := h.sessions.Revoke(ctx, session.ID, modelauth.RevokeReasonFingerprintMismatch); err != nil {
			log.Printf("❌ Session revoke failed: %v", err)
		}
		log.Printf("🚨 Fingerprint mismatch on refresh for session %s", session.ID)
		h.cookies.ClearAuthCookies(c)
		response.Error(c, http.StatusUnauthorized, response.CodeFingerprintMismatch, "Session fingerprint mismatch")
		return
	}

	user, err := h.users.GetActiveByID(ctx, session.UserID)
	if err != nil {
		log.Printf("❌ Refresh user lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}
	if user == nil {
		h.cookies.ClearAuthCookies(c)
		response.Error(c, http.StatusUnauthorized, response.CodeUserNotFound, "User not found or deactivated")
		return
	}

	identity := utils.TokenIdentity{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
	accessToken, err := utils.GenerateAccessToken(identity, session.ID, session.FamilyID)
	if err != nil {
		log.Printf("❌ Access token generation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(identity, session.ID, session.FamilyID)
	if err != nil {
		log.Printf("❌ Refresh token generation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}

	expiresAt := time.Now().Add(h.cfg.RefreshTokenDuration())
	if err := h.sessions.Rotate(ctx, session.ID, utils.HashToken(accessToken), utils.HashToken(refreshToken), expiresAt); err != nil {
		log.Printf("❌ Session rotation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}

	csrfToken, err := utils.GenerateCSRFToken(session.CSRFSecret)
	if err != nil {
		log.Printf("❌ CSRF token generation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Refresh failed")
		return
	}
	h.cookies.SetAuthCookies(c, accessToken, refreshToken, csrfToken)

	response.Success(c, http.StatusOK, gin.H{
		"user":       sanitizeUser(user),
		"expires_at": expiresAt,
	})
}

// Logout revokes the current session if one can be identified and always
// clears the auth cookies. Safe to call with no or stale credentials.
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := middleware.ExtractToken(c)
	if raw != "" {
		if _, err := utils.ValidateToken(raw, utils.TokenTypeAccess); err == nil {
			session, err := h.sessions.FindActiveByTokenHash(c.Request.Context(), utils.HashToken(raw))
			if err == nil && session != nil {
				if err := h.sessions.Revoke(c.Request.Context(), session.ID, modelauth.RevokeReasonLogout); err != nil {
					log.Printf("⚠️ Logout revoke failed: %v", err)
				}
			}
		}
	}
	h.cookies.ClearAuthCookies(c)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// Status reports whether the request carries a valid session. Runs behind
// OptionalAuth so it never rejects.
// @Summary Authentication status
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/status [get]
func (h *AuthHandler) Status(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Success(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"authenticated": true,
		"user":          sanitizeUser(user),
	})
}

// CSRFToken mints a fresh token from the session's secret and re-mirrors it
// into the readable cookie. SPAs call this after a hard reload.
// @Summary Issue a CSRF token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/csrf [get]
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}
	token, err := utils.GenerateCSRFToken(session.CSRFSecret)
	if err != nil {
		log.Printf("❌ CSRF token generation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Token generation failed")
		return
	}
	h.cookies.SetCSRFCookie(c, token)
	response.Success(c, http.StatusOK, gin.H{"csrf_token": token})
}

// Events upgrades the connection to WebSocket for security event delivery.
func (h *AuthHandler) Events(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}
	services.GetEventHub().HandleConnection(c, user.ID)
}
