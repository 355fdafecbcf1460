package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	modelauth "astraldraft-backend/shared/database/models/auth"
	"astraldraft-backend/shared/utils/query"
	"astraldraft-backend/shared/utils/response"

	"astraldraft-backend/auth-service/middleware"
	"astraldraft-backend/auth-service/services"
)

type SessionHandler struct {
	sessions SessionStore
	attempts AttemptStore
	events   EventPublisher
}

func NewSessionHandler(sessions SessionStore, attempts AttemptStore, events EventPublisher) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		attempts: attempts,
		events:   events,
	}
}

// SessionResponse represents a user session in the response
type SessionResponse struct {
	ID               uuid.UUID  `json:"id"`
	DeviceInfo       string     `json:"device_info"`
	IPAddress        string     `json:"ip_address"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	CreatedAt        time.Time  `json:"created_at"`
	IsCurrentSession bool       `json:"is_current_session"`
}

// LoginHistoryResponse represents a login history entry in the response
type LoginHistoryResponse struct {
	ID          uuid.UUID `json:"id"`
	IPAddress   string    `json:"ip_address"`
	DeviceInfo  string    `json:"device_info"`
	Successful  bool      `json:"successful"`
	FailureType string    `json:"failure_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListSessions lists all active sessions of the authenticated user and marks
// the one serving this request.
// @Summary List user sessions
// @Tags sessions
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 10)"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	user := middleware.UserFromContext(c)
	current := middleware.SessionFromContext(c)
	if user == nil || current == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	params := query.ParseQueryParams(c)
	sessions, total, err := h.sessions.ListActiveByUser(c.Request.Context(), user.ID, params)
	if err != nil {
		log.Printf("❌ Session listing failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Failed to retrieve sessions")
		return
	}

	items := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, SessionResponse{
			ID:               session.ID,
			DeviceInfo:       parseUserAgent(session.UserAgent),
			IPAddress:        session.IPAddress,
			LastUsedAt:       session.LastUsedAt,
			CreatedAt:        session.CreatedAt,
			IsCurrentSession: session.ID == current.ID,
		})
	}

	response.Success(c, http.StatusOK, gin.H{
		"items":      items,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}

// TerminateSession revokes one of the user's other sessions by ID.
// @Summary Terminate a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/sessions/{id} [delete]
func (h *SessionHandler) TerminateSession(c *gin.Context) {
	user := middleware.UserFromContext(c)
	current := middleware.SessionFromContext(c)
	if user == nil || current == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Invalid session ID")
		return
	}
	if sessionID == current.ID {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Cannot terminate the current session; use logout")
		return
	}

	ctx := c.Request.Context()
	session, err := h.sessions.FindByIDAndUser(ctx, sessionID, user.ID)
	if err != nil {
		log.Printf("❌ Session lookup failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Failed to terminate session")
		return
	}
	if session == nil || !session.IsActive {
		response.Error(c, http.StatusNotFound, response.CodeValidationError, "Session not found")
		return
	}

	if err := h.sessions.Revoke(ctx, session.ID, modelauth.RevokeReasonUserTerminated); err != nil {
		log.Printf("❌ Session revoke failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Failed to terminate session")
		return
	}

	h.events.Publish(user.ID, services.SecurityEvent{
		Type:      services.EventSessionRevoked,
		SessionID: session.ID.String(),
		Reason:    modelauth.RevokeReasonUserTerminated,
		Message:   "A session was terminated from another device.",
		Timestamp: time.Now(),
	})

	log.Printf("✅ Session %s terminated by user %d", session.ID, user.ID)
	response.Message(c, http.StatusOK, "Session terminated")
}

// TerminateAllSessions revokes every session of the user except the current
// one.
// @Summary Terminate all other sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/sessions [delete]
func (h *SessionHandler) TerminateAllSessions(c *gin.Context) {
	user := middleware.UserFromContext(c)
	current := middleware.SessionFromContext(c)
	if user == nil || current == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	if err := h.sessions.RevokeAllForUserExcept(c.Request.Context(), user.ID, current.ID, modelauth.RevokeReasonUserTerminated); err != nil {
		log.Printf("❌ Session sweep failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Failed to terminate sessions")
		return
	}

	h.events.Publish(user.ID, services.SecurityEvent{
		Type:      services.EventAllSessionsRevoked,
		Reason:    modelauth.RevokeReasonUserTerminated,
		Message:   "All other sessions were signed out.",
		Timestamp: time.Now(),
	})

	log.Printf("✅ All other sessions terminated for user %d", user.ID)
	response.Message(c, http.StatusOK, "All other sessions terminated")
}

// GetLoginHistory lists the authentication audit trail for the user's email.
// @Summary Login history
// @Tags sessions
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 10)"
// @Param filters[from_date] query string false "RFC3339 lower bound"
// @Param filters[to_date] query string false "RFC3339 upper bound"
// @Param filters[successful] query boolean false "Filter by outcome"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/login-history [get]
func (h *SessionHandler) GetLoginHistory(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	params := query.ParseQueryParams(c)
	attempts, total, err := h.attempts.ListByEmail(c.Request.Context(), user.Email, params)
	if err != nil {
		log.Printf("❌ Login history query failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Failed to retrieve login history")
		return
	}

	items := make([]LoginHistoryResponse, 0, len(attempts))
	for _, attempt := range attempts {
		items = append(items, LoginHistoryResponse{
			ID:          attempt.ID,
			IPAddress:   attempt.IPAddress,
			DeviceInfo:  parseUserAgent(attempt.UserAgent),
			Successful:  attempt.Successful,
			FailureType: attempt.FailureType,
			CreatedAt:   attempt.CreatedAt,
		})
	}

	response.Success(c, http.StatusOK, gin.H{
		"items":      items,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}

// parseUserAgent extracts useful device info from user agent string
func parseUserAgent(userAgent string) string {
	if userAgent == "" {
		return "Unknown"
	}

	if strings.Contains(userAgent, "iPhone") || strings.Contains(userAgent, "iPad") {
		return "iOS Device"
	} else if strings.Contains(userAgent, "Android") {
		return "Android Device"
	} else if strings.Contains(userAgent, "Windows") {
		return "Windows"
	} else if strings.Contains(userAgent, "Mac") {
		return "MacOS"
	} else if strings.Contains(userAgent, "Linux") {
		return "Linux"
	}

	return "Other"
}
