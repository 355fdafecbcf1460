package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"astraldraft-backend/shared/config"
	modelauth "astraldraft-backend/shared/database/models/auth"
	utils "astraldraft-backend/shared/utils/auth"
	"astraldraft-backend/shared/utils/response"

	"astraldraft-backend/auth-service/middleware"
	"astraldraft-backend/auth-service/services"
)

type ProfileHandler struct {
	users    UserStore
	sessions SessionStore
	avatars  *services.AvatarService
	events   EventPublisher
	cfg      *config.Config
}

func NewProfileHandler(users UserStore, sessions SessionStore, avatars *services.AvatarService, events EventPublisher) *ProfileHandler {
	return &ProfileHandler{
		users:    users,
		sessions: sessions,
		avatars:  avatars,
		events:   events,
		cfg:      config.GetConfig(),
	}
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=100"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// GetProfile returns the authenticated user's own record.
// @Summary Get own profile
// @Tags profile
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	payload := gin.H{"user": sanitizeUser(user)}
	if user.Avatar != "" && h.avatars != nil {
		url, err := h.avatars.PresignedURL(c.Request.Context(), user.Avatar, time.Hour)
		if err != nil {
			log.Printf("⚠️ Avatar URL generation failed for user %d: %v", user.ID, err)
		} else {
			payload["avatar_url"] = url
		}
	}
	response.Success(c, http.StatusOK, payload)
}

// UpdateProfile changes the display name.
// @Summary Update own profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Profile payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), user.ID, req.DisplayName); err != nil {
		log.Printf("❌ Profile update failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Profile update failed")
		return
	}

	user.DisplayName = req.DisplayName
	response.Success(c, http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every other session of the user. The current session stays alive.
// @Summary Change password
// @Tags profile
// @Accept json
// @Produce json
// @Param request body changePasswordRequest true "Password payload"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	user := middleware.UserFromContext(c)
	session := middleware.SessionFromContext(c)
	if user == nil || session == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Invalid request body")
		return
	}

	if !utils.CheckPasswordHash(req.CurrentPassword, user.Password) {
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "Current password is incorrect")
		return
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, err.Error())
		return
	}
	if req.NewPassword == req.CurrentPassword {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "New password must differ from the current one")
		return
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("❌ Password hashing failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Password change failed")
		return
	}

	ctx := c.Request.Context()
	if err := h.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		log.Printf("❌ Password update failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Password change failed")
		return
	}
	if err := h.sessions.RevokeAllForUserExcept(ctx, user.ID, session.ID, modelauth.RevokeReasonPasswordChange); err != nil {
		log.Printf("⚠️ Session sweep after password change failed for user %d: %v", user.ID, err)
	}

	h.events.Publish(user.ID, services.SecurityEvent{
		Type:      services.EventPasswordChanged,
		Reason:    modelauth.RevokeReasonPasswordChange,
		Message:   "Password changed. Other sessions were signed out.",
		Timestamp: time.Now(),
	})

	log.Printf("✅ Password changed for user %d, other sessions revoked", user.ID)
	response.Message(c, http.StatusOK, "Password changed successfully")
}

// UploadAvatar stores a new avatar image and records its object key.
// @Summary Upload avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeTokenMissing, "Authentication required")
		return
	}
	if h.avatars == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalError, "Avatar storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Avatar file is required")
		return
	}
	if fileHeader.Size > h.cfg.AvatarMaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeValidationError, "Avatar file is too large")
		return
	}
	if _, err := services.ValidateAvatarFilename(fileHeader.Filename); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidationError, "Could not read avatar file")
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	objectKey, err := h.avatars.Upload(ctx, user.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		log.Printf("❌ Avatar upload failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Avatar upload failed")
		return
	}
	if err := h.users.UpdateAvatar(ctx, user.ID, objectKey); err != nil {
		log.Printf("❌ Avatar record update failed for user %d: %v", user.ID, err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "Avatar upload failed")
		return
	}

	url, err := h.avatars.PresignedURL(ctx, objectKey, time.Hour)
	if err != nil {
		log.Printf("⚠️ Avatar URL generation failed: %v", err)
	}

	log.Printf("✅ Avatar updated for user %d", user.ID)
	response.Success(c, http.StatusOK, gin.H{
		"avatar":     objectKey,
		"avatar_url": url,
	})
}
