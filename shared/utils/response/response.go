package response

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes shared across the auth layer. Clients branch
// on these, never on the human-readable message.
const (
	CodeTokenMissing        = "TOKEN_MISSING"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeTokenWrongType      = "TOKEN_WRONG_TYPE"
	CodeTokenReused         = "TOKEN_REUSED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeSessionRevoked      = "SESSION_REVOKED"
	CodeFingerprintMismatch = "SESSION_FINGERPRINT_MISMATCH"
	CodeCSRFFailed          = "CSRF_VALIDATION_FAILED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeAccountLocked       = "ACCOUNT_LOCKED"
	CodeAdminRequired       = "ADMIN_REQUIRED"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Error writes the fixed error envelope and aborts the chain.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// Throttled writes a 429 envelope with a retry hint in both the body and the
// Retry-After header.
func Throttled(c *gin.Context, code, message string, retryAfterSeconds int) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.AbortWithStatusJSON(429, gin.H{
		"success":     false,
		"error":       message,
		"code":        code,
		"retry_after": retryAfterSeconds,
	})
}

// Success writes a success envelope with an optional payload.
func Success(c *gin.Context, status int, data interface{}) {
	body := gin.H{"success": true}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Message writes a success envelope carrying only a message.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
	})
}
