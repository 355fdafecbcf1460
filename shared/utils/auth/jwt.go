package utils

import (
	"errors"
	"time"

	"astraldraft-backend/shared/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the claims
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Verification failure classes. Callers map these onto the wire error codes
// so a client can tell "refresh silently" from "log in again".
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenWrongType = errors.New("token type mismatch")
)

type Claims struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	TokenType   string `json:"token_type"`
	SessionID   string `json:"session_id"`
	FamilyID    string `json:"family_id"`
	jwt.RegisteredClaims
}

// TokenIdentity is the subset of the user record encoded into tokens.
type TokenIdentity struct {
	UserID      uint
	Username    string
	Email       string
	DisplayName string
}

func jwtSecret() []byte {
	return []byte(config.GetConfig().JWTSecret)
}

// GenerateAccessToken mints a short-lived access token bound to a session.
func GenerateAccessToken(id TokenIdentity, sessionID, familyID uuid.UUID) (string, error) {
	return generateToken(id, sessionID, familyID, TokenTypeAccess, config.GetConfig().AccessTokenDuration())
}

// GenerateRefreshToken mints a long-lived refresh token in the same family.
func GenerateRefreshToken(id TokenIdentity, sessionID, familyID uuid.UUID) (string, error) {
	return generateToken(id, sessionID, familyID, TokenTypeRefresh, config.GetConfig().RefreshTokenDuration())
}

func generateToken(id TokenIdentity, sessionID, familyID uuid.UUID, tokenType string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      id.UserID,
		Username:    id.Username,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		TokenType:   tokenType,
		SessionID:   sessionID.String(),
		FamilyID:    familyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ValidateToken checks signature, expiry and token type. An access token
// presented where a refresh token is expected (or vice versa) fails with
// ErrTokenWrongType even though the signature is good.
func ValidateToken(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret(), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != expectedType {
		return nil, ErrTokenWrongType
	}

	return claims, nil
}
