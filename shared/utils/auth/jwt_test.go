package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"astraldraft-backend/shared/config"
)

func testIdentity() TokenIdentity {
	return TokenIdentity{
		UserID:      42,
		Username:    "gridiron_gary",
		Email:       "gary@example.com",
		DisplayName: "Gridiron Gary",
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	sessionID := uuid.New()
	familyID := uuid.New()

	token, err := GenerateAccessToken(testIdentity(), sessionID, familyID)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	claims, err := ValidateToken(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user 42, got %d", claims.UserID)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("expected access type, got %q", claims.TokenType)
	}
	if claims.SessionID != sessionID.String() {
		t.Fatalf("session id mismatch: %q vs %q", claims.SessionID, sessionID)
	}
	if claims.FamilyID != familyID.String() {
		t.Fatalf("family id mismatch: %q vs %q", claims.FamilyID, familyID)
	}
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	token, err := GenerateRefreshToken(testIdentity(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	if _, err := ValidateToken(token, TokenTypeAccess); err != ErrTokenWrongType {
		t.Fatalf("expected ErrTokenWrongType, got %v", err)
	}
	if _, err := ValidateToken(token, TokenTypeRefresh); err != nil {
		t.Fatalf("refresh token should validate as refresh: %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(testIdentity(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered, TokenTypeAccess); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for tampered token, got %v", err)
	}

	if _, err := ValidateToken("not-a-jwt", TokenTypeAccess); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserID:    42,
		TokenType: TokenTypeAccess,
		SessionID: uuid.New().String(),
		FamilyID:  uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.GetConfig().JWTSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := ValidateToken(signed, TokenTypeAccess); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSigningKey(t *testing.T) {
	now := time.Now()
	claims := Claims{
		UserID:    42,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := ValidateToken(signed, TokenTypeAccess); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}
