package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"astraldraft-backend/shared/database/models"
	modelauth "astraldraft-backend/shared/database/models/auth"
	utils "astraldraft-backend/shared/utils/auth"
	"astraldraft-backend/shared/utils/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUserLoader struct {
	user *models.User
	err  error
}

func (s *stubUserLoader) GetActiveByID(_ context.Context, _ uint) (*models.User, error) {
	return s.user, s.err
}

type stubSessionGuard struct {
	session       *modelauth.UserSession
	err           error
	revoked       []uuid.UUID
	revokeReasons []string
	touched       []uuid.UUID
}

func (s *stubSessionGuard) FindActiveByTokenHash(_ context.Context, tokenHash string) (*modelauth.UserSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.session == nil || s.session.TokenHash != tokenHash {
		return nil, nil
	}
	return s.session, nil
}

func (s *stubSessionGuard) Revoke(_ context.Context, sessionID uuid.UUID, reason string) error {
	s.revoked = append(s.revoked, sessionID)
	s.revokeReasons = append(s.revokeReasons, reason)
	return nil
}

func (s *stubSessionGuard) Touch(_ context.Context, sessionID uuid.UUID) error {
	s.touched = append(s.touched, sessionID)
	return nil
}

const (
	testUserAgent = "Mozilla/5.0 (X11; Linux x86_64)"
	testLanguage  = "en-US,en;q=0.9"
	testEncoding  = "gzip, deflate, br"
)

func applyClientHeaders(req *http.Request) {
	req.Header.Set("User-Agent", testUserAgent)
	req.Header.Set("Accept-Language", testLanguage)
	req.Header.Set("Accept-Encoding", testEncoding)
}

// newAuthFixture builds a user, a live session and a matching access token.
func newAuthFixture(t *testing.T) (*models.User, *modelauth.UserSession, string) {
	t.Helper()

	user := &models.User{
		ID:       42,
		Username: "gridiron_gary",
		Email:    "gary@example.com",
		IsActive: true,
	}

	sessionID := uuid.New()
	familyID := uuid.New()
	token, err := utils.GenerateAccessToken(utils.TokenIdentity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, sessionID, familyID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	fingerprint := utils.ComputeFingerprint(utils.FingerprintInput{
		UserAgent:      testUserAgent,
		AcceptLanguage: testLanguage,
		AcceptEncoding: testEncoding,
	}, false)

	session := &modelauth.UserSession{
		ID:          sessionID,
		UserID:      user.ID,
		FamilyID:    familyID,
		TokenHash:   utils.HashToken(token),
		Fingerprint: fingerprint,
		IsActive:    true,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	return user, session, token
}

func newAuthRouter(m *AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
		user := UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
	})
	router.GET("/optional", m.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": UserFromContext(c) == nil})
	})
	router.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Success {
		t.Fatal("error envelope must carry success=false")
	}
	return envelope.Code
}

func TestRequireAuthMissingToken(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{}, &stubSessionGuard{}, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeTokenMissing {
		t.Fatalf("expected %s, got %s", response.CodeTokenMissing, code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{}, &stubSessionGuard{}, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeTokenInvalid {
		t.Fatalf("expected %s, got %s", response.CodeTokenInvalid, code)
	}
}

func TestRequireAuthWrongTokenType(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{}, &stubSessionGuard{}, false))

	refresh, err := utils.GenerateRefreshToken(utils.TokenIdentity{UserID: 42}, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeTokenWrongType {
		t.Fatalf("expected %s, got %s", response.CodeTokenWrongType, code)
	}
}

func TestRequireAuthRevokedSession(t *testing.T) {
	user, _, token := newAuthFixture(t)
	// Guard has no matching session row for this token.
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{user: user}, &stubSessionGuard{}, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeSessionRevoked {
		t.Fatalf("expected %s, got %s", response.CodeSessionRevoked, code)
	}
}

func TestRequireAuthFingerprintMismatchRevokesSession(t *testing.T) {
	user, session, token := newAuthFixture(t)
	guard := &stubSessionGuard{session: session}
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{user: user}, guard, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	req.Header.Set("User-Agent", "curl/8.5.0") // different client
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeFingerprintMismatch {
		t.Fatalf("expected %s, got %s", response.CodeFingerprintMismatch, code)
	}
	if len(guard.revoked) != 1 || guard.revoked[0] != session.ID {
		t.Fatalf("expected session %s revoked, got %v", session.ID, guard.revoked)
	}
	if guard.revokeReasons[0] != modelauth.RevokeReasonFingerprintMismatch {
		t.Fatalf("unexpected revoke reason %q", guard.revokeReasons[0])
	}
}

func TestRequireAuthDeactivatedUser(t *testing.T) {
	_, session, token := newAuthFixture(t)
	// Loader returns nothing: account deleted or deactivated.
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{}, &stubSessionGuard{session: session}, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeUserNotFound {
		t.Fatalf("expected %s, got %s", response.CodeUserNotFound, code)
	}
}

func TestRequireAuthSuccessSetsContextAndTouches(t *testing.T) {
	user, session, token := newAuthFixture(t)
	guard := &stubSessionGuard{session: session}
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{user: user}, guard, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserID uint `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != user.ID {
		t.Fatalf("expected user %d on context, got %d", user.ID, body.UserID)
	}
	if len(guard.touched) != 1 || guard.touched[0] != session.ID {
		t.Fatalf("expected session %s touched, got %v", session.ID, guard.touched)
	}
}

func TestRequireAuthAcceptsCookieToken(t *testing.T) {
	user, session, token := newAuthFixture(t)
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{user: user}, &stubSessionGuard{session: session}, false))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: token})
	applyClientHeaders(req)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d: %s", w.Code, w.Body.String())
	}
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(&stubUserLoader{}, &stubSessionGuard{}, false))

	for _, header := range []string{"", "Bearer garbage"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("optional auth must pass through, got %d", w.Code)
		}
		var body struct {
			Anonymous bool `json:"anonymous"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if !body.Anonymous {
			t.Fatal("request without valid credentials should be anonymous")
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	user, session, token := newAuthFixture(t)
	loader := &stubUserLoader{user: user}
	router := newAuthRouter(NewAuthMiddleware(loader, &stubSessionGuard{session: session}, false))

	// Plain user is rejected.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeAdminRequired {
		t.Fatalf("expected %s, got %s", response.CodeAdminRequired, code)
	}

	// Flagged admin passes.
	user.IsAdmin = true
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	applyClientHeaders(req)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

func TestExtractTokenPrefersCookie(t *testing.T) {
	router := gin.New()
	var got string
	router.GET("/", func(c *gin.Context) {
		got = ExtractToken(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if got != "cookie-token" {
		t.Fatalf("expected cookie token to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if got != "header-token" {
		t.Fatalf("expected header fallback, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	router.ServeHTTP(httptest.NewRecorder(), req)
	if got != "" {
		t.Fatalf("non-bearer scheme should yield nothing, got %q", got)
	}
}
