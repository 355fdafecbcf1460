package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"astraldraft-backend/shared/config"
)

// Cookie names shared between handlers and middleware
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
	CSRFCookieName    = "csrf_token"

	// RefreshCookiePath restricts the refresh token to the one endpoint
	// that needs it.
	RefreshCookiePath = "/api/auth/refresh"
)

// CookieManager centralizes the cookie policy: auth tokens are HttpOnly,
// the CSRF mirror is deliberately not, so browser JavaScript can replay it
// in the X-CSRF-Token header.
type CookieManager struct {
	domain        string
	secure        bool
	accessMaxAge  int
	refreshMaxAge int
	csrfMaxAge    int
}

func NewCookieManager(cfg *config.Config) *CookieManager {
	return &CookieManager{
		domain:        cfg.CookieDomain,
		secure:        cfg.IsProduction(),
		accessMaxAge:  cfg.AccessCookieMaxAge,
		refreshMaxAge: cfg.RefreshCookieMaxAge,
		csrfMaxAge:    cfg.CSRFCookieMaxAge,
	}
}

// SetAuthCookies sets all three cookies after login or refresh.
func (m *CookieManager) SetAuthCookies(c *gin.Context, accessToken, refreshToken, csrfToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookieName, accessToken, m.accessMaxAge, "/", m.domain, m.secure, true)
	c.SetCookie(RefreshCookieName, refreshToken, m.refreshMaxAge, RefreshCookiePath, m.domain, m.secure, true)
	c.SetCookie(CSRFCookieName, csrfToken, m.csrfMaxAge, "/", m.domain, m.secure, false)
}

// SetCSRFCookie refreshes only the CSRF mirror cookie.
func (m *CookieManager) SetCSRFCookie(c *gin.Context, csrfToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CSRFCookieName, csrfToken, m.csrfMaxAge, "/", m.domain, m.secure, false)
}

// ClearAuthCookies expires all three cookies. Safe to call when none are
// set, which keeps logout idempotent.
func (m *CookieManager) ClearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookieName, "", -1, "/", m.domain, m.secure, true)
	c.SetCookie(RefreshCookieName, "", -1, RefreshCookiePath, m.domain, m.secure, true)
	c.SetCookie(CSRFCookieName, "", -1, "/", m.domain, m.secure, false)
}
