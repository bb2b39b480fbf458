package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieOptions controls how token cookies are written.
// Secure cookies are cross-site (SameSite=None); others are Lax.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func (o CookieOptions) SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(o.sameSite())
	c.SetCookie(AccessCookie, accessToken, int(o.AccessTTL.Seconds()), "/", "", o.Secure, true)
	c.SetCookie(RefreshCookie, refreshToken, int(o.RefreshTTL.Seconds()), "/", "", o.Secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func (o CookieOptions) ClearTokenCookies(c *gin.Context) {
	c.SetSameSite(o.sameSite())
	c.SetCookie(AccessCookie, "", -1, "/", "", o.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", o.Secure, true)
}
