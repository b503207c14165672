package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/server/respond"
)

const (
	// ClientTokenCookie names the cookie carrying the anonymous client token.
	ClientTokenCookie = "hr_token"
	clientTokenKey    = "clientToken"
	clientTokenMaxAge = 365 * 24 * 60 * 60
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ClientToken ensures every request carries an hr_token cookie and stores the
// token in the gin context. Malformed cookies are replaced.
func ClientToken(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(ClientTokenCookie)
		if err != nil || !tokenPattern.MatchString(token) {
			token, err = NewClientToken()
			if err != nil {
				respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientTokenCookie, token, clientTokenMaxAge, "/", "", secure, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// NewClientToken returns 16 random bytes hex encoded.
func NewClientToken() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// ClientTokenFromContext fetches the token set by the ClientToken middleware.
func ClientTokenFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientTokenKey)
	if token, ok := val.(string); ok {
		return token
	}
	return ""
}
