package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"medrec/internal/auth"
)

const claimsKey = "claims"

// Authenticator turns a raw bearer token into claims.
type Authenticator interface {
	Authenticate(raw string) (auth.Claims, error)
}

// RequireToken rejects requests without a valid bearer token. When allowed is
// non-empty the token must also belong to one of those subject types. The
// claims are stored on the gin context and on the request context.
func RequireToken(a Authenticator, allowed ...auth.SubjectType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}
		claims, err := a.Authenticate(raw)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		if len(allowed) > 0 && !slices.Contains(allowed, claims.SubjectType) {
			unauthorized(c, "token is not valid for this resource")
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// GetClaims returns the claims stored by RequireToken.
func GetClaims(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="medrec"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}
