// README: Firebase bearer-token auth; stores the resolved caller for handlers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"unirides/internal/infra"
	"unirides/internal/modules/user"
)

const ctxCaller = "caller"

var ErrNoCaller = errors.New("no authenticated caller")

// Auth rejects requests without a valid Firebase ID token. A genuine token
// with an unrecognised role is refused with 403.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		ref, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(raw))
		switch {
		case errors.Is(err, user.ErrUnknownKind):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown caller role"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxCaller, ref)
		c.Next()
	}
}

// CallerRef returns the user set by Auth.
func CallerRef(c *gin.Context) (user.Ref, error) {
	v, ok := c.Get(ctxCaller)
	if !ok {
		return user.Ref{}, ErrNoCaller
	}
	ref, ok := v.(user.Ref)
	if !ok || ref.ID == "" {
		return user.Ref{}, ErrNoCaller
	}
	return ref, nil
}

func CallerUID(c *gin.Context) string {
	ref, _ := CallerRef(c)
	return string(ref.ID)
}

func CallerRole(c *gin.Context) user.Kind {
	ref, _ := CallerRef(c)
	return ref.Kind
}
