package httpapi

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cartshare-backend/internal/auth"
)

const identityKey = "identity"

// tokenCookie is the fallback carrier for browser clients that cannot
// set an Authorization header.
const tokenCookie = "token"

// RequireAuth is the guard in front of every protected route. A request
// without a token is unauthenticated (401); a request whose token fails
// verification (bad signature, expired, unparseable) is forbidden
// (403). On success the verified identity is placed in the gin context
// for the handler.
func RequireAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing token"})
			return
		}
		identity, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(403, gin.H{"error": err.Error()})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(tokenCookie); err == nil {
		return cookie
	}
	return ""
}

// identityFrom pulls the guard-injected identity. A protected handler
// running without one is a wiring bug and fatal to the request.
func identityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		c.AbortWithStatusJSON(401, gin.H{"error": "unauthenticated"})
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	if !ok {
		c.AbortWithStatusJSON(401, gin.H{"error": "unauthenticated"})
		return auth.Identity{}, false
	}
	return id, true
}

// RequestLogger tags each request with an id and logs method, path,
// status and latency.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)
		c.Next()
		logger.Info("request",
			"id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
