package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET,POST,OPTIONS"
	corsAllowHeaders = "Content-Type, X-Request-Id"
	corsMaxAge       = "600"
)

// corsPolicy decides which browser origins may call the analysis API.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func newCORSPolicy(allowed []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[o] = struct{}{}
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin.
func (p corsPolicy) allowOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if p.anyOrigin {
		return "*", true
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", false
}

// CORS sets CORS headers and answers preflight requests with 204.
// A "*" entry allows every origin without credentials.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)

	return func(c *gin.Context) {
		if value, ok := policy.allowOrigin(c.GetHeader("Origin")); ok {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", value)
			if value != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", "X-Request-Id")
			h.Set("Access-Control-Max-Age", corsMaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
