package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsMiddleware adds permissive CORS headers to every response and
// terminates preflight requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware checks the inbound API key against the configured list.
// Keys arrive as a bearer token or an x-api-key header (the Anthropic
// client convention).
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if key == "" || key == c.GetHeader("Authorization") {
			key = c.GetHeader("x-api-key")
		}
		if !s.cfg.Load().AllowKey(key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid api key", "type": "authentication_error"},
			})
			return
		}
		c.Next()
	}
}

// promptCacheRequested reports the prompt-caching opt-in signal: the
// X-Prompt-Cache header on the request, or the config-wide default.
func (s *Server) promptCacheRequested(c *gin.Context) bool {
	switch strings.ToLower(c.GetHeader("X-Prompt-Cache")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return s.cfg.Load().PromptCache
}
