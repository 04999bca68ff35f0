package server

import (
	"github.com/gin-gonic/gin"
)

// rateLimit throttles write endpoints through the shared POS limiter.
// Without Redis the limiter degrades to allow-all, so a single-terminal
// venue never sees a 429.
func (s *Server) rateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		allowed, err := s.limiter.AllowEndpoint(c.Request.Context(), endpoint)
		if err != nil {
			// Redis hiccups fail open.
			c.Next()
			return
		}
		if !allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), endpoint)
			}
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
