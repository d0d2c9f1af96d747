package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/oerms/oerms-backend/internal/response"
)

// RateLimit limits requests per client IP to limit per window. Rejected
// requests get 429 in the standard envelope.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := httprate.NewRateLimiter(limit, window)

	return func(c *gin.Context) {
		key, err := httprate.KeyByIP(c.Request)
		if err != nil {
			key = c.ClientIP()
		}
		if limiter.OnLimit(c.Writer, c.Request, key) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}
