package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oerms/oerms-backend/internal/response"
	"github.com/rs/zerolog"
)

// AccessLog writes one structured line per request. Query strings are not
// logged since they may carry tokens.
func AccessLog(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}

		if p := GetPrincipal(c); p != nil {
			ev = ev.Str("principal_id", p.ID.String()).Str("role", string(p.Role))
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.Str("request_id", response.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
