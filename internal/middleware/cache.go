package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses as publicly cacheable for maxAgeSeconds.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore forbids caching of authenticated responses.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
