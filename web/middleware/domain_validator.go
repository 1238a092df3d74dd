package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DomainValidator rejects requests whose Host does not match the configured
// panel domain. Disabled when no domain is configured.
func DomainValidator(domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}
		if host != domain {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
