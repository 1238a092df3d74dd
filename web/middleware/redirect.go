package middleware

import (
	"net/http"
	"strings"

	"coupon-ui/web/session"

	"github.com/gin-gonic/gin"
)

// LegacyPanelRedirect moves requests for the old global panel paths onto the
// principal's slugged path. Sessionless requests fall through to the usual
// login gate.
func LegacyPanelRedirect() gin.HandlerFunc {
	legacyPrefixes := []string{"/panel", "/admin"}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range legacyPrefixes {
			if !strings.HasPrefix(path, prefix) {
				continue
			}
			p := session.GetPrincipal(c)
			if p == nil || p.TenantSlug() == "" {
				break
			}
			newPath := "/t/" + p.TenantSlug() + "/panel" + strings.TrimPrefix(path, prefix)
			c.Redirect(http.StatusMovedPermanently, newPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
