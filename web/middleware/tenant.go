package middleware

import (
	"net/http"

	"coupon-ui/logger"
	"coupon-ui/web/service"
	"coupon-ui/web/session"

	"github.com/gin-gonic/gin"
)

const tenantContextKey = "TENANT_CONTEXT"

// TenantResolver resolves the tenant from the :slug path segment and stores
// the context for downstream handlers. An unknown slug is a 404: it must not
// fall through to the default tenant.
func TenantResolver(tenants *service.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		tenant, err := tenants.ResolveSlug(slug)
		if err != nil {
			if err == service.ErrTenantNotFound {
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
			logger.Warning("resolving tenant slug:", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

// LegacyTenantResolver serves the pre-slug routing scheme: the tenant comes
// from the session claims, or from the Referer for sessionless public reads.
func LegacyTenantResolver(tenants *service.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := session.GetPrincipal(c)
		tenant, err := tenants.ResolveLegacy(p, c.GetHeader("Referer"))
		if err != nil {
			if err == service.ErrTenantNotFound {
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
			logger.Warning("resolving legacy tenant:", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

// TenantFromContext returns the context set by one of the resolvers, or nil.
func TenantFromContext(c *gin.Context) *service.TenantContext {
	if v, ok := c.Get(tenantContextKey); ok {
		if tenant, ok := v.(*service.TenantContext); ok {
			return tenant
		}
	}
	return nil
}
