package middleware

import (
	"net/http"
	"strings"

	"coupon-ui/database/model"
	"coupon-ui/logger"
	"coupon-ui/web/session"

	"github.com/gin-gonic/gin"
)

// RoleRequired enforces the role hierarchy: superadmin satisfies everything,
// admin satisfies admin and store, store only store. Unauthenticated requests
// are redirected to login on page routes and answered 401 on ajax/API routes.
// They are never silently treated as the default tenant.
func RoleRequired(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := session.GetPrincipal(c)
		if p == nil {
			if isAjax(c) {
				c.AbortWithStatus(http.StatusUnauthorized)
			} else {
				c.Redirect(http.StatusTemporaryRedirect, "/")
				c.Abort()
			}
			return
		}
		if !p.Role().Satisfies(required) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// SameTenantRequired enforces the isolation invariant: the session principal's
// tenant must match the resolved tenant context. Superadmins pass every tenant
// check. On a slug mismatch the request is redirected to the principal's own
// slugged path, so a stale link neither serves another tenant's data nor
// flatly fails.
func SameTenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := session.GetPrincipal(c)
		tenant := TenantFromContext(c)
		if p == nil || tenant == nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if p.Role() == model.RoleSuperAdmin {
			c.Next()
			return
		}
		if id := p.TenantID(); id != nil && *id == tenant.TenantId {
			c.Next()
			return
		}
		if p.TenantSlug() == tenant.Slug {
			c.Next()
			return
		}
		if p.TenantSlug() != "" {
			target := reslugPath(c.Request.URL.Path, tenant.Slug, p.TenantSlug())
			logger.Warningf("tenant mismatch for %s: %s resolved, redirecting to own path",
				p.Username(), tenant.Slug)
			c.Redirect(http.StatusTemporaryRedirect, target)
			c.Abort()
			return
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}

// reslugPath swaps the /t/<slug> segment of a path for the principal's own.
func reslugPath(path, from, to string) string {
	prefix := "/t/" + from
	if strings.HasPrefix(path, prefix) {
		return "/t/" + to + strings.TrimPrefix(path, prefix)
	}
	return "/t/" + to + "/panel/"
}

func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}
