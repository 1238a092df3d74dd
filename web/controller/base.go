// Package controller provides the HTTP request handlers of the coupon panel:
// login and signup on the legacy routes, and the tenant-scoped panel and
// public claim endpoints under /t/:slug.
package controller

import (
	"net/http"

	"coupon-ui/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides the authentication check shared by all controllers.
type BaseController struct{}

// checkLogin verifies the session and handles unauthorized access: ajax
// callers get a 401, page requests are redirected to the login page.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, "please log in again")
		} else {
			c.Redirect(http.StatusTemporaryRedirect, "/")
		}
		c.Abort()
	} else {
		c.Next()
	}
}
