package controller

import (
	"net/http"

	"coupon-ui/logger"
	"coupon-ui/web/limiter"
	"coupon-ui/web/middleware"
	"coupon-ui/web/service"
	"coupon-ui/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SignupForm creates a tenant together with its first admin.
type SignupForm struct {
	Slug        string `json:"slug" form:"slug"`
	DisplayName string `json:"displayName" form:"displayName"`
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	Email       string `json:"email" form:"email"`
}

// IndexController handles login, logout, signup and the liveness endpoint.
type IndexController struct {
	BaseController

	authService   *service.AuthService
	tenantService *service.TenantService
	admission     *limiter.Admission
	pingStore     func() error
}

func NewIndexController(g *gin.RouterGroup, auth *service.AuthService, tenants *service.TenantService,
	admission *limiter.Admission, pingStore func() error,
) *IndexController {
	a := &IndexController{
		authService:   auth,
		tenantService: tenants,
		admission:     admission,
		pingStore:     pingStore,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/logout", a.logout)
	g.GET("/health", a.health)

	g.POST("/login", middleware.LoginAdmission(a.admission), a.login)
	g.POST("/signup", middleware.SubmissionAdmission(a.admission), a.signup)
}

func (a *IndexController) index(c *gin.Context) {
	if p := session.GetPrincipal(c); p != nil && p.TenantSlug() != "" {
		c.Redirect(http.StatusTemporaryRedirect, "/t/"+p.TenantSlug()+"/panel/")
		return
	}
	pureJsonMsg(c, http.StatusOK, true, "please log in")
}

// login authenticates the principal. Admission control has already admitted
// the origin; credential failures are counted here so only real failures
// escalate toward a lockout.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Username == "" || form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "username and password are required")
		return
	}

	// The same key the admission middleware checked, so failures counted here
	// feed the lockout it enforces.
	origin := c.ClientIP()
	user := a.authService.CheckUser(form.Username, form.Password)
	if user == nil {
		a.admission.LoginFailed(origin)
		logger.Warningf("wrong credentials for %q, IP: %q", form.Username, origin)
		pureJsonMsg(c, http.StatusOK, false, "wrong username or password")
		return
	}
	a.admission.LoginSucceeded(origin)

	slug, err := a.authService.TenantSlugFor(user)
	if err != nil {
		jsonMsg(c, "login", err)
		return
	}

	// Regenerate before writing claims. A session-store hiccup here is a
	// worse failure than the small fixation window, so login proceeds in a
	// degraded session.
	if err := session.Regenerate(c); err != nil {
		logger.Warning("unable to regenerate session:", err)
	}
	if err := session.SetPrincipal(c, session.ForUser(user, slug)); err != nil {
		jsonMsg(c, "login", err)
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", form.Username, origin)
	jsonObj(c, gin.H{"tenantSlug": slug}, nil)
}

func (a *IndexController) logout(c *gin.Context) {
	if p := session.GetPrincipal(c); p != nil {
		logger.Infof("%s logged out", p.Username())
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	c.Redirect(http.StatusTemporaryRedirect, "/")
}

// signup creates a tenant and its first admin. It is a public submission
// endpoint, so the admission middleware counts every attempt.
func (a *IndexController) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Slug == "" || form.Username == "" || form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "slug, username and password are required")
		return
	}

	tenant, admin, err := a.tenantService.Signup(form.Slug, form.DisplayName, form.Username, form.Password)
	if err != nil {
		jsonMsg(c, "signup", err)
		return
	}
	logger.Infof("tenant %s created with first admin %s", tenant.Slug, admin.Username)
	jsonObj(c, gin.H{"tenantSlug": tenant.Slug}, nil)
}

// health answers whether the store responds to a trivial query.
func (a *IndexController) health(c *gin.Context) {
	if err := a.pingStore(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
