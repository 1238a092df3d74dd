package controller

import (
	"net/http"

	"coupon-ui/database/model"
	"coupon-ui/web/limiter"
	"coupon-ui/web/middleware"
	"coupon-ui/web/service"

	"github.com/gin-gonic/gin"
)

// PanelController serves the tenant-scoped routes under /t/:slug. Admin routes
// sit behind the role and tenant guards; the claim endpoint is public behind
// submission admission.
type PanelController struct {
	BaseController

	campaignService *service.CampaignService
	couponService   *service.CouponService
	userService     *service.UserService
	admission       *limiter.Admission
}

func NewPanelController(g *gin.RouterGroup, campaigns *service.CampaignService,
	coupons *service.CouponService, users *service.UserService, admission *limiter.Admission,
) *PanelController {
	a := &PanelController{
		campaignService: campaigns,
		couponService:   coupons,
		userService:     users,
		admission:       admission,
	}
	a.initRouter(g)
	return a
}

func (a *PanelController) initRouter(g *gin.RouterGroup) {
	// Public, admission-controlled.
	g.POST("/claim", middleware.SubmissionAdmission(a.admission), a.claim)

	admin := g.Group("/panel")
	admin.Use(a.checkLogin)
	admin.Use(middleware.SameTenantRequired())

	store := admin.Group("")
	store.Use(middleware.RoleRequired(model.RoleStore))
	store.GET("/campaigns", a.listCampaigns)
	store.GET("/coupons", a.listCoupons)
	store.POST("/coupons/:uuid/redeem", a.redeemCoupon)

	manage := admin.Group("")
	manage.Use(middleware.RoleRequired(model.RoleAdmin))
	manage.POST("/campaigns", a.createCampaign)
	manage.GET("/users", a.listUsers)
	manage.POST("/users", a.createUser)
	manage.POST("/users/:id/role", a.updateUserRole)
	manage.POST("/users/:id/delete", a.deleteUser)
}

// InitLegacyRouter registers the read-only public endpoints kept on the
// pre-slug routing scheme. The legacy tenant resolver (session claims, then
// referer) must already be installed on the group.
func (a *PanelController) InitLegacyRouter(g *gin.RouterGroup) {
	g.GET("/campaigns", a.publicCampaigns)
}

// publicCampaigns lists the active campaigns of the resolved tenant.
func (a *PanelController) publicCampaigns(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	campaigns, err := a.campaignService.List(tenant.TenantId)
	if err != nil {
		jsonMsg(c, "list campaigns", err)
		return
	}
	active := make([]gin.H, 0, len(campaigns))
	for _, campaign := range campaigns {
		if campaign.Active {
			active = append(active, gin.H{"code": campaign.Code, "name": campaign.Name, "discount": campaign.Discount})
		}
	}
	jsonObj(c, active, nil)
}

// ClaimForm is the public coupon claim request.
type ClaimForm struct {
	Campaign string `json:"campaign" form:"campaign"`
	Email    string `json:"email" form:"email"`
}

func (a *PanelController) claim(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	if tenant == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	var form ClaimForm
	if err := c.ShouldBind(&form); err != nil || form.Campaign == "" || form.Email == "" {
		pureJsonMsg(c, http.StatusOK, false, "campaign and email are required")
		return
	}
	coupon, err := a.couponService.Claim(tenant, form.Campaign, form.Email)
	if err != nil {
		jsonMsg(c, "claim coupon", err)
		return
	}
	jsonObj(c, gin.H{"coupon": coupon.Uuid}, nil)
}

type CampaignForm struct {
	Code     string `json:"code" form:"code"`
	Name     string `json:"name" form:"name"`
	Discount int    `json:"discount" form:"discount"`
}

func (a *PanelController) createCampaign(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	var form CampaignForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	campaign, err := a.campaignService.Create(tenant.TenantId, form.Code, form.Name, form.Discount)
	if err != nil {
		jsonMsg(c, "create campaign", err)
		return
	}
	jsonObj(c, campaign, nil)
}

func (a *PanelController) listCampaigns(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	campaigns, err := a.campaignService.List(tenant.TenantId)
	jsonObj(c, campaigns, err)
}

func (a *PanelController) listCoupons(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	coupons, err := a.couponService.List(tenant.TenantId)
	jsonObj(c, coupons, err)
}

func (a *PanelController) redeemCoupon(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	coupon, err := a.couponService.Redeem(tenant.TenantId, c.Param("uuid"))
	if err != nil {
		jsonMsg(c, "redeem coupon", err)
		return
	}
	jsonObj(c, coupon, nil)
}

type UserForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Role     string `json:"role" form:"role"`
}

func (a *PanelController) listUsers(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	users, err := a.userService.List(tenant.TenantId)
	jsonObj(c, users, err)
}

func (a *PanelController) createUser(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	var form UserForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	user, err := a.userService.Create(tenant.TenantId, form.Username, form.Password, model.Role(form.Role))
	if err != nil {
		jsonMsg(c, "create user", err)
		return
	}
	jsonObj(c, user, nil)
}

func (a *PanelController) updateUserRole(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	var form UserForm
	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	id, ok := paramId(c)
	if !ok {
		return
	}
	err := a.userService.UpdateRole(tenant.TenantId, id, model.Role(form.Role))
	jsonMsg(c, "update role", err)
}

func (a *PanelController) deleteUser(c *gin.Context) {
	tenant := middleware.TenantFromContext(c)
	id, ok := paramId(c)
	if !ok {
		return
	}
	err := a.userService.Delete(tenant.TenantId, id)
	jsonMsg(c, "delete user", err)
}
