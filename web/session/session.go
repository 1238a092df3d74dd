// Package session manages the login session claims. Each role has its own
// claim struct carrying exactly the fields that role needs; handlers consume
// them through the Principal interface.
package session

import (
	"encoding/gob"

	"coupon-ui/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie issued to the browser.
const CookieName = "coupon-ui"

const principalKey = "LOGIN_PRINCIPAL"

// Principal is the minimal claim set written at login. No business data is
// cached in the session.
type Principal interface {
	UserID() int64
	Username() string
	Role() model.Role
	// TenantID is nil for superadmins, which satisfy every tenant check.
	TenantID() *int64
	TenantSlug() string
}

// SuperAdminSession carries no tenant: a superadmin is not bound to one.
type SuperAdminSession struct {
	Id   int64
	Name string
}

func (s SuperAdminSession) UserID() int64      { return s.Id }
func (s SuperAdminSession) Username() string   { return s.Name }
func (s SuperAdminSession) Role() model.Role   { return model.RoleSuperAdmin }
func (s SuperAdminSession) TenantID() *int64   { return nil }
func (s SuperAdminSession) TenantSlug() string { return "" }

type AdminSession struct {
	Id     int64
	Name   string
	Tenant int64
	Slug   string
}

func (s AdminSession) UserID() int64      { return s.Id }
func (s AdminSession) Username() string   { return s.Name }
func (s AdminSession) Role() model.Role   { return model.RoleAdmin }
func (s AdminSession) TenantID() *int64   { return &s.Tenant }
func (s AdminSession) TenantSlug() string { return s.Slug }

type StoreSession struct {
	Id     int64
	Name   string
	Tenant int64
	Slug   string
}

func (s StoreSession) UserID() int64      { return s.Id }
func (s StoreSession) Username() string   { return s.Name }
func (s StoreSession) Role() model.Role   { return model.RoleStore }
func (s StoreSession) TenantID() *int64   { return &s.Tenant }
func (s StoreSession) TenantSlug() string { return s.Slug }

func init() {
	gob.Register(SuperAdminSession{})
	gob.Register(AdminSession{})
	gob.Register(StoreSession{})
}

// ForUser builds the claim struct matching the user's role. tenantSlug is
// ignored for superadmins.
func ForUser(user *model.AuthUser, tenantSlug string) Principal {
	var tenant int64
	if user.TenantId != nil {
		tenant = *user.TenantId
	}
	switch user.Role {
	case model.RoleSuperAdmin:
		return SuperAdminSession{Id: user.Id, Name: user.Username}
	case model.RoleAdmin:
		return AdminSession{Id: user.Id, Name: user.Username, Tenant: tenant, Slug: tenantSlug}
	default:
		return StoreSession{Id: user.Id, Name: user.Username, Tenant: tenant, Slug: tenantSlug}
	}
}

// Regenerate discards any existing session state and issues a fresh cookie
// before claims are written, closing the fixation window.
func Regenerate(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
	})
	return s.Save()
}

// SetPrincipal writes the login claims into the session.
func SetPrincipal(c *gin.Context, p Principal) error {
	s := sessions.Default(c)
	s.Set(principalKey, p)
	return s.Save()
}

// GetPrincipal returns the session claims, or nil when not logged in.
func GetPrincipal(c *gin.Context) Principal {
	s := sessions.Default(c)
	obj := s.Get(principalKey)
	if obj == nil {
		return nil
	}
	switch p := obj.(type) {
	case SuperAdminSession:
		return p
	case AdminSession:
		return p
	case StoreSession:
		return p
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetPrincipal(c) != nil
}

// ClearSession destroys the session and expires its cookie.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	return nil
}
