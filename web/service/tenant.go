// Package service implements the business-facing operations of the panel:
// tenant resolution, authentication, principal management and the minimal
// campaign/coupon surface the guards protect.
package service

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"coupon-ui/database"
	"coupon-ui/database/model"
	"coupon-ui/util/crypto"
	"coupon-ui/web/session"

	"gorm.io/gorm"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrSlugTaken      = errors.New("tenant slug already taken")
	ErrInvalidSlug    = errors.New("invalid tenant slug")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,31}$`)

// TenantContext identifies the tenant a request is acting on. Produced fresh
// per request, never persisted.
type TenantContext struct {
	TenantId int64
	Slug     string
}

type TenantService struct {
	DB *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{DB: db}
}

// ResolveSlug looks a path slug up in the store.
func (s *TenantService) ResolveSlug(slug string) (*TenantContext, error) {
	var tenant model.Tenant
	err := s.DB.Where("slug = ?", slug).First(&tenant).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &TenantContext{TenantId: tenant.Id, Slug: tenant.Slug}, nil
}

// ResolveLegacy resolves the tenant for non-path-scoped requests: from the
// session claims when a principal is logged in, otherwise by best-effort
// parsing of the Referer header. The referer fallback exists only for
// read-only public endpoints reached from slugged pages.
func (s *TenantService) ResolveLegacy(p session.Principal, referer string) (*TenantContext, error) {
	if p != nil && p.TenantID() != nil {
		return &TenantContext{TenantId: *p.TenantID(), Slug: p.TenantSlug()}, nil
	}
	if slug := slugFromReferer(referer); slug != "" {
		return s.ResolveSlug(slug)
	}
	return nil, ErrTenantNotFound
}

// slugFromReferer extracts the tenant slug from a referer like
// https://host/t/acme/claim. Returns "" when the URL carries none.
func slugFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "t" && slugPattern.MatchString(parts[1]) {
		return parts[1]
	}
	return ""
}

// Signup creates a tenant together with its first admin in one transaction.
// The first admin is protected from demotion and deletion from then on.
func (s *TenantService) Signup(slug, displayName, username, password string) (*model.Tenant, *model.AuthUser, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, nil, ErrInvalidSlug
	}

	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, nil, err
	}

	tenant := &model.Tenant{Slug: slug, DisplayName: displayName}
	admin := &model.AuthUser{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Active:       true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tenant{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		admin.TenantId = &tenant.Id
		return tx.Create(admin).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return tenant, admin, nil
}
