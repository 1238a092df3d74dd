package service

import (
	"coupon-ui/database"
	"coupon-ui/database/model"
	"coupon-ui/logger"
	"coupon-ui/util/crypto"

	"gorm.io/gorm"
)

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// CheckUser verifies the credentials and returns the user, or nil on any
// failure. Inactive principals never authenticate.
func (s *AuthService) CheckUser(username, password string) *model.AuthUser {
	var user model.AuthUser
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if !database.IsNotFound(err) {
			logger.Warning("checking user:", err)
		}
		return nil
	}
	if !user.Active {
		return nil
	}
	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil
	}
	return &user
}

// TenantSlugFor returns the slug of the user's tenant, or "" for tenantless
// principals (superadmins). Used when writing session claims at login.
func (s *AuthService) TenantSlugFor(user *model.AuthUser) (string, error) {
	if user.TenantId == nil {
		return "", nil
	}
	var tenant model.Tenant
	if err := s.DB.First(&tenant, *user.TenantId).Error; err != nil {
		return "", err
	}
	return tenant.Slug, nil
}
