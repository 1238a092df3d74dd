package service

import (
	"errors"

	"coupon-ui/database/model"
	"coupon-ui/util/crypto"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrFirstAdminProtected = errors.New("the first admin of a tenant cannot be demoted or deleted")
)

// UserService manages the principals of one tenant. Every query is scoped by
// tenant id; cross-tenant access is impossible through this service.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

func (s *UserService) List(tenantId int64) ([]model.AuthUser, error) {
	var users []model.AuthUser
	err := s.DB.Where("tenant_id = ?", tenantId).Order("id ASC").Find(&users).Error
	return users, err
}

func (s *UserService) Create(tenantId int64, username, password string, role model.Role) (*model.AuthUser, error) {
	if role == model.RoleSuperAdmin || !role.Valid() {
		return nil, errors.New("invalid role for tenant user")
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}
	user := &model.AuthUser{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		TenantId:     &tenantId,
		Active:       true,
	}
	if err := s.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole changes a user's role. The tenant's first admin keeps its role:
// not even the first admin itself may change it.
func (s *UserService) UpdateRole(tenantId, userId int64, role model.Role) error {
	if role == model.RoleSuperAdmin || !role.Valid() {
		return errors.New("invalid role for tenant user")
	}
	user, err := s.get(tenantId, userId)
	if err != nil {
		return err
	}
	first, err := s.firstAdminId(tenantId)
	if err != nil {
		return err
	}
	if user.Id == first && role != model.RoleAdmin {
		return ErrFirstAdminProtected
	}
	user.Role = role
	return s.DB.Save(user).Error
}

func (s *UserService) ResetPassword(tenantId, userId int64, password string) error {
	user, err := s.get(tenantId, userId)
	if err != nil {
		return err
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.DB.Save(user).Error
}

func (s *UserService) Delete(tenantId, userId int64) error {
	user, err := s.get(tenantId, userId)
	if err != nil {
		return err
	}
	first, err := s.firstAdminId(tenantId)
	if err != nil {
		return err
	}
	if user.Id == first {
		return ErrFirstAdminProtected
	}
	return s.DB.Delete(user).Error
}

func (s *UserService) get(tenantId, userId int64) (*model.AuthUser, error) {
	var user model.AuthUser
	err := s.DB.Where("id = ? AND tenant_id = ?", userId, tenantId).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// firstAdminId is the earliest-created admin of the tenant.
func (s *UserService) firstAdminId(tenantId int64) (int64, error) {
	var user model.AuthUser
	err := s.DB.Where("tenant_id = ? AND role = ?", tenantId, model.RoleAdmin).
		Order("id ASC").First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return user.Id, nil
}
