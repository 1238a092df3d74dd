package service

import (
	"errors"
	"strings"

	"coupon-ui/database"
	"coupon-ui/database/model"

	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCodeTaken        = errors.New("campaign code already used in this tenant")
)

type CampaignService struct {
	DB *gorm.DB
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{DB: db}
}

// Create adds a campaign. The code only has to be unique within the tenant;
// another tenant may use the same one. The composite unique index backs the
// explicit check against concurrent creates.
func (s *CampaignService) Create(tenantId int64, code, name string, discount int) (*model.Campaign, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("campaign code required")
	}

	var count int64
	err := s.DB.Model(&model.Campaign{}).
		Where("tenant_id = ? AND code = ?", tenantId, code).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrCodeTaken
	}

	campaign := &model.Campaign{
		TenantId: tenantId,
		Code:     code,
		Name:     name,
		Discount: discount,
		Active:   true,
	}
	if err := s.DB.Create(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) List(tenantId int64) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := s.DB.Where("tenant_id = ?", tenantId).Order("id ASC").Find(&campaigns).Error
	return campaigns, err
}

// FindByCode looks a campaign up within one tenant.
func (s *CampaignService) FindByCode(tenantId int64, code string) (*model.Campaign, error) {
	var campaign model.Campaign
	err := s.DB.Where("tenant_id = ? AND code = ?", tenantId, code).First(&campaign).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}
