package service

import (
	"errors"
	"time"

	"coupon-ui/database"
	"coupon-ui/database/model"
	"coupon-ui/util/random"
	"coupon-ui/web/limiter"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponRedeemed = errors.New("coupon already redeemed")
	ErrCampaignClosed = errors.New("campaign is not active")
)

// displayCodeLen is short enough to read off a printed voucher.
const displayCodeLen = 8

type CouponService struct {
	DB        *gorm.DB
	Campaigns *CampaignService
}

func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{DB: db, Campaigns: NewCampaignService(db)}
}

// Claim issues a coupon for the campaign to the given email, inside the
// resolved tenant only. Admission control has already run by the time this is
// called.
func (s *CouponService) Claim(tenant *TenantContext, campaignCode, email string) (*model.Coupon, error) {
	campaign, err := s.Campaigns.FindByCode(tenant.TenantId, campaignCode)
	if err != nil {
		return nil, err
	}
	if !campaign.Active {
		return nil, ErrCampaignClosed
	}

	coupon := &model.Coupon{
		TenantId:    tenant.TenantId,
		CampaignId:  campaign.Id,
		Uuid:        uuid.NewString(),
		DisplayCode: random.Seq(displayCodeLen),
		Email:       limiter.NormalizeEmail(email),
	}
	if err := s.DB.Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}

// Redeem marks a coupon used. Scoped by tenant: a coupon uuid from another
// tenant is simply not found.
func (s *CouponService) Redeem(tenantId int64, couponUuid string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.DB.Where("tenant_id = ? AND uuid = ?", tenantId, couponUuid).First(&coupon).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if coupon.RedeemedAt != nil {
		return nil, ErrCouponRedeemed
	}
	now := time.Now()
	coupon.RedeemedAt = &now
	if err := s.DB.Save(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (s *CouponService) List(tenantId int64) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := s.DB.Where("tenant_id = ?", tenantId).Order("id ASC").Find(&coupons).Error
	return coupons, err
}
