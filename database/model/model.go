// Package model defines the persistent entities of the coupon panel. Every
// business entity carries a TenantId; isolation between tenants relies on that
// column being present and populated on every row.
package model

import "time"

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleStore      Role = "store"
)

// Satisfies reports whether a principal holding this role passes a check that
// requires the given role. Higher roles satisfy lower requirements.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return required == RoleAdmin || required == RoleStore
	case RoleStore:
		return required == RoleStore
	}
	return false
}

func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleStore
}

// Tenant is an isolated customer organization. The slug is immutable and used
// in path-scoped routing.
type Tenant struct {
	Id          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	DisplayName string `json:"displayName" gorm:"not null"`
}

func (Tenant) TableName() string { return "tenants" }

// AuthUser is an authenticatable principal. TenantId is nil only for
// superadmins, which are not bound to any tenant.
type AuthUser struct {
	Id           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"column:password_hash;not null"`
	Role         Role   `json:"role" gorm:"not null"`
	TenantId     *int64 `json:"tenantId" gorm:"index"`
	Active       bool   `json:"active"`
}

func (AuthUser) TableName() string { return "auth_users" }

// Campaign groups coupons under a human-chosen code. The code is unique per
// tenant, not globally: two tenants may pick the same code.
type Campaign struct {
	Id       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantId int64  `json:"tenantId" gorm:"uniqueIndex:idx_campaigns_tenant_code;not null"`
	Code     string `json:"code" gorm:"uniqueIndex:idx_campaigns_tenant_code;not null"`
	Name     string `json:"name"`
	Discount int    `json:"discount"`
	Active   bool   `json:"active"`
}

func (Campaign) TableName() string { return "campaigns" }

// Coupon is a single claimed voucher. The uuid is the redemption handle; the
// display code is what gets printed on the voucher itself.
type Coupon struct {
	Id          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantId    int64      `json:"tenantId" gorm:"index;not null"`
	CampaignId  int64      `json:"campaignId" gorm:"index;not null"`
	Uuid        string     `json:"uuid" gorm:"uniqueIndex;not null"`
	DisplayCode string     `json:"displayCode" gorm:"column:display_code"`
	Email       string     `json:"email" gorm:"index"`
	RedeemedAt  *time.Time `json:"redeemedAt"`
}

func (Coupon) TableName() string { return "coupons" }

// CustomField is an extra form field a campaign collects at claim time.
type CustomField struct {
	Id         int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantId   int64  `json:"tenantId" gorm:"index;not null"`
	CampaignId int64  `json:"campaignId" gorm:"index;not null"`
	Name       string `json:"name" gorm:"not null"`
	Kind       string `json:"kind"`
}

func (CustomField) TableName() string { return "custom_fields" }

type Product struct {
	Id       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantId int64  `json:"tenantId" gorm:"uniqueIndex:idx_products_tenant_sku;not null"`
	Name     string `json:"name" gorm:"not null"`
	Sku      string `json:"sku" gorm:"uniqueIndex:idx_products_tenant_sku;not null"`
}

func (Product) TableName() string { return "products" }

// EmailTemplate stores the per-tenant mail bodies. Rendering and sending live
// outside this core.
type EmailTemplate struct {
	Id       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantId int64  `json:"tenantId" gorm:"index;not null"`
	Name     string `json:"name" gorm:"not null"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

// SchemaMigration records an applied migration version. Absence of a version
// means not yet applied.
type SchemaMigration struct {
	Version   int       `json:"version" gorm:"primaryKey"`
	AppliedAt time.Time `json:"appliedAt"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }
