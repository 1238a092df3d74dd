package migration

import (
	"fmt"

	"coupon-ui/database/model"
	"coupon-ui/logger"

	"gorm.io/gorm"
)

// Defaults carries the bootstrap tenant every pre-multi-tenancy row is
// assigned to during backfill.
type Defaults struct {
	TenantSlug string
	TenantName string
}

// tenantOwned lists the tables whose rows belong to a tenant. auth_users is
// handled separately: superadmins legitimately have no tenant.
var tenantOwned = []string{"campaigns", "coupons", "custom_fields", "products", "email_templates"}

// All returns the ordered migration list. Each step is idempotent on its own,
// so a run interrupted between steps is repaired by the next process start.
func All(defaults Defaults) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create base tables",
			Apply:       createBaseTables,
		},
		{
			Version:     2,
			Description: "ensure default tenant",
			Apply: func(db *gorm.DB) error {
				return ensureDefaultTenant(db, defaults)
			},
		},
		{
			Version:     3,
			Description: "add and backfill tenant ownership",
			Apply: func(db *gorm.DB) error {
				return backfillTenantOwnership(db, defaults)
			},
		},
		{
			Version:     4,
			Description: "scope campaign codes per tenant",
			Apply: func(db *gorm.DB) error {
				return retargetUniqueIndex(db, "campaigns", "code", campaignRewrite(),
					`CREATE UNIQUE INDEX IF NOT EXISTS "idx_campaigns_tenant_code" ON "campaigns"("tenant_id","code")`)
			},
		},
		{
			Version:     5,
			Description: "scope product skus per tenant",
			Apply: func(db *gorm.DB) error {
				return retargetUniqueIndex(db, "products", "sku", productRewrite(),
					`CREATE UNIQUE INDEX IF NOT EXISTS "idx_products_tenant_sku" ON "products"("tenant_id","sku")`)
			},
		},
		{
			Version:     6,
			Description: "add coupon display codes",
			Apply:       addCouponDisplayCode,
		},
	}
}

// addCouponDisplayCode adds the printable code column to stores created before
// it existed. Old coupons keep an empty code; only new claims get one.
func addCouponDisplayCode(db *gorm.DB) error {
	exists, err := columnExists(db, "coupons", "display_code")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return db.Exec(`ALTER TABLE "coupons" ADD COLUMN display_code text`).Error
}

// createBaseTables creates every missing table. Tables that already exist are
// left untouched: their shape is corrected by the later, explicit steps rather
// than by a blanket auto-migration that could fail on populated tables.
func createBaseTables(db *gorm.DB) error {
	models := []any{
		&model.Tenant{},
		&model.AuthUser{},
		&model.Campaign{},
		&model.Coupon{},
		&model.CustomField{},
		&model.Product{},
		&model.EmailTemplate{},
	}
	for _, m := range models {
		if db.Migrator().HasTable(m) {
			continue
		}
		if err := db.Migrator().CreateTable(m); err != nil {
			return err
		}
	}
	return nil
}

func ensureDefaultTenant(db *gorm.DB, defaults Defaults) error {
	tenant := model.Tenant{Slug: defaults.TenantSlug, DisplayName: defaults.TenantName}
	return db.Where(model.Tenant{Slug: defaults.TenantSlug}).FirstOrCreate(&tenant).Error
}

// backfillTenantOwnership adds the tenant_id column where it is missing and
// assigns ownerless rows to the default tenant. The COALESCE form keeps the
// step re-runnable: a tenant assignment made by a later, more specific step is
// never overwritten.
func backfillTenantOwnership(db *gorm.DB, defaults Defaults) error {
	var tenant model.Tenant
	if err := db.Where("slug = ?", defaults.TenantSlug).First(&tenant).Error; err != nil {
		return fmt.Errorf("default tenant %q missing: %w", defaults.TenantSlug, err)
	}

	for _, table := range tenantOwned {
		if err := ensureTenantColumn(db, table); err != nil {
			return err
		}
		err := db.Exec(
			fmt.Sprintf(`UPDATE %q SET tenant_id = COALESCE(tenant_id, ?)`, table),
			tenant.Id,
		).Error
		if err != nil {
			return fmt.Errorf("backfill %s: %w", table, err)
		}
	}

	// Principals: superadmins stay tenantless, everyone else joins the
	// default tenant.
	if err := ensureTenantColumn(db, "auth_users"); err != nil {
		return err
	}
	return db.Exec(
		`UPDATE "auth_users" SET tenant_id = COALESCE(tenant_id, ?) WHERE role <> ?`,
		tenant.Id, model.RoleSuperAdmin,
	).Error
}

func ensureTenantColumn(db *gorm.DB, table string) error {
	exists, err := columnExists(db, table, "tenant_id")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return db.Exec(
		fmt.Sprintf(`ALTER TABLE %q ADD COLUMN tenant_id integer REFERENCES "tenants"("id")`, table),
	).Error
}

// retargetUniqueIndex moves a natural key's uniqueness from global scope to
// (tenant_id, column). A leftover global unique index is actively dropped: a
// plain index with DROP INDEX, a table-level UNIQUE constraint via shadow
// rewrite since sqlite cannot alter it in place.
func retargetUniqueIndex(db *gorm.DB, table, column string, rewrite RewriteTable, compositeIndexSQL string) error {
	idx, err := globalUniqueIndex(db, table, column)
	if err != nil {
		return err
	}
	if idx != nil {
		if idx.Origin == "c" {
			logger.Infof("dropping global unique index %s on %s.%s", idx.Name, table, column)
			if err := db.Exec(fmt.Sprintf("DROP INDEX %q", idx.Name)).Error; err != nil {
				return err
			}
		} else {
			logger.Infof("rewriting %s to drop inline unique constraint on %s", table, column)
			if err := rewrite.Apply(db); err != nil {
				return err
			}
		}
	}
	return db.Exec(compositeIndexSQL).Error
}

func campaignRewrite() RewriteTable {
	return RewriteTable{
		Table: "campaigns",
		CreateSQL: `CREATE TABLE "campaigns_new" (
			"id" integer PRIMARY KEY AUTOINCREMENT,
			"tenant_id" integer NOT NULL REFERENCES "tenants"("id"),
			"code" text NOT NULL,
			"name" text,
			"discount" integer,
			"active" numeric DEFAULT true
		)`,
		CopySQL: `INSERT INTO "campaigns_new" ("id","tenant_id","code","name","discount","active")
			SELECT "id","tenant_id","code","name","discount","active" FROM "campaigns"`,
		Indexes: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_campaigns_tenant_code" ON "campaigns"("tenant_id","code")`,
		},
	}
}

func productRewrite() RewriteTable {
	return RewriteTable{
		Table: "products",
		CreateSQL: `CREATE TABLE "products_new" (
			"id" integer PRIMARY KEY AUTOINCREMENT,
			"tenant_id" integer NOT NULL REFERENCES "tenants"("id"),
			"name" text NOT NULL,
			"sku" text NOT NULL
		)`,
		CopySQL: `INSERT INTO "products_new" ("id","tenant_id","name","sku")
			SELECT "id","tenant_id","name","sku" FROM "products"`,
		Indexes: []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_products_tenant_sku" ON "products"("tenant_id","sku")`,
		},
	}
}
