package migration

import (
	"fmt"

	"gorm.io/gorm"
)

// RewriteTable performs a shadow-table rewrite: the constraint changes sqlite's
// ALTER dialect cannot express (uniqueness scope changes, column drops) are
// done by creating a table with the desired final shape, copying every row,
// dropping the old table and renaming the new one into place.
//
// CreateSQL must create the shadow table under ShadowName(). CopySQL must be an
// INSERT ... SELECT from the old table into the shadow. Indexes are recreated
// after the swap. The whole sequence runs in one transaction; the engine keeps
// foreign-key enforcement off around it.
type RewriteTable struct {
	Table     string
	CreateSQL string
	CopySQL   string
	Indexes   []string
}

func (r RewriteTable) ShadowName() string {
	return r.Table + "_new"
}

func (r RewriteTable) Apply(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(r.CreateSQL).Error; err != nil {
			return fmt.Errorf("create shadow table for %s: %w", r.Table, err)
		}
		if err := tx.Exec(r.CopySQL).Error; err != nil {
			return fmt.Errorf("copy rows into %s: %w", r.ShadowName(), err)
		}
		if err := tx.Exec(fmt.Sprintf("DROP TABLE %q", r.Table)).Error; err != nil {
			return fmt.Errorf("drop %s: %w", r.Table, err)
		}
		if err := tx.Exec(fmt.Sprintf("ALTER TABLE %q RENAME TO %q", r.ShadowName(), r.Table)).Error; err != nil {
			return fmt.Errorf("rename %s: %w", r.ShadowName(), err)
		}
		for _, idx := range r.Indexes {
			if err := tx.Exec(idx).Error; err != nil {
				return fmt.Errorf("recreate index on %s: %w", r.Table, err)
			}
		}
		return nil
	})
}
