// Package migration evolves a live, already-populated sqlite store at process
// start. Migrations are an ordered list of versioned, individually idempotent
// steps; a version is recorded only once all of its work succeeded, so a crash
// mid-version is repaired by the next run.
package migration

import (
	"sort"
	"time"

	"coupon-ui/database/model"
	"coupon-ui/logger"
	"coupon-ui/util/common"

	"gorm.io/gorm"
)

// Migration is one versioned schema change. Apply must be idempotent: the
// engine may re-run it after a failed attempt that never recorded the version.
type Migration struct {
	Version     int
	Description string
	Apply       func(db *gorm.DB) error
}

type Engine struct {
	db         *gorm.DB
	migrations []Migration
}

func NewEngine(db *gorm.DB, migrations []Migration) *Engine {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return &Engine{db: db, migrations: sorted}
}

// Run applies every migration whose version is not yet recorded. Foreign-key
// enforcement is suspended for the duration of the bulk steps and re-enabled
// unconditionally before Run returns, even when a step fails.
func (e *Engine) Run() (err error) {
	if err := e.db.AutoMigrate(&model.SchemaMigration{}); err != nil {
		return common.NewErrorf("migration tracking table: %v", err)
	}

	applied, err := e.appliedVersions()
	if err != nil {
		return err
	}

	if err := e.db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return err
	}
	defer func() {
		if fkErr := e.db.Exec("PRAGMA foreign_keys = ON").Error; fkErr != nil && err == nil {
			err = fkErr
		}
	}()

	for _, m := range e.migrations {
		if applied[m.Version] {
			continue
		}
		logger.Infof("applying schema migration %d: %s", m.Version, m.Description)
		if err := m.Apply(e.db); err != nil {
			return common.NewErrorf("schema migration %d (%s): %v", m.Version, m.Description, err)
		}
		record := model.SchemaMigration{Version: m.Version, AppliedAt: time.Now()}
		if err := e.db.Create(&record).Error; err != nil {
			return common.NewErrorf("recording schema migration %d: %v", m.Version, err)
		}
	}
	return nil
}

func (e *Engine) appliedVersions() (map[int]bool, error) {
	var records []model.SchemaMigration
	if err := e.db.Find(&records).Error; err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(records))
	for _, r := range records {
		applied[r.Version] = true
	}
	return applied, nil
}
