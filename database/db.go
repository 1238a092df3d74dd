// Package database owns the sqlite connection and the startup schema
// evolution. The store is an explicitly constructed object handed to services,
// not a package-level global; opening is once-guarded so that concurrent first
// callers share a single in-flight initialization.
package database

import (
	"io/fs"
	"os"
	"path"
	"sync"

	"coupon-ui/config"
	"coupon-ui/database/migration"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	path string

	once sync.Once
	db   *gorm.DB
	err  error
}

// New prepares a database handle for the given sqlite file. Nothing is opened
// until Open (or the first DB call) runs.
func New(dbPath string) *Database {
	return &Database{path: dbPath}
}

// Open opens the sqlite store, applies the schema migrations and memoizes the
// result. Safe for concurrent use: every caller during the first open blocks
// on the same initialization and observes the same error.
func (d *Database) Open() error {
	d.once.Do(func() {
		d.db, d.err = openAndMigrate(d.path)
	})
	return d.err
}

// DB returns the underlying gorm handle, opening the store if needed.
func (d *Database) DB() (*gorm.DB, error) {
	if err := d.Open(); err != nil {
		return nil, err
	}
	return d.db, nil
}

// Ping answers the liveness question: did the store answer a trivial query.
func (d *Database) Ping() error {
	db, err := d.DB()
	if err != nil {
		return err
	}
	return db.Exec("SELECT 1").Error
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openAndMigrate(dbPath string) (*gorm.DB, error) {
	if dir := path.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
			return nil, err
		}
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}

	dsn := dbPath + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL"
	db, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, err
	}

	engine := migration.NewEngine(db, migration.All(migration.Defaults{
		TenantSlug: config.GetDefaultTenantSlug(),
		TenantName: config.GetDefaultTenantName(),
	}))
	if err := engine.Run(); err != nil {
		// A partially migrated schema must not serve requests; the caller
		// decides whether to retry or exit.
		return nil, err
	}

	return db, nil
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
