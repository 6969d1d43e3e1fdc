package db

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: core tables
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&User{},
					&Game{},
					&GameDecision{},
					&Feedback{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("users", "games", "decisions", "feedback")
			},
		},

		// Migration 002: durable session mirror
		{
			ID: "002_active_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&ActiveSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("active_sessions")
			},
		},
	})

	return m.Migrate()
}
