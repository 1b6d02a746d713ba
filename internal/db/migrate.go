package db

import (
	"fundchain_ledger/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/postgres" // Postgres driver for GORM
	"gorm.io/gorm"            // GORM ORM library
)

// Migrate performs automatic migration for the database schema and seeds
// the platform wallet singleton
func Migrate(dsn string) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Wallet{},
		&domain.PlatformWallet{},
		&domain.Campaign{},
		&domain.CampaignWallet{},
		&domain.CampaignUpdate{},
		&domain.Milestone{},
		&domain.Investment{},
		&domain.MilestoneVote{},
		&domain.TokenTransaction{},
		&domain.IdempotencyRecord{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	// The platform wallet is a single row every coordinator touches
	if err := db.FirstOrCreate(&domain.PlatformWallet{}, domain.PlatformWallet{ID: 1}).Error; err != nil {
		logrus.Fatalf("platform wallet seed failed: %v", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
}
