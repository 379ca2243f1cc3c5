package database

import (
	"fmt"
	"log"
	"os"

	"membership-app/internal/domain/classes"
	"membership-app/internal/domain/members"
	"membership-app/internal/domain/memberships"
	"membership-app/internal/domain/plans"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB opens the postgres connection and migrates all domain models. The
// handle is returned so billing components get it injected; DB stays set for
// the plain request handlers.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		// core
		&members.Member{},
		&members.VerificationToken{},
		&plans.Plan{},

		// billing ledger
		&memberships.Membership{},
		&memberships.Payment{},
		&memberships.CustomerMapping{},

		// content
		&classes.GymClass{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
	return db
}
