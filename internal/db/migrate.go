package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the PostgreSQL connection, retrying a few times so the
// database container has time to come up.
func Connect(dsn string) (*gorm.DB, error) {
	var conn *gorm.DB
	var err error

	for i := 0; i < 5; i++ {
		// TranslateError maps driver-specific failures onto gorm's sentinel
		// errors (ErrDuplicatedKey in particular).
		conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			return conn, nil
		}
		log.Printf("database connection attempt %d/5 failed, retrying...", i+1)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("database connection failed: %w", err)
}

// Migrate applies GORM auto-migrations for all models.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.CompanySettings{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.GenerationReceipt{},
	); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}

// Seed creates the initial admin account when ADMIN_EMAIL/ADMIN_PASSWORD are
// set and no user with that email exists yet. Idempotent.
func Seed(conn *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:    email,
		Name:     "Admin",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}
