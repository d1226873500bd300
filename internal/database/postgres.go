package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/abudi-09/CMS-sub000/internal/config"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

var DB *gorm.DB

func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Database connected successfully")
	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	err := db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.ActivityLog{},
		&models.Notification{},
		&models.ComplaintAttachment{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Database migrations completed")
	return nil
}

// Seed creates the bootstrap admin account if no admin exists yet.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding bootstrap admin...")
	hashed, err := utils.HashPassword("ChangeMe123!")
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:      "admin@university.edu",
		Username:   "admin",
		Password:   hashed,
		FullName:   "System Administrator",
		Role:       models.RoleAdmin,
		IsApproved: true,
		IsActive:   true,
	}
	return db.Create(admin).Error
}
