package database

import (
	"fmt"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 自动迁移并播种保留档案
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Profile{},
		&model.Campaign{},
		&model.CampaignTransition{},
		&model.Donation{},
		&model.Notification{},
		&model.Comment{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return seedProfiles(db)
}

// seedProfiles 播种匿名捐赠人与系统两个保留档案
func seedProfiles(db *gorm.DB) error {
	reserved := []model.Profile{
		{Name: model.AnonymousProfileName, Role: model.RoleDonor, Reserved: true},
		{Name: model.SystemProfileName, Role: model.RoleSystem, Reserved: true},
	}
	for i := range reserved {
		if err := db.Where("name = ? AND reserved = ?", reserved[i].Name, true).
			FirstOrCreate(&reserved[i]).Error; err != nil {
			return fmt.Errorf("failed to seed reserved profile %s: %w", reserved[i].Name, err)
		}
	}
	return nil
}
