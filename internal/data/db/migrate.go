package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/domain/presence"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(presence.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
