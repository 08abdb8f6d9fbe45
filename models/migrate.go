package models

import (
	"log"

	"gorm.io/gorm"
)

// Migrate 自动迁移所有表结构
func Migrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&User{},
		&Novel{},
		&Chapter{},
		&ReadingProgress{},
		&Conversation{},
		&Message{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
