package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string         `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Nickname  string         `json:"nickname" gorm:"size:64"`
	Avatar    string         `json:"avatar" gorm:"size:255"`
	LastLogin *time.Time     `json:"last_login" gorm:"default:NULL"` // 允许 NULL
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
