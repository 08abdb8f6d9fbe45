package models

import "time"

// Novel 小说模型
type Novel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"size:128;not null" json:"title"`
	Author      string    `gorm:"size:64" json:"author"`
	Description string    `gorm:"type:text" json:"description"`
	CoverURL    string    `gorm:"size:255" json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter 章节模型，content 只在详情接口返回
type Chapter struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	NovelID   int64     `gorm:"index;not null" json:"novel_id"`
	Title     string    `gorm:"size:128" json:"title"`
	Content   string    `gorm:"type:longtext" json:"content,omitempty"`
	ChapterNo int       `gorm:"index" json:"chapter_no"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
