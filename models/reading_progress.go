package models

import "time"

// ReadingProgress 阅读进度，一个用户一本小说只保留一条
type ReadingProgress struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"uniqueIndex:idx_user_novel" json:"user_id"`
	NovelID        int64     `gorm:"uniqueIndex:idx_user_novel" json:"novel_id"`
	ChapterID      int64     `json:"chapter_id"`
	ChapterNo      int       `json:"chapter_no"`
	ScrollPosition int       `json:"scroll_position"`
	TTSPosition    int       `json:"tts_position"`
	LastReadTime   time.Time `json:"last_read_time"`
}
