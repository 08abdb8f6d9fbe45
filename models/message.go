package models

import "time"

// Message 聊天消息。群聊消息 ReceiverID 为 0 且不挂会话，
// 私聊消息带 ReceiverID 和 ConversationID。
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);index" json:"conversation_id,omitempty"`
	SenderID       int64     `gorm:"index" json:"sender_id"`
	ReceiverID     int64     `gorm:"index" json:"receiver_id,omitempty"`
	Content        string    `gorm:"type:text" json:"content"`
	Type           int32     `json:"type"` // 0 文本 1 图片 2 表情 3 文件
	FileURL        string    `gorm:"size:255" json:"file_url,omitempty"`
	FileName       string    `gorm:"size:255" json:"file_name,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
