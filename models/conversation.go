package models

import "time"

// Conversation 私聊会话。UserAID 恒为较小的用户 ID，
// 两个用户无论谁先发起都落到同一条记录上。
type Conversation struct {
	ConversationID string    `gorm:"primaryKey;type:varchar(36)" json:"conversation_id"`
	UserAID        int64     `gorm:"uniqueIndex:idx_conversation_pair" json:"user_a_id"`
	UserBID        int64     `gorm:"uniqueIndex:idx_conversation_pair" json:"user_b_id"`
	LastMessageAt  time.Time `json:"last_message_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}
