package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"novel-voice/models"
)

// ChatService 聊天相关的数据库操作，同时实现路由层依赖的
// MessageGateway / ConversationResolver / UserDirectory
type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// SaveMessage 落库并回填 ID 和服务端时间
func (s *ChatService) SaveMessage(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	// 私聊消息顺带刷新会话排序，失败只记日志不影响消息本身
	if msg.ConversationID != "" {
		err := s.db.WithContext(ctx).Model(&models.Conversation{}).
			Where("conversation_id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error
		if err != nil {
			log.Println("Failed to update last_message_at:", err)
		}
	}
	return nil
}

// Resolve 获取或创建私聊会话。两个用户 ID 排序后查询，
// 保证 (a,b) 和 (b,a) 解析到同一条会话
func (s *ChatService) Resolve(ctx context.Context, userA, userB int64) (string, error) {
	if userA > userB {
		userA, userB = userB, userA
	}

	var conversation models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conversation).Error
	if err == nil {
		return conversation.ConversationID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("query conversation: %w", err)
	}

	conversation = models.Conversation{
		ConversationID: uuid.New().String(),
		UserAID:        userA,
		UserBID:        userB,
		LastMessageAt:  time.Now(),
	}
	if createErr := s.db.WithContext(ctx).Create(&conversation).Error; createErr != nil {
		// 两条连接同时给同一对用户建会话会撞唯一索引，重查一次
		err := s.db.WithContext(ctx).
			Where("user_a_id = ? AND user_b_id = ?", userA, userB).
			First(&conversation).Error
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", createErr)
		}
	}
	return conversation.ConversationID, nil
}

// GetUser 查用户展示信息
func (s *ChatService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}
	return &user, nil
}

// GroupHistory 群聊历史，按时间正序返回最近 limit 条
func (s *ChatService) GroupHistory(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("receiver_id = 0").
		Order("id DESC").Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("query group history: %w", err)
	}
	reverse(messages)
	return messages, nil
}

// PrivateHistory 两个用户之间的私聊历史
func (s *ChatService) PrivateHistory(ctx context.Context, userID, targetID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	conversationID, err := s.Resolve(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	var messages []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("query private history: %w", err)
	}
	reverse(messages)
	return messages, nil
}

// ConversationSummary 会话列表里的一项
type ConversationSummary struct {
	ConversationID string    `json:"conversation_id"`
	TargetUserID   int64     `json:"target_user_id"`
	TargetNickname string    `json:"target_nickname"`
	TargetAvatar   string    `json:"target_avatar"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadCount    int64     `json:"unread_count"`
}

// Conversations 用户的会话列表，带对方信息和未读数
func (s *ChatService) Conversations(ctx context.Context, userID int64) ([]ConversationSummary, error) {
	var conversations []models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		targetID := conv.UserAID
		if targetID == userID {
			targetID = conv.UserBID
		}

		summary := ConversationSummary{
			ConversationID: conv.ConversationID,
			TargetUserID:   targetID,
			LastMessageAt:  conv.LastMessageAt,
		}
		if target, err := s.GetUser(ctx, targetID); err == nil {
			summary.TargetNickname = target.Nickname
			summary.TargetAvatar = target.Avatar
		}

		err := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("conversation_id = ? AND receiver_id = ? AND is_read = false", conv.ConversationID, userID).
			Count(&summary.UnreadCount).Error
		if err != nil {
			log.Println("Failed to count unread messages:", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// MarkAsRead 把某个发送者发给当前用户的未读消息置为已读
func (s *ChatService) MarkAsRead(ctx context.Context, userID, senderID int64) error {
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = false", userID, senderID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// AllUsers 私聊选人列表，排除自己
func (s *ChatService) AllUsers(ctx context.Context, excludeID int64) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return users, nil
}

func reverse(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
