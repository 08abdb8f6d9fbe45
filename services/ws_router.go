package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"novel-voice/models"
	"novel-voice/proto"
)

// MessageGateway 消息持久化网关，落库成功后回填 ID 和服务端时间
type MessageGateway interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
}

// ConversationResolver 私聊会话解析，同一对用户不分方向解析到同一个会话
type ConversationResolver interface {
	Resolve(ctx context.Context, userA, userB int64) (string, error)
}

// UserDirectory 发送者昵称头像从这里查，不信任客户端自带的值
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Router 把解码后的消息路由到目标连接。
// receiver_id 为 0 走群聊广播，否则只投给发送方和接收方两端。
// 先落库后投递，落库失败这条消息整体丢弃。
type Router struct {
	registry *Registry
	gateway  MessageGateway
	resolver ConversationResolver
	users    UserDirectory
}

func NewRouter(registry *Registry, gateway MessageGateway, resolver ConversationResolver, users UserDirectory) *Router {
	return &Router{
		registry: registry,
		gateway:  gateway,
		resolver: resolver,
		users:    users,
	}
}

// Handle 处理一条入站消息。返回错误表示这条消息作废，连接本身不受影响
func (rt *Router) Handle(ctx context.Context, c *Client, msg *proto.ChatMessage) error {
	// 第一条带 sender_id 的消息把用户绑定到这条连接上，重连后自动改绑
	if msg.SenderID > 0 {
		if bound, ok := rt.registry.Lookup(msg.SenderID); !ok || bound != c {
			rt.registry.Bind(msg.SenderID, c)
		}
	}

	rt.enrichSender(ctx, msg)

	record := &models.Message{
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		Type:       msg.Type,
		FileURL:    msg.FileURL,
		FileName:   msg.FileName,
		FileSize:   msg.FileSize,
	}

	// 只看 receiver 是否存在来分支，群聊消息不挂会话
	if msg.ReceiverID > 0 {
		conversationID, err := rt.resolver.Resolve(ctx, msg.SenderID, msg.ReceiverID)
		if err != nil {
			return fmt.Errorf("resolve conversation: %w", err)
		}
		record.ConversationID = conversationID
	}

	if err := rt.gateway.SaveMessage(ctx, record); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	// 时间戳以落库时间为准
	msg.Timestamp = record.CreatedAt.Format(time.DateTime)

	frame := proto.Marshal(msg)
	if msg.ReceiverID > 0 {
		// 私聊只投两端，离线的一端直接不投，不做离线队列
		if !rt.registry.SendToUser(msg.SenderID, frame) {
			log.Println("Private message not echoed, sender offline:", msg.SenderID)
		}
		if !rt.registry.SendToUser(msg.ReceiverID, frame) {
			log.Println("Private message dropped, receiver offline:", msg.ReceiverID)
		}
		return nil
	}

	rt.registry.Broadcast(frame)
	return nil
}

// enrichSender 广播前补发送者展示信息，客户端带来的一律覆盖
func (rt *Router) enrichSender(ctx context.Context, msg *proto.ChatMessage) {
	msg.SenderNickname = ""
	msg.SenderAvatar = ""
	if msg.SenderID <= 0 {
		return
	}
	user, err := rt.users.GetUser(ctx, msg.SenderID)
	if err != nil {
		log.Println("Failed to load sender info:", msg.SenderID, err)
		return
	}
	msg.SenderNickname = user.Nickname
	msg.SenderAvatar = user.Avatar
}
