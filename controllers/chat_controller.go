package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"novel-voice/middlewares"
	"novel-voice/models"
	"novel-voice/services"
	"novel-voice/utils"
)

// ChatController 聊天相关接口，持有 ChatService 和 ChatServer（在线状态查询）
type ChatController struct {
	service *services.ChatService
	server  *services.ChatServer
}

func NewChatController(service *services.ChatService, server *services.ChatServer) *ChatController {
	return &ChatController{service: service, server: server}
}

// HandleWS WebSocket 入口
func (ctl *ChatController) HandleWS(c *gin.Context) {
	ctl.server.HandleWebSocket(c)
}

// GetHistory 群聊历史
func (ctl *ChatController) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := ctl.service.GroupHistory(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	utils.RespondSuccess(c, messages, nil)
}

// GetPrivateMessages 和某个用户的私聊历史
func (ctl *ChatController) GetPrivateMessages(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}
	targetID, err := strconv.ParseInt(c.Param("target_id"), 10, 64)
	if err != nil || targetID <= 0 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid target user id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := ctl.service.PrivateHistory(c.Request.Context(), user.ID, targetID, limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	utils.RespondSuccess(c, messages, nil)
}

// GetConversations 当前用户的会话列表
func (ctl *ChatController) GetConversations(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}
	conversations, err := ctl.service.Conversations(c.Request.Context(), user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	utils.RespondSuccess(c, conversations, nil)
}

// MarkAsRead 把某个发送者的消息标记为已读
func (ctl *ChatController) MarkAsRead(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}
	var input struct {
		SenderID int64 `json:"sender_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ctl.service.MarkAsRead(c.Request.Context(), user.ID, input.SenderID); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to mark messages as read")
		return
	}
	utils.RespondSuccess(c, nil, nil)
}

type chatUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Online   bool   `json:"online"`
}

// GetUsers 私聊选人列表，在线状态来自连接注册表
func (ctl *ChatController) GetUsers(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}
	users, err := ctl.service.AllUsers(c.Request.Context(), user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	data := lo.Map(users, func(u models.User, _ int) chatUser {
		return chatUser{
			ID:       u.ID,
			Username: u.Username,
			Nickname: u.Nickname,
			Avatar:   u.Avatar,
			Online:   ctl.server.IsOnline(u.ID),
		}
	})
	utils.RespondSuccess(c, data, nil)
}

// GetOnlineStatus 单个用户是否在线
func (ctl *ChatController) GetOnlineStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid user id")
		return
	}
	utils.RespondSuccess(c, gin.H{"user_id": userID, "online": ctl.server.IsOnline(userID)}, nil)
}

// GetOnlineCount 当前活跃连接数
func (ctl *ChatController) GetOnlineCount(c *gin.Context) {
	utils.RespondSuccess(c, gin.H{"count": ctl.server.OnlineCount()}, nil)
}
