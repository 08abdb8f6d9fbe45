package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"novel-voice/controllers"
	"novel-voice/middlewares"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(chatCtl *controllers.ChatController) *gin.Engine {
	r := gin.Default()

	// 配置跨域中间件
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	r.Use(cors.New(corsConfig))

	// WebSocket 入口不走鉴权中间件，连接本身不做认证
	r.GET("/ws", chatCtl.HandleWS)

	protected := r.Group("/api")
	protected.POST("/register", controllers.Register)
	protected.POST("/login", controllers.Login)

	{
		protected.Use(middlewares.TokenAuthMiddleware())
		protected.GET("/userinfo", controllers.GetUserInfo)

		// 聊天
		protected.GET("/chat/history", chatCtl.GetHistory)
		protected.GET("/chat/private/:target_id", chatCtl.GetPrivateMessages)
		protected.GET("/chat/conversations", chatCtl.GetConversations)
		protected.POST("/chat/read", chatCtl.MarkAsRead)
		protected.GET("/chat/users", chatCtl.GetUsers)
		protected.GET("/chat/online/:user_id", chatCtl.GetOnlineStatus)
		protected.GET("/chat/online-count", chatCtl.GetOnlineCount)

		// 小说与阅读进度
		protected.GET("/novels", controllers.GetNovels)
		protected.GET("/novels/:id", controllers.GetNovelDetail)
		protected.GET("/novels/:id/chapters", controllers.GetChapters)
		protected.GET("/chapters/:id", controllers.GetChapterContent)
		protected.POST("/reading-progress", controllers.SaveProgress)
		protected.GET("/reading-progress/:novel_id", controllers.GetProgress)
		protected.GET("/reading-history", controllers.GetReadingHistory)
	}

	return r
}
