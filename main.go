package main

import (
	"fmt"
	"log"

	"novel-voice/config"
	"novel-voice/controllers"
	"novel-voice/models"
	"novel-voice/routes"
	"novel-voice/services"
)

func main() {
	cfg := config.Load()

	// 初始化数据库并自动迁移
	db := config.InitDB(cfg)
	models.Migrate(db)

	services.InitAuth(cfg.JWTSecret, cfg.JWTExpire)

	// 聊天核心：注册表、路由、连接管理，全部显式构造注入
	chatService := services.NewChatService(db)
	registry := services.NewRegistry()
	router := services.NewRouter(registry, chatService, chatService, chatService)
	chatServer := services.NewChatServer(registry, router)
	chatCtl := controllers.NewChatController(chatService, chatServer)

	// 注册路由并启动服务
	r := routes.RegisterRoutes(chatCtl)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
