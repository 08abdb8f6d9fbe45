package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"novel-voice/proto"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	sendBufferSize = 256
)

// ChatServer 连接生命周期管理：升级握手、注册、读写泵、断开清理。
// Registry 和 Router 由 main 构造后注入。
type ChatServer struct {
	registry *Registry
	router   *Router
	upgrader websocket.Upgrader
}

func NewChatServer(registry *Registry, router *Router) *ChatServer {
	return &ChatServer{
		registry: registry,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket 升级为 WebSocket 长连接。
// 握手失败的连接从未注册过，直接返回即可。
func (s *ChatServer) HandleWebSocket(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}

	client := newClient(conn)
	s.registry.Register(client)
	log.Println("New client connected:", client.addr)

	go s.writePump(client)
	go s.readPump(client)
}

// IsOnline 给 HTTP 层用的在线状态查询
func (s *ChatServer) IsOnline(userID int64) bool {
	return s.registry.IsOnline(userID)
}

// OnlineCount 当前活跃连接数
func (s *ChatServer) OnlineCount() int {
	return s.registry.Count()
}

// readPump 逐条读入站帧，解码后交给路由。
// 任何读错误或解码错误都走同一条退出路径，注销只执行一次。
func (s *ChatServer) readPump(c *Client) {
	defer func() {
		s.registry.Unregister(c)
		c.conn.Close()
		log.Println("Client disconnected:", c.addr)
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frameType, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if frameType != websocket.BinaryMessage {
			// 协议只走二进制帧，文本帧忽略
			continue
		}

		msg, err := proto.Unmarshal(frame)
		if err != nil {
			// 坏帧没法恢复，断开这条连接
			log.Println("Decode failed, closing connection:", c.addr, err)
			return
		}

		// 落库失败只作废这条消息，连接保持
		if err := s.router.Handle(context.Background(), c, msg); err != nil {
			log.Println("Message dropped:", err)
		}
	}
}

// writePump 消费发送通道并维持心跳。
// send 通道由 Registry 注销时关闭，写泵随之退出。
func (s *ChatServer) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
