package services

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client 一条 WebSocket 连接。连接由 Registry 统一管理，
// 路由层只通过 Registry 的查询接口拿到它，不长期持有。
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	addr      string
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		addr: conn.RemoteAddr().String(),
	}
}

// closeSend 只能在 Registry 的写锁内调用，保证不会和投递并发
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Registry 在线连接表：广播集合 + 用户绑定。
// 每条连接的读写各跑在自己的 goroutine 里，所有操作都要求并发安全。
// 实例由 main 显式构造后注入，不做包级全局状态。
type Registry struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[int64]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[*Client]struct{}),
		users:   make(map[int64]*Client),
	}
}

// Register 加入广播集合，重复注册是无操作
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Unregister 移出广播集合并清掉指向该连接的用户绑定。
// 从未绑定过用户、或已经注销过的连接调用都安全。
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	for id, bound := range r.users {
		if bound == c {
			delete(r.users, id)
		}
	}
	c.closeSend()
}

// Bind 记录用户当前走哪条连接，后绑定的覆盖先绑定的。
// 旧连接不强制关闭，留在广播集合里直到自己断开。
func (r *Registry) Bind(userID int64, c *Client) {
	if userID <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		// 连接已经注销，不再建立绑定
		return
	}
	r.users[userID] = c
}

// Lookup 查用户当前绑定的连接
func (r *Registry) Lookup(userID int64) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}

// IsOnline 绑定存在且连接仍在广播集合里才算在线
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	if !ok {
		return false
	}
	_, ok = r.clients[c]
	return ok
}

// Broadcast 投递到所有在线连接。写不进去的慢连接直接跳过，
// 不能因为一个坏连接拖住其他人。
func (r *Registry) Broadcast(frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		select {
		case c.send <- frame:
		default:
			log.Println("Broadcast skipping slow client:", c.addr)
		}
	}
}

// SendToUser 投递给指定用户，查绑定和写通道在同一把锁内完成。
// 用户不在线或通道已满返回 false，调用方只记日志不重试。
func (r *Registry) SendToUser(userID int64, frame []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	if !ok {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		log.Println("SendToUser skipping slow client:", c.addr)
		return false
	}
}

// Count 当前注册的连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
