package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{
		send: make(chan []byte, sendBufferSize),
		addr: "test",
	}
}

func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-c.send:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	r.Register(c)
	assert.Equal(t, 1, r.Count())

	// 重复注册是无操作
	r.Register(c)
	assert.Equal(t, 1, r.Count())

	r.Unregister(c)
	assert.Equal(t, 0, r.Count())

	// 重复注销也是无操作
	r.Unregister(c)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryUnregisterClosesSend(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()
	r.Register(c)
	r.Unregister(c)

	_, ok := <-c.send
	assert.False(t, ok, "注销后 send 通道应当已关闭")
}

func TestRegistryBindAndLookup(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient()
	c2 := newTestClient()
	r.Register(c1)
	r.Register(c2)

	r.Bind(1, c1)
	got, ok := r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, c1, got)

	// 重连后改绑到新连接
	r.Bind(1, c2)
	got, ok = r.Lookup(1)
	require.True(t, ok)
	assert.Same(t, c2, got)

	// 旧连接仍然在广播集合里
	assert.Equal(t, 2, r.Count())
}

func TestRegistryBindIgnoresInvalid(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()
	r.Register(c)

	r.Bind(0, c)
	r.Bind(-1, c)
	_, ok := r.Lookup(0)
	assert.False(t, ok)

	// 已注销的连接不再接受绑定
	unregistered := newTestClient()
	r.Bind(5, unregistered)
	_, ok = r.Lookup(5)
	assert.False(t, ok)
}

func TestRegistryIsOnline(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	assert.False(t, r.IsOnline(1))

	r.Register(c)
	assert.False(t, r.IsOnline(1), "注册但未绑定不算在线")

	r.Bind(1, c)
	assert.True(t, r.IsOnline(1))

	r.Unregister(c)
	assert.False(t, r.IsOnline(1))
}

func TestRegistryUnregisterDropsBinding(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()
	r.Register(c)
	r.Bind(1, c)
	r.Bind(2, c)

	r.Unregister(c)
	_, ok := r.Lookup(1)
	assert.False(t, ok)
	_, ok = r.Lookup(2)
	assert.False(t, ok)
}

func TestRegistryBroadcast(t *testing.T) {
	r := NewRegistry()
	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = newTestClient()
		r.Register(clients[i])
	}

	frame := []byte("hello")
	r.Broadcast(frame)

	for i, c := range clients {
		frames := drain(c)
		require.Len(t, frames, 1, "client %d 应当恰好收到一帧", i)
		assert.Equal(t, frame, frames[0])
	}
}

func TestRegistryBroadcastSkipsSlowClient(t *testing.T) {
	r := NewRegistry()
	slow := &Client{send: make(chan []byte), addr: "slow"} // 无缓冲，永远写不进
	fast := newTestClient()
	r.Register(slow)
	r.Register(fast)

	r.Broadcast([]byte("x"))

	// 慢连接被跳过，不影响别人
	assert.Len(t, drain(fast), 1)
	assert.Equal(t, 2, r.Count())
}

func TestRegistrySendToUser(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()
	r.Register(c)

	assert.False(t, r.SendToUser(1, []byte("x")), "未绑定用户投递失败")

	r.Bind(1, c)
	assert.True(t, r.SendToUser(1, []byte("x")))
	assert.Len(t, drain(c), 1)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := newTestClient()
			r.Register(c)
			r.Bind(id, c)
			r.Broadcast([]byte(fmt.Sprintf("msg-%d", id)))
			r.SendToUser(id, []byte("direct"))
			r.IsOnline(id)
			drain(c)
			r.Unregister(c)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
