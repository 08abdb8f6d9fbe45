package services

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-voice/proto"
)

// 起一个真实的 WebSocket 服务，走完整的升级-注册-读写泵链路
func newTestServer(t *testing.T) (*ChatServer, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router, _ := newTestRouter(nil, nil, nil)
	server := NewChatServer(router.registry, router)

	engine := gin.New()
	engine.GET("/ws", server.HandleWebSocket)
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)
	return server, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *proto.ChatMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	frameType, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, frameType)
	msg, err := proto.Unmarshal(frame)
	require.NoError(t, err)
	return msg
}

func waitOnlineCount(t *testing.T, server *ChatServer, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return server.OnlineCount() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerGroupChatEndToEnd(t *testing.T) {
	server, ts := newTestServer(t)

	connA := dialWS(t, ts)
	connB := dialWS(t, ts)
	waitOnlineCount(t, server, 2)

	frame := proto.Marshal(&proto.ChatMessage{SenderID: 1, Content: "hi", Type: proto.TypeText})
	require.NoError(t, connA.WriteMessage(websocket.BinaryMessage, frame))

	// 双方各收到一帧，谁都不会收到两次
	for _, conn := range []*websocket.Conn{connA, connB} {
		got := readFrame(t, conn)
		assert.Equal(t, int64(1), got.SenderID)
		assert.Equal(t, int64(0), got.ReceiverID)
		assert.Equal(t, "hi", got.Content)
		assert.NotEmpty(t, got.Timestamp)
	}

	require.Eventually(t, func() bool { return server.IsOnline(1) }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, server.IsOnline(2), "只连接没发过消息的用户不算在线")
}

func TestServerPrivateChatEndToEnd(t *testing.T) {
	server, ts := newTestServer(t)

	connA := dialWS(t, ts)
	connB := dialWS(t, ts)
	waitOnlineCount(t, server, 2)

	// 双方先各发一条群聊消息完成绑定，顺手把广播帧排干净
	require.NoError(t, connA.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 1, Content: "in"})))
	readFrame(t, connA)
	readFrame(t, connB)
	require.NoError(t, connB.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 2, Content: "in"})))
	readFrame(t, connA)
	readFrame(t, connB)

	require.NoError(t, connA.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 1, ReceiverID: 2, Content: "hey"})))

	gotB := readFrame(t, connB)
	assert.Equal(t, int64(1), gotB.SenderID)
	assert.Equal(t, int64(2), gotB.ReceiverID)
	assert.Equal(t, "hey", gotB.Content)

	// 发送方自己也会收到回显
	gotA := readFrame(t, connA)
	assert.Equal(t, "hey", gotA.Content)
}

func TestServerMalformedFrameClosesConnection(t *testing.T) {
	server, ts := newTestServer(t)

	bad := dialWS(t, ts)
	good := dialWS(t, ts)
	waitOnlineCount(t, server, 2)

	// 40 字节解析不出来的垃圾
	garbage := make([]byte, 40)
	for i := range garbage {
		garbage[i] = 0xff
	}
	require.NoError(t, bad.WriteMessage(websocket.BinaryMessage, garbage))

	// 坏连接被服务端关掉，计数恰好减一
	waitOnlineCount(t, server, 1)
	require.NoError(t, bad.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := bad.ReadMessage()
	assert.Error(t, err)

	// 其他连接不受影响
	require.NoError(t, good.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 3, Content: "still here"})))
	got := readFrame(t, good)
	assert.Equal(t, "still here", got.Content)
}

func TestServerDisconnectUnregisters(t *testing.T) {
	server, ts := newTestServer(t)

	conn := dialWS(t, ts)
	waitOnlineCount(t, server, 1)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 7, Content: "x"})))
	readFrame(t, conn)
	require.Eventually(t, func() bool { return server.IsOnline(7) }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	waitOnlineCount(t, server, 0)
	assert.False(t, server.IsOnline(7))
}

func TestServerTextFramesIgnored(t *testing.T) {
	server, ts := newTestServer(t)

	conn := dialWS(t, ts)
	waitOnlineCount(t, server, 1)

	// 文本帧不属于协议，直接忽略，连接保持
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not binary")))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage,
		proto.Marshal(&proto.ChatMessage{SenderID: 1, Content: "ok"})))
	got := readFrame(t, conn)
	assert.Equal(t, "ok", got.Content)
}
