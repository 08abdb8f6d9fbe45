package proto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// 消息类型枚举，与前端保持一致
const (
	TypeText  int32 = 0 // 文本
	TypeImage int32 = 1 // 图片
	TypeEmoji int32 = 2 // 表情
	TypeFile  int32 = 3 // 文件
)

// ChatMessage 聊天消息的线上格式。
// 与旧版客户端约定的 protobuf 编码（字段号 1~10），零值字段不上线。
// receiver_id 为 0 表示群聊广播，大于 0 表示私聊。
type ChatMessage struct {
	SenderID       int64  `json:"sender_id"`
	ReceiverID     int64  `json:"receiver_id"`
	Content        string `json:"content"`
	Type           int32  `json:"type"`
	Timestamp      string `json:"timestamp"`
	FileURL        string `json:"file_url"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	SenderNickname string `json:"sender_nickname"`
	SenderAvatar   string `json:"sender_avatar"`
}

// 字段号定义，新增字段只能往后追加，不能复用旧字段号
const (
	fieldSenderID       protowire.Number = 1
	fieldReceiverID     protowire.Number = 2
	fieldContent        protowire.Number = 3
	fieldType           protowire.Number = 4
	fieldTimestamp      protowire.Number = 5
	fieldFileURL        protowire.Number = 6
	fieldFileName       protowire.Number = 7
	fieldFileSize       protowire.Number = 8
	fieldSenderNickname protowire.Number = 9
	fieldSenderAvatar   protowire.Number = 10
)

// Marshal 编码为二进制帧，零值字段省略
func Marshal(m *ChatMessage) []byte {
	b := make([]byte, 0, 64)
	b = appendVarintField(b, fieldSenderID, uint64(m.SenderID))
	b = appendVarintField(b, fieldReceiverID, uint64(m.ReceiverID))
	b = appendStringField(b, fieldContent, m.Content)
	b = appendVarintField(b, fieldType, uint64(m.Type))
	b = appendStringField(b, fieldTimestamp, m.Timestamp)
	b = appendStringField(b, fieldFileURL, m.FileURL)
	b = appendStringField(b, fieldFileName, m.FileName)
	b = appendVarintField(b, fieldFileSize, uint64(m.FileSize))
	b = appendStringField(b, fieldSenderNickname, m.SenderNickname)
	b = appendStringField(b, fieldSenderAvatar, m.SenderAvatar)
	return b
}

// Unmarshal 解码二进制帧。未知字段号直接跳过，保证前向兼容；
// 字节不完整或编码非法时返回错误，由连接层负责断开。
func Unmarshal(b []byte) (*ChatMessage, error) {
	m := &ChatMessage{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode chat message tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isVarintField(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode chat message field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			m.setVarint(num, v)
		case typ == protowire.BytesType && isStringField(num):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode chat message field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			m.setString(num, string(v))
		default:
			// 未知字段或类型不匹配的字段一律跳过
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("skip chat message field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func isVarintField(num protowire.Number) bool {
	switch num {
	case fieldSenderID, fieldReceiverID, fieldType, fieldFileSize:
		return true
	}
	return false
}

func isStringField(num protowire.Number) bool {
	switch num {
	case fieldContent, fieldTimestamp, fieldFileURL, fieldFileName, fieldSenderNickname, fieldSenderAvatar:
		return true
	}
	return false
}

func (m *ChatMessage) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldSenderID:
		m.SenderID = int64(v)
	case fieldReceiverID:
		m.ReceiverID = int64(v)
	case fieldType:
		m.Type = int32(v)
	case fieldFileSize:
		m.FileSize = int64(v)
	}
}

func (m *ChatMessage) setString(num protowire.Number, s string) {
	switch num {
	case fieldContent:
		m.Content = s
	case fieldTimestamp:
		m.Timestamp = s
	case fieldFileURL:
		m.FileURL = s
	case fieldFileName:
		m.FileName = s
	case fieldSenderNickname:
		m.SenderNickname = s
	case fieldSenderAvatar:
		m.SenderAvatar = s
	}
}
