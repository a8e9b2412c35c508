package ui

import (
	"time"

	"github.com/palemoky/among-the-stars/internal/protocol"
)

// ServerMessage 中继转来的消息
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg 已连接中继
type ConnectedMsg struct{}

// ConnectionErrorMsg 连接失败或断开
type ConnectionErrorMsg struct {
	Err error
}

// ReconnectingMsg 正在重连
type ReconnectingMsg struct {
	Attempt  int
	MaxTries int
}

// ReconnectSuccessMsg 重连成功
type ReconnectSuccessMsg struct{}

// ClearNoticeMsg 清除临时提示
type ClearNoticeMsg struct{}

// TickMsg 驱动会话前进一帧
type TickMsg time.Time
