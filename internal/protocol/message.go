package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Sender  string          `json:"sender,omitempty"` // 发起该意图的玩家 ID，由中继补全
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 对局意图（本地产生后广播，远端按同名操作回放）
const (
	MsgGameStart       MessageType = "game_start"       // 房主下发对局参数
	MsgTaskStart       MessageType = "task_start"       // 打开任务
	MsgTaskComplete    MessageType = "task_complete"    // 完成任务
	MsgTaskCancel      MessageType = "task_cancel"      // 关闭任务
	MsgSabotageTrigger MessageType = "sabotage_trigger" // 触发破坏
	MsgPanelHold       MessageType = "panel_hold"       // 反应堆手印按下/松开
	MsgKeypadEntry     MessageType = "keypad_entry"     // 氧气密码输入
	MsgVote            MessageType = "vote"             // 投票
	MsgMeetingCalled   MessageType = "meeting_called"   // 召开会议
	MsgPlayerKilled    MessageType = "player_killed"    // 击杀
	MsgGameOver        MessageType = "game_over"        // 对局结束
)

// 中继控制消息
const (
	MsgHello      MessageType = "hello"       // 客户端 → 中继：加入房间
	MsgWelcome    MessageType = "welcome"     // 中继 → 客户端：分配 ID
	MsgPeerJoined MessageType = "peer_joined" // 其他玩家加入
	MsgPeerLeft   MessageType = "peer_left"   // 其他玩家离开
	MsgError      MessageType = "error"       // 错误消息
)

// IsGameplay 是否为需要交给会话回放的对局消息
func (t MessageType) IsGameplay() bool {
	switch t {
	case MsgTaskStart, MsgTaskComplete, MsgTaskCancel, MsgSabotageTrigger, MsgPanelHold,
		MsgKeypadEntry, MsgVote, MsgMeetingCalled, MsgPlayerKilled, MsgGameOver:
		return true
	}
	return false
}
