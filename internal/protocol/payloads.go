package protocol

// --- 对局 Payloads ---

// PlayerSetup 对局开始时的玩家信息
type PlayerSetup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameStartPayload 房主下发的对局参数，所有端据此构造相同的会话
type GameStartPayload struct {
	Seed      uint64        `json:"seed"`
	Players   []PlayerSetup `json:"players"`
	Impostors int           `json:"impostors"`
	Map       string        `json:"map,omitempty"`
}

// TaskPayload 任务开始/完成
type TaskPayload struct {
	TaskID int `json:"task_id"`
}

// SabotagePayload 触发破坏
type SabotagePayload struct {
	Kind string `json:"kind"` // reactor / life_support
}

// PanelHoldPayload 反应堆面板按压状态
type PanelHoldPayload struct {
	PanelID int  `json:"panel_id"`
	Holding bool `json:"holding"`
}

// KeypadEntryPayload 氧气面板密码
type KeypadEntryPayload struct {
	PanelID int    `json:"panel_id"`
	Code    string `json:"code"`
}

// VotePayload 投票，TargetID 为空表示弃票
type VotePayload struct {
	VoterID  string `json:"voter_id"`
	TargetID string `json:"target_id,omitempty"`
}

// MeetingPayload 召开会议
type MeetingPayload struct {
	CallerID string `json:"caller_id"`
	BodyID   string `json:"body_id,omitempty"` // 报告尸体时填写
}

// KillPayload 击杀
type KillPayload struct {
	TargetID string `json:"target_id"`
}

// GameOverPayload 对局结束
type GameOverPayload struct {
	Winner string `json:"winner"` // crewmates / impostors
	Reason string `json:"reason,omitempty"`
}

// --- 中继 Payloads ---

// HelloPayload 加入房间请求，断线重连时带上原来的 PeerID
type HelloPayload struct {
	Room   string `json:"room"`
	Name   string `json:"name"`
	PeerID string `json:"peer_id,omitempty"`
}

// WelcomePayload 加入房间响应
type WelcomePayload struct {
	PeerID string        `json:"peer_id"`
	Room   string        `json:"room"`
	Peers  []PlayerSetup `json:"peers"` // 包括自己，按加入顺序
}

// PeerPayload 玩家加入/离开通知
type PeerPayload struct {
	PeerID string `json:"peer_id"`
	Name   string `json:"name"`
}

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
