package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeRateLimit  = 1002

	ErrCodeNotInRoom   = 2001
	ErrCodeRoomFull    = 2002
	ErrCodeNotHost     = 2003
	ErrCodeMaintenance = 2004

	ErrCodeUnknownPlayer = 3001 // 玩家不存在（不同步）
	ErrCodeUnknownTask   = 3002 // 任务不存在（不同步）
	ErrCodeUnknownPanel  = 3003 // 面板不存在（不同步）

	ErrCodeWrongPhase     = 4001
	ErrCodeAlreadyVoted   = 4002
	ErrCodeVoteSelf       = 4003
	ErrCodePlayerDead     = 4004
	ErrCodeInvalidTarget  = 4005
	ErrCodeTaskDisabled   = 4006
	ErrCodeTaskCompleted  = 4007
	ErrCodeTaskNotOwned   = 4008
	ErrCodeSabotageActive = 4009
	ErrCodeNoSabotage     = 4010
	ErrCodeWrongCode      = 4011
	ErrCodeCooldown       = 4012
	ErrCodeNotImpostor    = 4013
	ErrCodeGameOver       = 4014
	ErrCodePanelBusy      = 4015
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:        "unknown error",
	ErrCodeInvalidMsg:     "invalid message",
	ErrCodeRateLimit:      "too many messages",
	ErrCodeNotInRoom:      "join a room first",
	ErrCodeRoomFull:       "room is full",
	ErrCodeNotHost:        "only the host can start the game",
	ErrCodeMaintenance:    "relay is under maintenance",
	ErrCodeUnknownPlayer:  "unknown player",
	ErrCodeUnknownTask:    "unknown task",
	ErrCodeUnknownPanel:   "unknown sabotage panel",
	ErrCodeWrongPhase:     "action not allowed in current phase",
	ErrCodeAlreadyVoted:   "already voted",
	ErrCodeVoteSelf:       "cannot vote for yourself",
	ErrCodePlayerDead:     "player is dead",
	ErrCodeInvalidTarget:  "invalid target",
	ErrCodeTaskDisabled:   "task is not enabled",
	ErrCodeTaskCompleted:  "task already completed",
	ErrCodeTaskNotOwned:   "task belongs to another player",
	ErrCodeSabotageActive: "a sabotage is already active",
	ErrCodeNoSabotage:     "no active sabotage",
	ErrCodeWrongCode:      "wrong keypad code",
	ErrCodeCooldown:       "ability on cooldown",
	ErrCodeNotImpostor:    "only impostors can do that",
	ErrCodeGameOver:       "game is over",
	ErrCodePanelBusy:      "panel is held by another player",
}
