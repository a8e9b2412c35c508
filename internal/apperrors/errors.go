package apperrors

import (
	"errors"

	"github.com/palemoky/among-the-stars/internal/protocol"
)

// GameError 对局错误（所有子状态机共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 不同步：远端事件引用了本端不存在的 ID
var (
	ErrUnknownPlayer = newError(protocol.ErrCodeUnknownPlayer)
	ErrUnknownTask   = newError(protocol.ErrCodeUnknownTask)
	ErrUnknownPanel  = newError(protocol.ErrCodeUnknownPanel)
)

// 被拒绝的操作：前置条件不满足，状态不变
var (
	ErrWrongPhase     = newError(protocol.ErrCodeWrongPhase)
	ErrAlreadyVoted   = newError(protocol.ErrCodeAlreadyVoted)
	ErrVoteSelf       = newError(protocol.ErrCodeVoteSelf)
	ErrPlayerDead     = newError(protocol.ErrCodePlayerDead)
	ErrInvalidTarget  = newError(protocol.ErrCodeInvalidTarget)
	ErrTaskDisabled   = newError(protocol.ErrCodeTaskDisabled)
	ErrTaskCompleted  = newError(protocol.ErrCodeTaskCompleted)
	ErrTaskNotOwned   = newError(protocol.ErrCodeTaskNotOwned)
	ErrSabotageActive = newError(protocol.ErrCodeSabotageActive)
	ErrNoSabotage     = newError(protocol.ErrCodeNoSabotage)
	ErrWrongCode      = newError(protocol.ErrCodeWrongCode)
	ErrCooldown       = newError(protocol.ErrCodeCooldown)
	ErrNotImpostor    = newError(protocol.ErrCodeNotImpostor)
	ErrGameOver       = newError(protocol.ErrCodeGameOver)
	ErrPanelBusy      = newError(protocol.ErrCodePanelBusy)
)

// IsDesync 判断错误是否表示远端与本端状态不一致
func IsDesync(err error) bool {
	return errors.Is(err, ErrUnknownPlayer) || errors.Is(err, ErrUnknownTask) || errors.Is(err, ErrUnknownPanel)
}
