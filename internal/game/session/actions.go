package session

import (
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

// --- 本地玩家便捷方法，全部经由队列在下一个 Tick 生效 ---

// SendTaskStart 打开任务
func (g *GameSession) SendTaskStart(taskID int) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgTaskStart, protocol.TaskPayload{TaskID: taskID}))
}

// SendTaskComplete 完成任务
func (g *GameSession) SendTaskComplete(taskID int) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgTaskComplete, protocol.TaskPayload{TaskID: taskID}))
}

// SendTaskCancel 关闭任务
func (g *GameSession) SendTaskCancel() error {
	return g.Submit(codec.MustNewMessage(protocol.MsgTaskCancel, nil))
}

// SendSabotage 触发破坏
func (g *GameSession) SendSabotage(kind sabotage.Kind) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgSabotageTrigger, protocol.SabotagePayload{Kind: kind.String()}))
}

// SendPanelHold 按下/松开反应堆面板
func (g *GameSession) SendPanelHold(panelID int, holding bool) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgPanelHold, protocol.PanelHoldPayload{
		PanelID: panelID,
		Holding: holding,
	}))
}

// SendKeypadEntry 输入氧气密码
func (g *GameSession) SendKeypadEntry(panelID int, code string) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgKeypadEntry, protocol.KeypadEntryPayload{
		PanelID: panelID,
		Code:    code,
	}))
}

// SendVote 投票，targetID 为空表示弃票
func (g *GameSession) SendVote(targetID string) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgVote, protocol.VotePayload{
		VoterID:  g.localID,
		TargetID: targetID,
	}))
}

// SendMeeting 召开紧急会议；bodyID 非空时为报告尸体
func (g *GameSession) SendMeeting(bodyID string) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgMeetingCalled, protocol.MeetingPayload{
		CallerID: g.localID,
		BodyID:   bodyID,
	}))
}

// SendKill 击杀
func (g *GameSession) SendKill(targetID string) error {
	return g.Submit(codec.MustNewMessage(protocol.MsgPlayerKilled, protocol.KillPayload{TargetID: targetID}))
}
