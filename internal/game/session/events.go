package session

import (
	"fmt"

	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/meeting"
	"github.com/palemoky/among-the-stars/internal/game/rule"
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
	"github.com/palemoky/among-the-stars/internal/logger"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

type event struct {
	msg   *protocol.Message
	local bool
}

// Submit 提交本地玩家的操作，下一个 Tick 生效，成功后广播给其他端
func (g *GameSession) Submit(msg *protocol.Message) error {
	msg.Sender = g.localID
	return g.enqueue(event{msg: msg, local: true})
}

// Deliver 投递远端玩家的操作，下一个 Tick 生效
func (g *GameSession) Deliver(msg *protocol.Message) error {
	return g.enqueue(event{msg: msg})
}

func (g *GameSession) enqueue(ev event) error {
	select {
	case g.inbound <- ev:
		return nil
	default:
		logger.LogWarn("inbound queue full, dropping %s from %s", ev.msg.Type, ev.msg.Sender)
		return ErrQueueFull
	}
}

// drain 每个 Tick 开始时处理完队列中已有的事件
func (g *GameSession) drain() {
	for {
		select {
		case ev := <-g.inbound:
			g.handle(ev)
		default:
			return
		}
	}
}

func (g *GameSession) handle(ev event) {
	err := g.Apply(ev.msg)
	switch {
	case err == nil:
		if ev.local && ev.msg.Type != protocol.MsgGameOver {
			g.forward(ev.msg)
		}
	case apperrors.IsDesync(err):
		logger.LogWarn("desync: dropped %s from %s: %v", ev.msg.Type, ev.msg.Sender, err)
	default:
		logger.LogInfo("rejected %s from %s: %v", ev.msg.Type, ev.msg.Sender, err)
	}
}

// Apply 立即执行一条对局消息。本地与远端消息走同一套操作，Sender 为发起玩家。
func (g *GameSession) Apply(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MsgTaskStart:
		p, err := codec.ParsePayload[protocol.TaskPayload](msg)
		if err != nil {
			return err
		}
		return g.StartTask(msg.Sender, p.TaskID)

	case protocol.MsgTaskComplete:
		p, err := codec.ParsePayload[protocol.TaskPayload](msg)
		if err != nil {
			return err
		}
		return g.CompleteTask(msg.Sender, p.TaskID)

	case protocol.MsgTaskCancel:
		return g.CancelTask(msg.Sender)

	case protocol.MsgSabotageTrigger:
		p, err := codec.ParsePayload[protocol.SabotagePayload](msg)
		if err != nil {
			return err
		}
		kind, ok := sabotage.ParseKind(p.Kind)
		if !ok {
			return apperrors.ErrInvalidTarget
		}
		return g.TriggerSabotage(msg.Sender, kind)

	case protocol.MsgPanelHold:
		p, err := codec.ParsePayload[protocol.PanelHoldPayload](msg)
		if err != nil {
			return err
		}
		return g.HoldPanel(msg.Sender, p.PanelID, p.Holding)

	case protocol.MsgKeypadEntry:
		p, err := codec.ParsePayload[protocol.KeypadEntryPayload](msg)
		if err != nil {
			return err
		}
		return g.EnterCode(msg.Sender, p.PanelID, p.Code)

	case protocol.MsgVote:
		p, err := codec.ParsePayload[protocol.VotePayload](msg)
		if err != nil {
			return err
		}
		return g.CastVote(actor(msg.Sender, p.VoterID), p.TargetID)

	case protocol.MsgMeetingCalled:
		p, err := codec.ParsePayload[protocol.MeetingPayload](msg)
		if err != nil {
			return err
		}
		return g.CallMeeting(actor(msg.Sender, p.CallerID), p.BodyID)

	case protocol.MsgPlayerKilled:
		p, err := codec.ParsePayload[protocol.KillPayload](msg)
		if err != nil {
			return err
		}
		return g.Kill(msg.Sender, p.TargetID)

	case protocol.MsgGameOver:
		p, err := codec.ParsePayload[protocol.GameOverPayload](msg)
		if err != nil {
			return err
		}
		return g.EndGame(p)
	}
	return fmt.Errorf("session: unexpected message %q", msg.Type)
}

// actor 中继补全的 Sender 优先，离线回放时退回到消息体里的 ID
func actor(sender, fallback string) string {
	if sender != "" {
		return sender
	}
	return fallback
}

// EndGame 应用远端广播的对局结果
func (g *GameSession) EndGame(p *protocol.GameOverPayload) error {
	if g.Over() {
		return apperrors.ErrGameOver
	}
	winner, ok := rule.ParseWinner(p.Winner)
	if !ok {
		return apperrors.ErrInvalidTarget
	}
	reason := p.Reason
	if reason == "" {
		reason = rule.ReasonRemote
	}
	g.meeting.Abort()
	g.finish(rule.Result{Winner: winner, Reason: reason}, false)
	return nil
}

// inMeeting 会议期间冻结任务、击杀与破坏
func (g *GameSession) inMeeting() bool {
	return g.meeting.Phase() != meeting.None
}
