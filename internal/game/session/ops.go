package session

import (
	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/player"
	"github.com/palemoky/among-the-stars/internal/game/rule"
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
	"github.com/palemoky/among-the-stars/internal/logger"
)

// actionable 对局进行中且不在会议中
func (g *GameSession) actionable() error {
	if g.Over() {
		return apperrors.ErrGameOver
	}
	if g.inMeeting() {
		return apperrors.ErrWrongPhase
	}
	return nil
}

func (g *GameSession) player(id string) (*player.Player, error) {
	p, ok := g.roster.Get(id)
	if !ok {
		return nil, apperrors.ErrUnknownPlayer
	}
	return p, nil
}

// StartTask 打开任务。幽灵船员也可以继续做任务。
func (g *GameSession) StartTask(playerID string, taskID int) error {
	if err := g.actionable(); err != nil {
		return err
	}
	if _, err := g.player(playerID); err != nil {
		return err
	}
	_, err := g.tasks.Start(playerID, taskID)
	return err
}

// CompleteTask 完成任务，船员任务全部完成时船员获胜
func (g *GameSession) CompleteTask(playerID string, taskID int) error {
	if err := g.actionable(); err != nil {
		return err
	}
	if _, err := g.player(playerID); err != nil {
		return err
	}
	t, err := g.tasks.CompleteBy(playerID, taskID)
	if err != nil {
		return err
	}

	logger.LogInfo("%s completed task %d (%s)", playerID, t.ID, t.Name)
	if playerID == g.localID {
		g.play(CueTaskComplete)
	}
	if res, ok := rule.EvaluateTasks(g.tasks.Counts()); ok {
		g.finish(res, true)
	}
	return nil
}

// CancelTask 关闭打开中的任务，任务回到打开前的状态
func (g *GameSession) CancelTask(playerID string) error {
	if g.Over() {
		return apperrors.ErrGameOver
	}
	if _, err := g.player(playerID); err != nil {
		return err
	}
	if _, ok := g.tasks.Cancel(playerID); !ok {
		return apperrors.ErrInvalidTarget
	}
	return nil
}

// TriggerSabotage 内鬼触发致命破坏，成功后重置破坏冷却
func (g *GameSession) TriggerSabotage(playerID string, kind sabotage.Kind) error {
	if err := g.actionable(); err != nil {
		return err
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	if !p.IsImpostor() {
		return apperrors.ErrNotImpostor
	}
	if p.SabotageCooldown > 0 {
		return apperrors.ErrCooldown
	}
	if err := g.sabotage.Trigger(kind); err != nil {
		return err
	}

	p.SabotageCooldown = g.limits.Sabotage
	logger.LogInfo("%s triggered %s", playerID, kind)
	g.play(CueSabotageAlarm)
	return nil
}

// HoldPanel 按下/松开反应堆面板。只有存活玩家可以按下，松开不检查存活。
func (g *GameSession) HoldPanel(playerID string, panelID int, holding bool) error {
	if !holding {
		if err := g.actionable(); err != nil {
			return err
		}
		if _, err := g.player(playerID); err != nil {
			return err
		}
		return g.sabotage.SetHolding(panelID, playerID, false)
	}
	if err := g.canRepair(playerID); err != nil {
		return err
	}
	return g.sabotage.SetHolding(panelID, playerID, true)
}

// EnterCode 在氧气面板输入密码
func (g *GameSession) EnterCode(playerID string, panelID int, code string) error {
	if err := g.canRepair(playerID); err != nil {
		return err
	}
	return g.sabotage.SubmitCode(panelID, code)
}

func (g *GameSession) canRepair(playerID string) error {
	if err := g.actionable(); err != nil {
		return err
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	if !p.Alive {
		return apperrors.ErrPlayerDead
	}
	return nil
}

// CastVote 会议投票，targetID 为空表示弃票
func (g *GameSession) CastVote(voterID, targetID string) error {
	if g.Over() {
		return apperrors.ErrGameOver
	}
	if err := g.meeting.CastVote(voterID, targetID); err != nil {
		return err
	}
	g.play(CueVote)
	return nil
}

// CallMeeting 召开紧急会议或报告尸体。bodyID 非空时必须是尚未被报告的尸体。
// 会议开始时清空尸体，关闭所有打开中的任务并松开反应堆面板。
func (g *GameSession) CallMeeting(callerID, bodyID string) error {
	if g.Over() {
		return apperrors.ErrGameOver
	}
	if bodyID != "" && !g.hasBody(bodyID) {
		if _, ok := g.roster.Get(bodyID); !ok {
			return apperrors.ErrUnknownPlayer
		}
		return apperrors.ErrInvalidTarget
	}
	if err := g.meeting.Trigger(callerID); err != nil {
		return err
	}

	g.bodies = nil
	for _, p := range g.roster.All() {
		g.tasks.Cancel(p.ID)
	}
	g.sabotage.ReleaseHolds()

	if bodyID != "" {
		logger.LogInfo("%s reported the body of %s", callerID, bodyID)
	} else {
		logger.LogInfo("%s called an emergency meeting", callerID)
	}
	g.play(CueMeeting)
	return nil
}

func (g *GameSession) hasBody(id string) bool {
	for _, b := range g.bodies {
		if b.PlayerID == id {
			return true
		}
	}
	return false
}

// Kill 内鬼击杀船员：击杀者存活且冷却为 0，目标为存活船员。
// 目标留下尸体，击杀冷却重置，随后判定胜负。
func (g *GameSession) Kill(killerID, targetID string) error {
	if err := g.actionable(); err != nil {
		return err
	}
	killer, err := g.player(killerID)
	if err != nil {
		return err
	}
	target, err := g.player(targetID)
	if err != nil {
		return err
	}
	if !killer.Alive {
		return apperrors.ErrPlayerDead
	}
	if !killer.IsImpostor() {
		return apperrors.ErrNotImpostor
	}
	if killer.KillCooldown > 0 {
		return apperrors.ErrCooldown
	}
	if !target.Alive || target.IsImpostor() {
		return apperrors.ErrInvalidTarget
	}

	target.Alive = false
	killer.KillCooldown = g.limits.Kill
	g.tasks.Cancel(target.ID)
	g.sabotage.ReleaseHoldsBy(target.ID)
	g.bodies = append(g.bodies, Body{PlayerID: target.ID, KillerID: killer.ID})
	logger.LogInfo("%s was killed", target.ID)
	g.play(CueKill)

	if res, ok := rule.Evaluate(g.roster.All()); ok {
		g.finish(res, true)
	}
	return nil
}

// Vent 内鬼使用管道，只影响本地冷却，不广播
func (g *GameSession) Vent(playerID string) error {
	if err := g.actionable(); err != nil {
		return err
	}
	p, err := g.player(playerID)
	if err != nil {
		return err
	}
	if !p.IsImpostor() {
		return apperrors.ErrNotImpostor
	}
	if !p.Alive {
		return apperrors.ErrPlayerDead
	}
	if p.VentCooldown > 0 {
		return apperrors.ErrCooldown
	}
	p.VentCooldown = g.limits.Vent
	return nil
}
