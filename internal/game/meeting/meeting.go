// Package meeting implements the emergency meeting: intro, voting, results
// and ejection, with vote tallying and the tie rule.
package meeting

import (
	"fmt"
	"time"

	"github.com/palemoky/among-the-stars/internal/apperrors"
	"github.com/palemoky/among-the-stars/internal/game/player"
)

// Skip 弃票目标
const Skip = ""

// Transition 一次阶段切换
type Transition struct {
	From, To  Phase
	EjectedID string // 仅在进入 Ejection 时设置
	WasTie    bool   // 进入 Results 时的计票结果
}

// Machine 会议状态机
type Machine struct {
	roster    *player.Roster
	durations Durations

	// EndVotingEarly 所有存活玩家都投票后立即结束投票阶段
	EndVotingEarly bool

	phase    Phase
	timer    time.Duration
	callerID string
	votes    map[string]string // voter -> target，Skip 表示弃票

	ejectedID string
	wasTie    bool
	reveal    string
}

// NewMachine 创建会议状态机
func NewMachine(roster *player.Roster, d Durations) *Machine {
	return &Machine{
		roster:         roster,
		durations:      d,
		EndVotingEarly: true,
		votes:          make(map[string]string),
	}
}

// Trigger 召开会议，只能在没有会议时调用
func (m *Machine) Trigger(callerID string) error {
	if m.phase != None {
		return apperrors.ErrWrongPhase
	}
	caller, ok := m.roster.Get(callerID)
	if !ok {
		return apperrors.ErrUnknownPlayer
	}
	if !caller.Alive {
		return apperrors.ErrPlayerDead
	}

	m.votes = make(map[string]string)
	m.roster.ResetVotes()
	m.callerID = callerID
	m.ejectedID = ""
	m.wasTie = false
	m.reveal = ""
	m.enter(Intro)
	return nil
}

// CastVote 投票。target 为 Skip 表示弃票。
func (m *Machine) CastVote(voterID, targetID string) error {
	if m.phase != Voting {
		return apperrors.ErrWrongPhase
	}
	voter, ok := m.roster.Get(voterID)
	if !ok {
		return apperrors.ErrUnknownPlayer
	}
	if !voter.Alive {
		return apperrors.ErrPlayerDead
	}
	if voter.HasVoted {
		return apperrors.ErrAlreadyVoted
	}
	if targetID == voterID {
		return apperrors.ErrVoteSelf
	}

	var target *player.Player
	if targetID != Skip {
		target, ok = m.roster.Get(targetID)
		if !ok {
			return apperrors.ErrUnknownPlayer
		}
		if !target.Alive {
			return apperrors.ErrInvalidTarget
		}
	}

	m.votes[voterID] = targetID
	voter.HasVoted = true
	if target != nil {
		target.VotesReceived++
	}

	if m.EndVotingEarly && m.allVoted() {
		m.timer = 0
	}
	return nil
}

func (m *Machine) allVoted() bool {
	for _, p := range m.roster.Alive() {
		if !p.HasVoted {
			return false
		}
	}
	return true
}

// Tally 计票。弃票单独计数并参与最高票比较：
// 最高票大于 0 且不止一项（目标或弃票）并列时为平票，无人被投出；
// 无人投票时不放逐也不算平票；弃票单独最高时不放逐。
func (m *Machine) Tally() (ejectedID string, wasTie bool) {
	return Tally(m.votes)
}

// Tally 对一组选票计票，votes 为 voter -> target
func Tally(votes map[string]string) (ejectedID string, wasTie bool) {
	counts := make(map[string]int)
	skips := 0
	for _, target := range votes {
		if target == Skip {
			skips++
		} else {
			counts[target]++
		}
	}

	highest := skips
	for _, n := range counts {
		highest = max(highest, n)
	}
	if highest == 0 {
		return "", false
	}

	leaders := 0
	leader := ""
	for target, n := range counts {
		if n == highest {
			leaders++
			leader = target
		}
	}
	if skips == highest {
		leaders++
		leader = Skip
	}

	if leaders > 1 {
		return "", true
	}
	return leader, false
}

// Advance 推进会议计时，返回本次发生的所有阶段切换
func (m *Machine) Advance(dt time.Duration) []Transition {
	if m.phase == None {
		return nil
	}

	m.timer -= dt
	var out []Transition
	for m.phase != None && m.timer <= 0 {
		from := m.phase
		m.enter(Next(from, m.ejectedID != ""))

		tr := Transition{From: from, To: m.phase, WasTie: m.wasTie}
		if m.phase == Ejection {
			tr.EjectedID = m.ejectedID
		}
		out = append(out, tr)
	}
	return out
}

func (m *Machine) enter(p Phase) {
	m.phase = p
	switch p {
	case Intro:
		m.timer = m.durations.Intro
	case Voting:
		m.timer = m.durations.Voting
	case Results:
		m.ejectedID, m.wasTie = m.Tally()
		m.timer = m.durations.Results
	case Ejection:
		if ejected, ok := m.roster.Get(m.ejectedID); ok {
			ejected.Alive = false
			m.reveal = RevealText(ejected)
		}
		m.timer = m.durations.RevealTime(m.reveal)
	case None:
		m.timer = 0
	}
}

// RevealText 放逐时展示的文字
func RevealText(p *player.Player) string {
	if p.IsImpostor() {
		return fmt.Sprintf("%s was an Impostor.", p.Name)
	}
	return fmt.Sprintf("%s was not an Impostor.", p.Name)
}

// Abort 对局结束时直接关闭会议
func (m *Machine) Abort() {
	m.phase = None
	m.timer = 0
}

// Phase 当前阶段
func (m *Machine) Phase() Phase { return m.phase }

// Active 是否在会议中
func (m *Machine) Active() bool { return m.phase != None }

// Timer 当前阶段剩余时间
func (m *Machine) Timer() time.Duration { return m.timer }

// CallerID 本次会议发起人
func (m *Machine) CallerID() string { return m.callerID }

// Result 最近一次计票结果
func (m *Machine) Result() (ejectedID string, wasTie bool) { return m.ejectedID, m.wasTie }

// Reveal 放逐文字
func (m *Machine) Reveal() string { return m.reveal }

// Votes 返回选票副本
func (m *Machine) Votes() map[string]string {
	out := make(map[string]string, len(m.votes))
	for k, v := range m.votes {
		out[k] = v
	}
	return out
}
