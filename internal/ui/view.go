package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/among-the-stars/internal/game/meeting"
	"github.com/palemoky/among-the-stars/internal/game/player"
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
	"github.com/palemoky/among-the-stars/internal/game/session"
)

const barWidth = 20

func (m *Model) lobbyView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle(fmt.Sprintf("🌌 Among the Stars · 房间 %s", m.room)))
	sb.WriteString("\n\n")

	for i, p := range m.link.Peers() {
		line := fmt.Sprintf("%d. %s", i+1, p.Name)
		if i == 0 {
			line += " 👑"
		}
		if p.ID == m.link.PeerID() {
			line += DimStyle.Render(" (你)")
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n")
	if m.link.IsHost() {
		sb.WriteString("输入 start 开局\n")
	} else {
		sb.WriteString(DimStyle.Render("等待房主开局...") + "\n")
	}
	return m.withFooter(sb.String())
}

func (m *Model) gameView() string {
	s := m.session
	var sections []string

	sections = append(sections, TitleStyle(fmt.Sprintf("🌌 Among the Stars · %s", m.gameMap.Name)))
	sections = append(sections, m.selfView(s))

	if s.Sabotage().State() == sabotage.Active {
		sections = append(sections, sabotageView(s))
	}
	if s.Meeting().Active() {
		sections = append(sections, meetingView(s))
	}

	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(m.tasksView(s)),
		BoxStyle.Render(m.playersView(s)),
	))

	if m.result != "" {
		sections = append(sections, TitleStyle(m.result))
	}
	return m.withFooter(strings.Join(sections, "\n"))
}

func (m *Model) selfView(s *session.GameSession) string {
	me, ok := s.Roster().Get(s.LocalID())
	if !ok {
		return DimStyle.Render("观战中")
	}

	var line string
	if me.IsImpostor() {
		line = ImpostorStyle.Render(ImpostorIcon + " 内鬼")
		line += fmt.Sprintf("  击杀 %s · 管道 %s · 破坏 %s",
			cooldown(me.KillCooldown), cooldown(me.VentCooldown), cooldown(me.SabotageCooldown))
	} else {
		line = CrewStyle.Render(CrewIcon + " 船员")
	}
	if !me.Alive {
		line += "  " + GhostIcon + " 你已死亡"
	}

	done, total := s.Tasks().Counts()
	return fmt.Sprintf("%s\n任务进度 %s %d/%d", line, progressBar(s.Tasks().Progress()), done, total)
}

func sabotageView(s *session.GameSession) string {
	c := s.Sabotage()
	var sb strings.Builder
	sb.WriteString(AlarmStyle.Render(fmt.Sprintf(" %s %s 被破坏！剩余 %.0fs ", AlarmIcon, c.Active(), c.Remaining().Seconds())))
	sb.WriteString("\n")
	if c.Active() == sabotage.LifeSupport {
		sb.WriteString(fmt.Sprintf("密码: %s\n", c.Code()))
	}
	for _, p := range c.PanelsOf(c.Active()) {
		state := "○"
		if p.Holding || p.Completed {
			state = "●"
		}
		sb.WriteString(fmt.Sprintf("  %s 面板 %d · %s\n", state, p.ID, p.Room))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func meetingView(s *session.GameSession) string {
	mt := s.Meeting()
	var sb strings.Builder
	sb.WriteString(TitleStyle(fmt.Sprintf("📢 会议 · %s · %.0fs", mt.Phase(), mt.Timer().Seconds())))
	sb.WriteString("\n")

	switch mt.Phase() {
	case meeting.Voting:
		sb.WriteString(fmt.Sprintf("已投票 %d/%d，输入 vote <玩家> 或 skip", len(mt.Votes()), len(s.Roster().Alive())))
	case meeting.Results:
		if _, tie := mt.Result(); tie {
			sb.WriteString("平票，无人被放逐")
		} else if id, _ := mt.Result(); id == "" {
			sb.WriteString("无人被放逐")
		}
	case meeting.Ejection:
		sb.WriteString(mt.Reveal())
	}
	return sb.String()
}

func (m *Model) tasksView(s *session.GameSession) string {
	var sb strings.Builder
	sb.WriteString("📋 任务\n")
	active, hasActive := s.Tasks().Active(s.LocalID())
	for _, t := range s.Tasks().Owned(s.LocalID()) {
		mark := "□"
		switch {
		case t.Completed:
			mark = "✓"
		case !t.Enabled:
			mark = "🔒"
		case hasActive && t.ID == active:
			mark = "▶"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", mark, t.ID, t.Name, t.Room))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) playersView(s *session.GameSession) string {
	me, _ := s.Roster().Get(s.LocalID())
	reveal := s.Over() || (me != nil && me.IsImpostor())

	bodies := make(map[string]bool)
	for _, b := range s.Bodies() {
		bodies[b.PlayerID] = true
	}

	var sb strings.Builder
	sb.WriteString("👥 玩家\n")
	for i, p := range s.Roster().All() {
		sb.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, playerLabel(p, reveal), status(p, bodies[p.ID])))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func playerLabel(p *player.Player, reveal bool) string {
	if reveal && p.IsImpostor() {
		return ImpostorStyle.Render(p.Name)
	}
	return p.Name
}

func status(p *player.Player, body bool) string {
	switch {
	case body:
		return " 💀 (尸体)"
	case !p.Alive:
		return " " + GhostIcon
	case p.HasVoted:
		return " 🗳️"
	}
	return ""
}

func (m *Model) withFooter(content string) string {
	var sb strings.Builder
	sb.WriteString(content)
	sb.WriteString("\n\n")
	for _, line := range m.feed {
		sb.WriteString(DimStyle.Render(line) + "\n")
	}
	if m.notice != "" {
		sb.WriteString(m.notice + "\n")
	}
	if m.err != "" {
		sb.WriteString(ErrorStyle.Render(m.err) + "\n")
	}
	sb.WriteString(PromptStyle.Render(m.input.View()))
	return sb.String()
}

func progressBar(frac float64) string {
	filled := int(frac * barWidth)
	filled = max(0, min(barWidth, filled))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

func cooldown(d time.Duration) string {
	if d <= 0 {
		return "✓"
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
