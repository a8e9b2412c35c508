package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/among-the-stars/internal/game/player"
	"github.com/palemoky/among-the-stars/internal/game/sabotage"
)

var (
	errNoGame      = errors.New("对局尚未开始")
	errUsage       = errors.New("参数错误，输入 help 查看用法")
	errUnknownName = errors.New("找不到该玩家")
)

const helpText = `start               房主开局
task <id>           打开任务        done <id>   完成任务      cancel  关闭任务
kill <玩家>         击杀            report <玩家> 报告尸体    meeting 紧急会议
vote <玩家>         投票            skip        弃票
sabotage <reactor|life_support>     vent        使用管道
hold <面板>         按住反应堆面板  release <面板> 松开
code <面板> <密码>  输入氧气密码    quit        退出
玩家可以用序号、ID 或昵称表示`

// runCommand 解析并执行一行输入
func (m *Model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	m.err = ""
	switch name {
	case "help", "h", "?":
		m.logf("%s", helpText)
		return nil
	case "quit", "exit", "q":
		m.link.Close()
		return tea.Quit
	case "start":
		return m.hostStart()
	}

	if err := m.gameCommand(name, args); err != nil {
		m.err = err.Error()
	}
	return nil
}

// gameCommand 对局内命令，全部经由会话队列在下一个 Tick 生效
func (m *Model) gameCommand(name string, args []string) error {
	s := m.session
	if s == nil || s.Over() {
		return errNoGame
	}

	switch name {
	case "task", "done":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		if name == "task" {
			return s.SendTaskStart(id)
		}
		return s.SendTaskComplete(id)

	case "cancel":
		return s.SendTaskCancel()

	case "kill", "report", "vote":
		if len(args) < 1 {
			return errUsage
		}
		p, err := m.resolvePlayer(args[0])
		if err != nil {
			return err
		}
		switch name {
		case "kill":
			return s.SendKill(p.ID)
		case "report":
			return s.SendMeeting(p.ID)
		default:
			return s.SendVote(p.ID)
		}

	case "meeting":
		return s.SendMeeting("")

	case "skip":
		return s.SendVote("")

	case "sabotage":
		if len(args) < 1 {
			return errUsage
		}
		kind, ok := sabotage.ParseKind(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("未知的破坏类型: %s", args[0])
		}
		return s.SendSabotage(kind)

	case "hold", "release":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return s.SendPanelHold(id, name == "hold")

	case "code":
		id, err := intArg(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errUsage
		}
		return s.SendKeypadEntry(id, args[1])

	case "vent":
		// 管道只影响本地冷却，立即生效
		if err := s.Vent(s.LocalID()); err != nil {
			return err
		}
		m.logf("🕳️ 你钻进了管道")
		return nil
	}
	return fmt.Errorf("未知命令: %s", name)
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errUsage
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, errUsage
	}
	return v, nil
}

// resolvePlayer 序号（从 1 开始）、ID 或昵称
func (m *Model) resolvePlayer(ref string) (*player.Player, error) {
	all := m.session.Roster().All()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(all) {
		return all[n-1], nil
	}
	for _, p := range all {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, errUnknownName
}
