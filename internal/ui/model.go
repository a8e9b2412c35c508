// Package ui is the terminal peer console: it joins a relay room, lets the
// host start a match, drives the session from a ticker and turns typed
// commands into local events.
package ui

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/among-the-stars/internal/config"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
	"github.com/palemoky/among-the-stars/internal/game/session"
	"github.com/palemoky/among-the-stars/internal/logger"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
	"github.com/palemoky/among-the-stars/internal/transport"
)

// 事件记录保留的行数
const feedSize = 8

// Phase 控制台所处阶段
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseLobby
	PhaseGame
)

// Link 到中继的连接，transport.Client 实现了它
type Link interface {
	Connect() error
	SendMessage(msg *protocol.Message) error
	Receive() (*protocol.Message, error)
	PeerID() string
	Peers() []protocol.PlayerSetup
	IsHost() bool
	Close()
}

var _ Link = (*transport.Client)(nil)

// Options 控制台依赖
type Options struct {
	Link      Link
	Game      config.GameConfig
	Map       *mapdef.Map
	Sound     session.SoundPlayer
	Room      string
	Reconnect <-chan tea.Msg
}

// Model 控制台主模型
type Model struct {
	link    Link
	game    config.GameConfig
	gameMap *mapdef.Map
	sound   session.SoundPlayer
	room    string

	phase   Phase
	session *session.GameSession
	result  string

	input  textinput.Model
	feed   []string
	err    string
	notice string
	width  int
	height int

	lastTick      time.Time
	reconnectChan <-chan tea.Msg

	seed func() uint64
	now  func() time.Time
}

// NewModel 创建控制台
func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "输入命令，help 查看帮助"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()

	m := opts.Map
	if m == nil {
		m = mapdef.Default()
	}

	return &Model{
		link:          opts.Link,
		game:          opts.Game,
		gameMap:       m,
		sound:         opts.Sound,
		room:          opts.Room,
		phase:         PhaseConnecting,
		input:         ti,
		reconnectChan: opts.Reconnect,
		seed:          rand.Uint64,
		now:           time.Now,
	}
}

// ReconnectHooks 把 transport 的重连回调转成 tea 消息
func ReconnectHooks(c *transport.Client) <-chan tea.Msg {
	ch := make(chan tea.Msg, 10)
	c.OnReconnecting = func(attempt, maxTries int) {
		select {
		case ch <- ReconnectingMsg{Attempt: attempt, MaxTries: maxTries}:
		default:
		}
	}
	c.OnReconnect = func() {
		select {
		case ch <- ReconnectSuccessMsg{}:
		default:
		}
	}
	return ch
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.connect(),
		textinput.Blink,
		m.listenForReconnect(),
	)
}

func (m *Model) connect() tea.Cmd {
	return func() tea.Msg {
		if err := m.link.Connect(); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

func (m *Model) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.link.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func (m *Model) listenForReconnect() tea.Cmd {
	if m.reconnectChan == nil {
		return nil
	}
	return func() tea.Msg {
		return <-m.reconnectChan
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.game.TickInterval(), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ConnectedMsg:
		m.phase = PhaseLobby
		m.err = ""
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		m.err = fmt.Sprintf("无法连接到中继: %v\n\n按 ESC 退出", msg.Err)
		if m.phase == PhaseConnecting || errors.Is(msg.Err, transport.ErrClosed) {
			m.phase = PhaseConnecting
		}

	case ReconnectingMsg:
		m.notice = fmt.Sprintf("🔄 正在重连 (%d/%d)...", msg.Attempt, msg.MaxTries)
		cmds = append(cmds, m.listenForReconnect())

	case ReconnectSuccessMsg:
		m.notice = "✅ 重连成功！"
		cmds = append(cmds, m.listenForReconnect(), tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return ClearNoticeMsg{}
		}))

	case ClearNoticeMsg:
		m.notice = ""

	case ServerMessage:
		if cmd := m.handleServerMessage(msg.Msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listenForMessages())

	case TickMsg:
		if cmd := m.advance(time.Time(msg)); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.link.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			if cmd := m.runCommand(line); cmd != nil {
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleServerMessage 中继控制消息更新大厅，对局消息交给会话
func (m *Model) handleServerMessage(msg *protocol.Message) tea.Cmd {
	switch msg.Type {
	case protocol.MsgWelcome:
		if p, err := codec.ParsePayload[protocol.WelcomePayload](msg); err == nil {
			m.room = p.Room
			m.logf("🚪 已加入房间 %s，你的 ID 是 %s", p.Room, p.PeerID)
		}

	case protocol.MsgPeerJoined:
		if p, err := codec.ParsePayload[protocol.PeerPayload](msg); err == nil {
			m.logf("➕ %s 加入了房间", p.Name)
		}

	case protocol.MsgPeerLeft:
		if p, err := codec.ParsePayload[protocol.PeerPayload](msg); err == nil {
			m.logf("➖ %s 离开了房间", p.Name)
		}

	case protocol.MsgError:
		if p, err := codec.ParsePayload[protocol.ErrorPayload](msg); err == nil {
			m.err = p.Message
		}

	case protocol.MsgGameStart:
		p, err := codec.ParsePayload[protocol.GameStartPayload](msg)
		if err != nil {
			return nil
		}
		return m.startSession(p)

	default:
		if msg.Type.IsGameplay() && m.session != nil {
			if err := m.session.Deliver(msg); err != nil {
				logger.LogWarn("丢弃 %s: %v", msg.Type, err)
			}
		}
	}
	return nil
}

// hostStart 房主生成对局参数，广播后本地同样开局
func (m *Model) hostStart() tea.Cmd {
	if !m.link.IsHost() {
		m.err = "只有房主可以开局"
		return nil
	}
	if m.session != nil && !m.session.Over() {
		m.err = "对局进行中"
		return nil
	}

	p := &protocol.GameStartPayload{
		Seed:      m.seed(),
		Players:   m.link.Peers(),
		Impostors: m.game.Impostors,
		Map:       m.gameMap.Name,
	}
	if err := m.link.SendMessage(codec.MustNewMessage(protocol.MsgGameStart, p)); err != nil {
		m.err = fmt.Sprintf("发送失败: %v", err)
		return nil
	}
	return m.startSession(p)
}

func (m *Model) startSession(p *protocol.GameStartPayload) tea.Cmd {
	if p.Map != "" && p.Map != m.gameMap.Name {
		logger.LogWarn("房主地图 %q 与本地地图 %q 不一致", p.Map, m.gameMap.Name)
	}

	opts := []session.Option{session.WithRally(m)}
	if m.sound != nil {
		opts = append(opts, session.WithSound(m.sound))
	}
	s, err := session.New(session.SetupFromPayload(p, m.gameMap, m.link.PeerID(), m.game), opts...)
	if err != nil {
		m.err = fmt.Sprintf("无法开局: %v", err)
		return nil
	}

	if m.session != nil {
		m.session.Finalize()
	}
	m.session = s
	m.result = ""
	m.err = ""
	m.phase = PhaseGame
	m.lastTick = m.now()

	if me, ok := s.Roster().Get(s.LocalID()); ok {
		m.logf("🎮 对局开始！你的身份: %s", me.Role)
	} else {
		m.logf("🎮 对局开始！你在观战")
	}
	return m.tick()
}

// advance 推进会话并把本地事件发往中继，对局结束后停止计时
func (m *Model) advance(now time.Time) tea.Cmd {
	if m.session == nil || m.session.State() == session.GameStateFinalized {
		return nil
	}

	dt := now.Sub(m.lastTick)
	m.lastTick = now
	if dt < 0 {
		dt = 0
	}
	m.session.Advance(dt)

	if m.session.Over() {
		res := m.session.Finalize()
		m.flushOutbound()
		m.result = fmt.Sprintf("🏁 %s 获胜 (%s)", res.Winner, res.Reason)
		m.logf("%s", m.result)
		return nil
	}
	m.flushOutbound()
	return m.tick()
}

func (m *Model) flushOutbound() {
	for {
		select {
		case msg, ok := <-m.session.Outbound():
			if !ok {
				return
			}
			if err := m.link.SendMessage(msg); err != nil {
				logger.LogWarn("发送 %s 失败: %v", msg.Type, err)
			}
		default:
			return
		}
	}
}

// ReturnToRally 会议结束后存活玩家回到集合点
func (m *Model) ReturnToRally(ids []string, point mapdef.Point) {
	m.logf("📍 %d 名玩家回到集合点 (%.0f, %.0f)", len(ids), point.X, point.Y)
}

func (m *Model) logf(format string, args ...any) {
	m.feed = append(m.feed, fmt.Sprintf(format, args...))
	if len(m.feed) > feedSize {
		m.feed = m.feed[len(m.feed)-feedSize:]
	}
}

// Phase 当前阶段
func (m *Model) Phase() Phase { return m.phase }

// Session 当前会话，开局前为 nil
func (m *Model) Session() *session.GameSession { return m.session }

// View renders the model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case PhaseConnecting:
		content = m.connectingView()
	case PhaseLobby:
		content = m.lobbyView()
	default:
		content = m.gameView()
	}
	return DocStyle.Render(content)
}

func (m *Model) connectingView() string {
	text := "正在连接中继..."
	if m.err != "" {
		text = ErrorStyle.Render(m.err)
	}
	if m.width == 0 {
		return text
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}
