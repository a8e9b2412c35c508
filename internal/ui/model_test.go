package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/among-the-stars/internal/config"
	"github.com/palemoky/among-the-stars/internal/game/mapdef"
	"github.com/palemoky/among-the-stars/internal/game/meeting"
	"github.com/palemoky/among-the-stars/internal/game/session"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

// fakeLink 记录发送的消息，Receive 永远阻塞
type fakeLink struct {
	id    string
	peers []protocol.PlayerSetup

	mu     sync.Mutex
	sent   []*protocol.Message
	closed bool
}

func (f *fakeLink) Connect() error { return nil }

func (f *fakeLink) SendMessage(msg *protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeLink) Receive() (*protocol.Message, error) { select {} }
func (f *fakeLink) PeerID() string                      { return f.id }
func (f *fakeLink) Peers() []protocol.PlayerSetup       { return f.peers }
func (f *fakeLink) IsHost() bool                        { return len(f.peers) > 0 && f.peers[0].ID == f.id }

func (f *fakeLink) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeLink) Sent(t protocol.MessageType) []*protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*protocol.Message
	for _, m := range f.sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

var (
	testPeers = []protocol.PlayerSetup{{ID: "a", Name: "Red"}, {ID: "b", Name: "Blue"}, {ID: "c", Name: "Green"}}
	baseTime  = time.Unix(1_700_000_000, 0)
)

func (f *fakeLink) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestModel(id string) (*Model, *fakeLink) {
	link := &fakeLink{id: id, peers: testPeers}
	m := NewModel(Options{Link: link, Game: config.Default().Game, Room: "ROOM"})
	m.seed = func() uint64 { return 42 }
	m.now = func() time.Time { return baseTime }
	m.Update(ConnectedMsg{})
	return m, link
}

// startMatch 房主开局，并把 game_start 转给其他模型
func startMatch(t *testing.T, host *Model, hostLink *fakeLink, peers ...*Model) *protocol.Message {
	t.Helper()
	host.runCommand("start")
	sent := hostLink.Sent(protocol.MsgGameStart)
	require.Len(t, sent, 1)
	for _, p := range peers {
		p.Update(ServerMessage{Msg: sent[0]})
	}
	return sent[0]
}

func step(m *Model, dt time.Duration) {
	m.Update(TickMsg(m.lastTick.Add(dt)))
}

func TestModel_ConnectedEntersLobby(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel("a")
	assert.Equal(t, PhaseLobby, m.Phase())
	assert.Nil(t, m.Session())

	view := m.View()
	assert.Contains(t, view, "Red")
	assert.Contains(t, view, "start")
}

func TestModel_ConnectionError(t *testing.T) {
	t.Parallel()

	link := &fakeLink{id: "a"}
	m := NewModel(Options{Link: link, Game: config.Default().Game})
	m.Update(ConnectionErrorMsg{Err: errors.New("refused")})

	assert.Equal(t, PhaseConnecting, m.Phase())
	assert.Contains(t, m.View(), "refused")
}

func TestModel_HostStart(t *testing.T) {
	t.Parallel()

	m, link := newTestModel("a")
	msg := startMatch(t, m, link)

	p, err := codec.ParsePayload[protocol.GameStartPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.Seed)
	assert.Equal(t, testPeers, p.Players)
	assert.Equal(t, 1, p.Impostors)

	assert.Equal(t, PhaseGame, m.Phase())
	require.NotNil(t, m.Session())
	assert.Equal(t, "a", m.Session().LocalID())
	assert.True(t, m.Session().IsHost())
	assert.Contains(t, m.View(), "任务")

	// 对局进行中不能再次开局
	m.runCommand("start")
	assert.Len(t, link.Sent(protocol.MsgGameStart), 1)
	assert.NotEmpty(t, m.err)
}

func TestModel_OnlyHostStarts(t *testing.T) {
	t.Parallel()

	m, link := newTestModel("b")
	m.runCommand("start")

	assert.Empty(t, link.Sent(protocol.MsgGameStart))
	assert.Equal(t, PhaseLobby, m.Phase())
	assert.Equal(t, "只有房主可以开局", m.err)
}

func TestModel_PeersBuildIdenticalSessions(t *testing.T) {
	t.Parallel()

	host, hostLink := newTestModel("a")
	peer, _ := newTestModel("b")
	startMatch(t, host, hostLink, peer)

	require.NotNil(t, peer.Session())
	assert.Equal(t, "b", peer.Session().LocalID())
	for _, p := range host.Session().Roster().All() {
		q, ok := peer.Session().Roster().Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, p.Role, q.Role, "role of %s", p.ID)
	}
	assert.Len(t, peer.Session().Tasks().All(), len(host.Session().Tasks().All()))
}

func TestModel_TickForwardsLocalEvents(t *testing.T) {
	t.Parallel()

	host, hostLink := newTestModel("a")
	peer, _ := newTestModel("b")
	startMatch(t, host, hostLink, peer)

	host.runCommand("meeting")
	assert.Empty(t, host.err)
	step(host, 33*time.Millisecond)

	sent := hostLink.Sent(protocol.MsgMeetingCalled)
	require.Len(t, sent, 1)
	assert.Equal(t, meeting.Intro, host.Session().Meeting().Phase())

	// 中继补全 Sender 后送达其他端
	sent[0].Sender = "a"
	peer.Update(ServerMessage{Msg: sent[0]})
	step(peer, 33*time.Millisecond)
	assert.Equal(t, meeting.Intro, peer.Session().Meeting().Phase())
	assert.Equal(t, "a", peer.Session().Meeting().CallerID())
}

func TestModel_RemoteGameOverStopsTicking(t *testing.T) {
	t.Parallel()

	host, hostLink := newTestModel("a")
	peer, _ := newTestModel("b")
	startMatch(t, host, hostLink, peer)

	over := codec.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{Winner: "impostors", Reason: "sabotage"})
	over.Sender = "a"
	peer.Update(ServerMessage{Msg: over})
	step(peer, 33*time.Millisecond)

	assert.Equal(t, session.GameStateFinalized, peer.Session().State())
	assert.Contains(t, peer.result, "impostors")
	assert.Nil(t, peer.advance(peer.lastTick.Add(time.Second)))

	// 结束后的命令被拒绝
	peer.runCommand("meeting")
	assert.Equal(t, errNoGame.Error(), peer.err)
}

func TestModel_HostRestartsAfterGameOver(t *testing.T) {
	t.Parallel()

	host, hostLink := newTestModel("a")
	startMatch(t, host, hostLink)
	first := host.Session()

	over := codec.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{Winner: "crewmates"})
	over.Sender = "b"
	host.Update(ServerMessage{Msg: over})
	step(host, 33*time.Millisecond)
	require.True(t, first.Over())

	host.runCommand("start")
	assert.Len(t, hostLink.Sent(protocol.MsgGameStart), 2)
	assert.NotSame(t, first, host.Session())
	assert.False(t, host.Session().Over())
}

func TestModel_Commands(t *testing.T) {
	t.Parallel()

	m, link := newTestModel("a")

	m.runCommand("task 1")
	assert.Equal(t, errNoGame.Error(), m.err)

	startMatch(t, m, link)

	tests := []struct {
		line string
		want string
	}{
		{"task", errUsage.Error()},
		{"task x", errUsage.Error()},
		{"kill nobody", errUnknownName.Error()},
		{"vote", errUsage.Error()},
		{"sabotage meteor", "未知的破坏类型: meteor"},
		{"code 1", errUsage.Error()},
		{"dance", "未知命令: dance"},
		{"cancel", ""},
		{"skip", ""},
	}
	for _, tt := range tests {
		m.runCommand(tt.line)
		assert.Equal(t, tt.want, m.err, tt.line)
	}

	assert.Nil(t, m.runCommand("   "))
	m.runCommand("help")
	assert.Contains(t, m.feed[len(m.feed)-1], "start")
}

func TestModel_ResolvePlayer(t *testing.T) {
	t.Parallel()

	m, link := newTestModel("a")
	startMatch(t, m, link)

	for _, ref := range []string{"2", "b", "blue", "BLUE"} {
		p, err := m.resolvePlayer(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "b", p.ID)
	}
	_, err := m.resolvePlayer("4")
	assert.ErrorIs(t, err, errUnknownName)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m, link := newTestModel("a")
	cmd := m.runCommand("quit")
	assert.NotNil(t, cmd)
	assert.True(t, link.isClosed())
}

func TestModel_FeedKeepsLastLines(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel("a")
	for i := range feedSize + 3 {
		m.logf("line %d", i)
	}
	assert.Len(t, m.feed, feedSize)
	assert.Equal(t, "line 10", m.feed[feedSize-1])
}

func TestModel_RallyAndReconnectNotices(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel("a")
	m.ReturnToRally([]string{"a", "b"}, mapdef.Point{X: 10, Y: 20})
	assert.Contains(t, m.feed[len(m.feed)-1], "2 名玩家回到集合点 (10, 20)")

	m.Update(ReconnectingMsg{Attempt: 2, MaxTries: 5})
	assert.Contains(t, m.View(), "正在重连 (2/5)")

	m.Update(ReconnectSuccessMsg{})
	assert.Contains(t, m.View(), "重连成功")

	m.Update(ClearNoticeMsg{})
	assert.Empty(t, m.notice)
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "["+repeat("░", barWidth)+"]", progressBar(0))
	assert.Equal(t, "["+repeat("█", barWidth)+"]", progressBar(1))
	assert.Equal(t, "["+repeat("█", barWidth/2)+repeat("░", barWidth/2)+"]", progressBar(0.5))
	assert.Equal(t, "✓", cooldown(0))
	assert.Equal(t, "3s", cooldown(3*time.Second))
}

func repeat(s string, n int) string {
	out := ""
	for range n {
		out += s
	}
	return out
}
