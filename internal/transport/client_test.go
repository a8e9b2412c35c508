package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

// fakeRelay 回复 welcome 并回显其他消息
type fakeRelay struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	hellos []protocol.HelloPayload

	// dropFirst 为 true 时第一条连接在 welcome 之后被断开
	dropFirst bool
	conns     atomic.Int32
}

func (f *fakeRelay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()
	n := f.conns.Add(1)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := codec.Decode(data)
		if err != nil {
			return
		}

		if msg.Type != protocol.MsgHello {
			out, _ := codec.Encode(msg)
			_ = conn.WriteMessage(websocket.BinaryMessage, out)
			continue
		}

		hello, _ := codec.ParsePayload[protocol.HelloPayload](msg)
		f.mu.Lock()
		f.hellos = append(f.hellos, *hello)
		f.mu.Unlock()

		id := hello.PeerID
		if id == "" {
			id = "peer-1"
		}
		f.write(conn, codec.MustNewMessage(protocol.MsgWelcome, protocol.WelcomePayload{
			PeerID: id,
			Room:   hello.Room,
			Peers:  []protocol.PlayerSetup{{ID: "host", Name: "host"}, {ID: id, Name: hello.Name}},
		}))

		if f.dropFirst && n == 1 {
			return
		}
	}
}

func (f *fakeRelay) write(conn *websocket.Conn, msg *protocol.Message) {
	data, _ := codec.Encode(msg)
	_ = conn.WriteMessage(websocket.BinaryMessage, data)
}

func (f *fakeRelay) Hellos() []protocol.HelloPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.HelloPayload(nil), f.hellos...)
}

func startRelay(t *testing.T, f *fakeRelay) string {
	t.Helper()
	s := httptest.NewServer(f)
	t.Cleanup(s.Close)
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func receiveType(t *testing.T, c *Client, want protocol.MessageType) *protocol.Message {
	t.Helper()
	for {
		msg, err := c.ReceiveWithTimeout(2 * time.Second)
		require.NoError(t, err, "waiting for %s", want)
		if msg.Type == want {
			return msg
		}
	}
}

func TestClient_ConnectWelcome(t *testing.T) {
	t.Parallel()

	relay := &fakeRelay{}
	c := NewClient(startRelay(t, relay), "ROOM", "red")
	require.NoError(t, c.Connect())
	t.Cleanup(c.Close)

	receiveType(t, c, protocol.MsgWelcome)
	assert.Equal(t, "peer-1", c.PeerID())
	assert.Equal(t, []protocol.PlayerSetup{{ID: "host", Name: "host"}, {ID: "peer-1", Name: "red"}}, c.Peers())
	assert.False(t, c.IsHost())
	assert.True(t, c.IsConnected())

	hellos := relay.Hellos()
	require.Len(t, hellos, 1)
	assert.Equal(t, "ROOM", hellos[0].Room)
	assert.Empty(t, hellos[0].PeerID)
}

func TestClient_SendAndReceive(t *testing.T) {
	t.Parallel()

	c := NewClient(startRelay(t, &fakeRelay{}), "ROOM", "red")
	var seen atomic.Int32
	c.OnMessage = func(*protocol.Message) { seen.Add(1) }
	require.NoError(t, c.Connect())
	t.Cleanup(c.Close)
	receiveType(t, c, protocol.MsgWelcome)

	require.NoError(t, c.SendMessage(codec.MustNewMessage(protocol.MsgTaskStart, protocol.TaskPayload{TaskID: 3})))

	msg := receiveType(t, c, protocol.MsgTaskStart)
	p, err := codec.ParsePayload[protocol.TaskPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TaskID)
	assert.Equal(t, int32(2), seen.Load())
}

func TestClient_RosterUpdates(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://unused", "ROOM", "red")
	c.processMessage(codec.MustNewMessage(protocol.MsgWelcome, protocol.WelcomePayload{
		PeerID: "a",
		Peers:  []protocol.PlayerSetup{{ID: "a", Name: "red"}},
	}))
	assert.True(t, c.IsHost())

	c.processMessage(codec.MustNewMessage(protocol.MsgPeerJoined, protocol.PeerPayload{PeerID: "b", Name: "blue"}))
	c.processMessage(codec.MustNewMessage(protocol.MsgPeerJoined, protocol.PeerPayload{PeerID: "b", Name: "blue"}))
	assert.Len(t, c.Peers(), 2)

	c.processMessage(codec.MustNewMessage(protocol.MsgPeerLeft, protocol.PeerPayload{PeerID: "a"}))
	assert.Equal(t, []protocol.PlayerSetup{{ID: "b", Name: "blue"}}, c.Peers())
	assert.False(t, c.IsHost())
}

func TestClient_ReconnectResendsPeerID(t *testing.T) {
	t.Parallel()

	relay := &fakeRelay{dropFirst: true}
	c := NewClient(startRelay(t, relay), "ROOM", "red")
	c.ReconnectInterval = 10 * time.Millisecond

	reconnected := make(chan struct{}, 1)
	var attempts atomic.Int32
	c.OnReconnecting = func(int, int) { attempts.Add(1) }
	c.OnReconnect = func() { reconnected <- struct{}{} }

	require.NoError(t, c.Connect())
	t.Cleanup(c.Close)

	select {
	case <-reconnected:
	case <-time.After(3 * time.Second):
		t.Fatal("client did not reconnect")
	}

	hellos := relay.Hellos()
	require.Len(t, hellos, 2)
	assert.Equal(t, "peer-1", hellos[1].PeerID)
	assert.GreaterOrEqual(t, attempts.Load(), int32(1))
	assert.False(t, c.IsReconnecting())
}

func TestClient_CloseStopsEverything(t *testing.T) {
	t.Parallel()

	c := NewClient(startRelay(t, &fakeRelay{}), "ROOM", "red")
	require.NoError(t, c.Connect())
	receiveType(t, c, protocol.MsgWelcome)

	c.Close()
	c.Close()

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.SendMessage(codec.MustNewMessage(protocol.MsgTaskCancel, nil)), ErrClosed)
	_, err := c.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_ConnectFails(t *testing.T) {
	t.Parallel()

	c := NewClient("ws://127.0.0.1:1/ws", "ROOM", "red")
	assert.Error(t, c.Connect())
}
