package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
	"github.com/palemoky/among-the-stars/internal/testutil"
)

func newPeers(names ...string) []*testutil.SimpleClient {
	out := make([]*testutil.SimpleClient, len(names))
	for i, n := range names {
		out[i] = &testutil.SimpleClient{ID: "id-" + n, Name: n}
	}
	return out
}

func TestRoom_JoinOrderAndHost(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	peers := newPeers("red", "blue", "green")
	for _, p := range peers {
		require.NoError(t, room.Join(p, 10))
	}

	assert.Equal(t, "id-red", room.HostID())
	assert.Equal(t, 3, room.Len())
	assert.Equal(t, "ABCD", peers[1].GetRoom())
	assert.Equal(t, []protocol.PlayerSetup{
		{ID: "id-red", Name: "red"},
		{ID: "id-blue", Name: "blue"},
		{ID: "id-green", Name: "green"},
	}, room.Peers())

	// 重复加入不改变顺序
	require.NoError(t, room.Join(peers[0], 10))
	assert.Equal(t, 3, room.Len())
}

func TestRoom_Capacity(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	peers := newPeers("a", "b", "c")
	require.NoError(t, room.Join(peers[0], 2))
	require.NoError(t, room.Join(peers[1], 2))
	assert.ErrorIs(t, room.Join(peers[2], 2), ErrRoomFull)
	assert.Empty(t, peers[2].GetRoom())
}

func TestRoom_LeavePromotesNextHost(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	peers := newPeers("a", "b")
	for _, p := range peers {
		require.NoError(t, room.Join(p, 0))
	}

	assert.False(t, room.Leave("id-a"))
	assert.Empty(t, peers[0].GetRoom())
	assert.Equal(t, "id-b", room.HostID())

	assert.False(t, room.Leave("unknown"))
	assert.True(t, room.Leave("id-b"))
	assert.Empty(t, room.HostID())
}

func TestRoom_BroadcastSkipsSender(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	peers := newPeers("a", "b", "c")
	for _, p := range peers {
		require.NoError(t, room.Join(p, 0))
	}

	msg := codec.MustNewMessage(protocol.MsgVote, protocol.VotePayload{VoterID: "id-a", TargetID: "id-b"})
	assert.Equal(t, 2, room.Broadcast(msg, "id-a"))

	assert.Empty(t, peers[0].Messages())
	assert.Len(t, peers[1].Messages(), 1)
	assert.Len(t, peers[2].Messages(), 1)
}

func TestRoom_MatchLifecycle(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	for _, p := range newPeers("a", "b") {
		require.NoError(t, room.Join(p, 0))
	}

	_, _, first := room.FinishMatch()
	assert.False(t, first, "no match started")

	_, err := room.StartMatch("id-b")
	assert.ErrorIs(t, err, ErrNotHost)

	matchID, err := room.StartMatch("id-a")
	require.NoError(t, err)
	assert.NotEmpty(t, matchID)
	assert.Equal(t, matchID, room.MatchID())
	assert.True(t, room.InMatch())

	id, players, first := room.FinishMatch()
	assert.True(t, first)
	assert.Equal(t, matchID, id)
	assert.Equal(t, []string{"id-a", "id-b"}, players)
	assert.False(t, room.InMatch())

	_, _, first = room.FinishMatch()
	assert.False(t, first)

	next, err := room.StartMatch("id-a")
	require.NoError(t, err)
	assert.NotEqual(t, matchID, next)
	assert.True(t, room.InMatch())
}

func TestRoom_Snapshot(t *testing.T) {
	t.Parallel()

	room := NewRoom("ABCD")
	for _, p := range newPeers("a", "b") {
		require.NoError(t, room.Join(p, 0))
	}

	snap := room.Snapshot()
	assert.Equal(t, "ABCD", snap.Code)
	require.Len(t, snap.Peers, 2)
	assert.Equal(t, "id-a", snap.Peers[0].ID)
	assert.Equal(t, "b", snap.Peers[1].Name)
	assert.Empty(t, snap.MatchID)
}

func TestRoom_JoinSetsRoomOnClient(t *testing.T) {
	t.Parallel()

	c := &testutil.MockClient{}
	c.On("GetID").Return("id-x")
	c.On("GetName").Return("x")
	c.On("SetRoom", "WXYZ").Once()
	c.On("SendMessage", mock.AnythingOfType("*protocol.Message")).Once()

	room := NewRoom("WXYZ")
	require.NoError(t, room.Join(c, 0))
	assert.Equal(t, []protocol.PlayerSetup{{ID: "id-x", Name: "x"}}, room.Peers())

	assert.Equal(t, 1, room.Broadcast(codec.MustNewMessage(protocol.MsgPeerLeft, nil), ""))
	c.AssertExpectations(t)
}
