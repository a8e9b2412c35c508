package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewRedisStore(client), mr
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	roomData := &RoomData{
		Code:      "ABCD",
		Peers:     []PeerData{{ID: "p1", Name: "Red"}, {ID: "p2", Name: "Blue"}},
		MatchID:   "m-1",
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, store.SaveRoom(ctx, roomData))
	assert.True(t, mr.Exists("room:ABCD"))
	assert.Equal(t, roomExpiration, mr.TTL("room:ABCD"))

	loaded, err := store.LoadRoom(ctx, "ABCD")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, roomData.Peers, loaded.Peers)
	assert.Equal(t, "m-1", loaded.MatchID)

	codes, err := store.GetAllRoomCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD"}, codes)

	require.NoError(t, store.DeleteRoom(ctx, "ABCD"))
	loaded, err = store.LoadRoom(ctx, "ABCD")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_SaveNilRoom(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	assert.NoError(t, store.SaveRoom(context.Background(), nil))
}

func TestRedisStore_LoadRoomCorrupt(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("room:BAD", "{not json"))

	_, err := store.LoadRoom(context.Background(), "BAD")
	assert.Error(t, err)
}

func TestRedisStore_RecordMatchOnce(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := &MatchRecord{MatchID: "m-1", Room: "ABCD", Winner: "impostors", Reason: "parity", Players: []string{"p1", "p2"}}
	first, err := store.RecordMatch(ctx, rec, 10)
	require.NoError(t, err)
	assert.True(t, first)

	again := *rec
	again.Winner = "crewmates"
	first, err = store.RecordMatch(ctx, &again, 10)
	require.NoError(t, err)
	assert.False(t, first, "only the first result per match is kept")

	matches, err := store.RecentMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "impostors", matches[0].Winner)

	wins, err := store.WinCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"impostors": 1}, wins)
}

func TestRedisStore_HistoryIsCapped(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	for i := range 5 {
		winner := "crewmates"
		if i%2 == 1 {
			winner = "impostors"
		}
		_, err := store.RecordMatch(ctx, &MatchRecord{MatchID: fmt.Sprintf("m-%d", i), Winner: winner}, 3)
		require.NoError(t, err)
	}

	matches, err := store.RecentMatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "m-4", matches[0].MatchID)
	assert.Equal(t, "m-2", matches[2].MatchID)

	wins, err := store.WinCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), wins["crewmates"])
	assert.Equal(t, int64(2), wins["impostors"])

	none, err := store.RecentMatches(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
