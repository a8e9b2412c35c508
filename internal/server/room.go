package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/server/storage"
)

// 房间错误
var (
	ErrRoomFull = errors.New("room is full")
	ErrNotHost  = errors.New("only the host can start the game")
)

// Peer 房间内的一个连接，*Client 实现了它
type Peer interface {
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(code string)
	SendMessage(msg *protocol.Message)
	Close()
}

var _ Peer = (*Client)(nil)

// Room 一个房间：按加入顺序保存连接，第一个连接为房主
type Room struct {
	Code      string
	CreatedAt time.Time

	order []string
	peers map[string]Peer

	matchID  string
	finished bool // 当前对局的结果已记录
	players  []string

	mu sync.RWMutex
}

// NewRoom 创建房间
func NewRoom(code string) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		peers:     make(map[string]Peer),
	}
}

// Join 加入房间，capacity <= 0 表示不限制
func (r *Room) Join(c Peer, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[c.GetID()]; ok {
		return nil
	}
	if capacity > 0 && len(r.order) >= capacity {
		return ErrRoomFull
	}
	r.peers[c.GetID()] = c
	r.order = append(r.order, c.GetID())
	c.SetRoom(r.Code)
	return nil
}

// Leave 离开房间，返回房间是否已空
func (r *Room) Leave(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.peers[id]; ok {
		c.SetRoom("")
		delete(r.peers, id)
		for i, pid := range r.order {
			if pid == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	return len(r.order) == 0
}

// HostID 房主 ID
func (r *Room) HostID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// Peers 按加入顺序返回房间内的玩家
func (r *Room) Peers() []protocol.PlayerSetup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.PlayerSetup, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, protocol.PlayerSetup{ID: id, Name: r.peers[id].GetName()})
	}
	return out
}

// Len 房间人数
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Broadcast 发送给房间内除 exceptID 以外的所有连接
func (r *Room) Broadcast(msg *protocol.Message, exceptID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sent := 0
	for _, id := range r.order {
		if id == exceptID {
			continue
		}
		r.peers[id].SendMessage(msg)
		sent++
	}
	return sent
}

// StartMatch 房主开局，生成新的对局 ID
func (r *Room) StartMatch(hostID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) == 0 || r.order[0] != hostID {
		return "", ErrNotHost
	}
	r.matchID = uuid.NewString()
	r.finished = false
	r.players = append([]string(nil), r.order...)
	return r.matchID, nil
}

// FinishMatch 记录对局结束，只有第一次调用返回 true
func (r *Room) FinishMatch() (matchID string, players []string, first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.matchID == "" || r.finished {
		return r.matchID, nil, false
	}
	r.finished = true
	return r.matchID, r.players, true
}

// MatchID 当前对局 ID，未开局时为空
func (r *Room) MatchID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matchID
}

// Snapshot 房间快照（用于 Redis 存储）
func (r *Room) Snapshot() *storage.RoomData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peers := make([]storage.PeerData, 0, len(r.order))
	for _, id := range r.order {
		peers = append(peers, storage.PeerData{ID: id, Name: r.peers[id].GetName()})
	}
	return &storage.RoomData{
		Code:      r.Code,
		Peers:     peers,
		MatchID:   r.matchID,
		CreatedAt: r.CreatedAt.Unix(),
	}
}

// InMatch 已开局且结果尚未记录
func (r *Room) InMatch() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matchID != "" && !r.finished
}
