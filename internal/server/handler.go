package server

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/palemoky/among-the-stars/internal/metrics"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
	"github.com/palemoky/among-the-stars/internal/server/storage"
)

// Redis 写入超时
const storeTimeout = 2 * time.Second

// handleMessage 分发一条来自连接的消息
func (s *Server) handleMessage(c *Client, msg *protocol.Message) {
	switch {
	case msg.Type == protocol.MsgHello:
		s.handleHello(c, msg)
	case msg.Type == protocol.MsgGameStart:
		s.handleGameStart(c, msg)
	case msg.Type.IsGameplay():
		s.relay(c, msg)
	default:
		metrics.MessagesRejected.WithLabelValues("unknown_type").Inc()
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// handleHello 加入房间。已在房间中的连接先离开原房间。
func (s *Server) handleHello(c *Client, msg *protocol.Message) {
	p, err := codec.ParsePayload[protocol.HelloPayload](msg)
	if err != nil || strings.TrimSpace(p.Room) == "" {
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	if s.IsMaintenanceMode() {
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeMaintenance))
		return
	}

	s.leaveRoom(c)

	id := c.GetID()
	if p.PeerID != "" && p.PeerID != id && s.rekeyClient(id, p.PeerID) {
		s.messageLimiter.RemoveClient(id)
		id = p.PeerID
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "Player-" + id[:min(4, len(id))]
	}
	c.identify(id, name)

	code := strings.ToUpper(strings.TrimSpace(p.Room))
	room := s.getOrCreateRoom(code)
	if err := room.Join(c, s.config.Server.RoomCapacity); err != nil {
		s.dropEmptyRoom(room)
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeRoomFull))
		return
	}

	c.SendMessage(codec.MustNewMessage(protocol.MsgWelcome, protocol.WelcomePayload{
		PeerID: id,
		Room:   code,
		Peers:  room.Peers(),
	}))
	room.Broadcast(codec.MustNewMessage(protocol.MsgPeerJoined, protocol.PeerPayload{
		PeerID: id,
		Name:   name,
	}), id)

	s.saveRoom(room)
	log.Printf("🚪 %s (%s) 加入房间 %s (%d 人)", name, id, code, room.Len())
}

// handleGameStart 只有房主可以开局，开局后生成新的对局 ID
func (s *Server) handleGameStart(c *Client, msg *protocol.Message) {
	room, ok := s.roomOf(c)
	if !ok {
		metrics.MessagesRejected.WithLabelValues("not_in_room").Inc()
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}

	matchID, err := room.StartMatch(c.GetID())
	if err != nil {
		metrics.MessagesRejected.WithLabelValues("not_host").Inc()
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotHost))
		return
	}

	s.saveRoom(room)
	log.Printf("🎮 房间 %s 开局 (match %s)", room.Code, matchID)
	s.broadcast(room, c, msg)
}

// relay 把对局消息转发给房间内其他玩家，Sender 由中继填写
func (s *Server) relay(c *Client, msg *protocol.Message) {
	room, ok := s.roomOf(c)
	if !ok {
		metrics.MessagesRejected.WithLabelValues("not_in_room").Inc()
		c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return
	}

	if msg.Type == protocol.MsgGameOver && c.GetID() == room.HostID() {
		s.recordGameOver(room, msg)
	}
	s.broadcast(room, c, msg)
}

func (s *Server) broadcast(room *Room, c *Client, msg *protocol.Message) {
	msg.Sender = c.GetID()
	room.Broadcast(msg, msg.Sender)
	metrics.MessagesRelayed.WithLabelValues(string(msg.Type)).Inc()
}

// recordGameOver 只记录房主上报的结果，每局一次
func (s *Server) recordGameOver(room *Room, msg *protocol.Message) {
	p, err := codec.ParsePayload[protocol.GameOverPayload](msg)
	if err != nil {
		return
	}
	matchID, players, first := room.FinishMatch()
	if !first {
		return
	}

	metrics.GamesFinished.WithLabelValues(p.Winner).Inc()
	log.Printf("🏁 房间 %s 对局结束: %s 获胜 (%s)", room.Code, p.Winner, p.Reason)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	_, err = s.store.RecordMatch(ctx, &storage.MatchRecord{
		MatchID: matchID,
		Room:    room.Code,
		Winner:  p.Winner,
		Reason:  p.Reason,
		Players: players,
		EndedAt: time.Now().Unix(),
	}, s.config.Redis.HistoryLimit)
	if err != nil {
		log.Printf("⚠️ 保存对局记录失败: %v", err)
	}
}

func (s *Server) roomOf(c *Client) (*Room, bool) {
	code := c.GetRoom()
	if code == "" {
		return nil, false
	}
	return s.GetRoom(code)
}

func (s *Server) getOrCreateRoom(code string) *Room {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		room = NewRoom(code)
		s.rooms[code] = room
		metrics.RoomsOpen.Set(float64(len(s.rooms)))
	}
	return room
}

// leaveRoom 离开当前房间，通知其他玩家，房间空了就删除
func (s *Server) leaveRoom(c *Client) {
	room, ok := s.roomOf(c)
	if !ok {
		return
	}

	id := c.GetID()
	if room.Leave(id) {
		s.dropEmptyRoom(room)
		return
	}
	room.Broadcast(codec.MustNewMessage(protocol.MsgPeerLeft, protocol.PeerPayload{
		PeerID: id,
		Name:   c.GetName(),
	}), id)
	s.saveRoom(room)
}

func (s *Server) dropEmptyRoom(room *Room) {
	s.roomsMu.Lock()
	if room.Len() == 0 && s.rooms[room.Code] == room {
		delete(s.rooms, room.Code)
	}
	metrics.RoomsOpen.Set(float64(len(s.rooms)))
	s.roomsMu.Unlock()

	if room.Len() == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := s.store.DeleteRoom(ctx, room.Code); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("⚠️ 删除房间 %s 失败: %v", room.Code, err)
		}
	}
}

func (s *Server) saveRoom(room *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.SaveRoom(ctx, room.Snapshot()); err != nil {
		log.Printf("⚠️ 保存房间 %s 失败: %v", room.Code, err)
	}
}
