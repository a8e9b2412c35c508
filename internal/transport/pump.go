package transport

import (
	"log"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/among-the-stars/internal/logger"
	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

// readPump 从中继读取消息，退出时关闭 stop 让 writePump 一起退出
func (c *Client) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] readPump panic recovered: %v", r)
		}
		close(stop)
		_ = conn.Close()
		c.handleReadExit()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) &&
				c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		msg, err := codec.Decode(data)
		if err != nil {
			logger.LogWarn("消息解析错误: %v", err)
			continue
		}
		c.processMessage(msg)
	}
}

// handleReadExit 已加入过房间就尝试重连，否则关闭
func (c *Client) handleReadExit() {
	if c.isClosed() || c.reconnecting.Load() {
		return
	}
	if c.PeerID() != "" {
		go c.tryReconnect()
		return
	}
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

func (c *Client) processMessage(msg *protocol.Message) {
	resumed := c.handleRelayMessage(msg)

	if c.OnMessage != nil {
		c.OnMessage(msg)
	}

	select {
	case c.receive <- msg:
	default:
		logger.LogWarn("接收缓冲区已满，丢弃 %s", msg.Type)
	}

	if resumed && c.OnReconnect != nil {
		c.OnReconnect()
	}
}

// handleRelayMessage 维护 PeerID 和房间名单，返回是否为重连后的 welcome
func (c *Client) handleRelayMessage(msg *protocol.Message) bool {
	switch msg.Type {
	case protocol.MsgWelcome:
		p, err := codec.ParsePayload[protocol.WelcomePayload](msg)
		if err != nil {
			return false
		}
		c.mu.Lock()
		c.peerID = p.PeerID
		c.peers = p.Peers
		c.mu.Unlock()
		c.reconnectCount.Store(0)
		return c.resumed.Swap(false)

	case protocol.MsgPeerJoined:
		p, err := codec.ParsePayload[protocol.PeerPayload](msg)
		if err != nil {
			return false
		}
		c.mu.Lock()
		if !slices.ContainsFunc(c.peers, func(ps protocol.PlayerSetup) bool { return ps.ID == p.PeerID }) {
			c.peers = append(c.peers, protocol.PlayerSetup{ID: p.PeerID, Name: p.Name})
		}
		c.mu.Unlock()

	case protocol.MsgPeerLeft:
		p, err := codec.ParsePayload[protocol.PeerPayload](msg)
		if err != nil {
			return false
		}
		c.mu.Lock()
		c.peers = slices.DeleteFunc(c.peers, func(ps protocol.PlayerSetup) bool { return ps.ID == p.PeerID })
		c.mu.Unlock()
	}
	return false
}

// writePump 向中继写入消息
func (c *Client) writePump(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] writePump panic recovered: %v", r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return

		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
