package server

import (
	"log"
	"net/http"

	"github.com/palemoky/among-the-stars/internal/metrics"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	if s.IsMaintenanceMode() {
		log.Printf("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Relay is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	log.Printf("✅ 连接 %s 已建立 (IP: %s)", client.ID, clientIP)

	go client.ReadPump()
	go client.WritePump()
}

// registerClient 注册连接
func (s *Server) registerClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c.GetID()] = c
	metrics.PeersConnected.Set(float64(len(s.clients)))
}

// rekeyClient hello 之后连接 ID 可能改为重连前的 ID
func (s *Server) rekeyClient(oldID, newID string) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if oldID == newID {
		return true
	}
	if _, taken := s.clients[newID]; taken {
		return false
	}
	if c, ok := s.clients[oldID]; ok {
		delete(s.clients, oldID)
		s.clients[newID] = c
	}
	return true
}

// unregisterClient 注销连接
func (s *Server) unregisterClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	id := c.GetID()
	if cur, ok := s.clients[id]; ok && cur == c {
		delete(s.clients, id)
		log.Printf("❌ 连接 %s (%s) 已断开", c.GetName(), id)
	}
	metrics.PeersConnected.Set(float64(len(s.clients)))
}

// handleDisconnect 连接断开：离开房间并通知其他玩家
func (s *Server) handleDisconnect(c *Client) {
	s.leaveRoom(c)
	s.messageLimiter.RemoveClient(c.GetID())
	s.unregisterClient(c)
}
