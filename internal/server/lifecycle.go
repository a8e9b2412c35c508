package server

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

const (
	statsInterval         = 30 * time.Second
	shutdownCheckInterval = time.Second
)

// monitorStats 定期打印中继状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 房间: %d | 对局中: %d | Goroutines: %d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.RoomCount(),
			s.ActiveMatchCount(),
			runtime.NumGoroutine(),
			float64(m.Alloc)/1024/1024)
	}
}

// ActiveMatchCount 已开局但尚未记录结果的房间数
func (s *Server) ActiveMatchCount() int {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()

	n := 0
	for _, r := range s.rooms {
		if r.InMatch() {
			n++
		}
	}
	return n
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新的 hello
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.broadcastAll(codec.NewErrorMessageWithText(protocol.ErrCodeMaintenance,
		"👷🏻‍♂️ 维护模式：中继即将关闭，当前对局结束后请勿开新局"))

	log.Println("🔧 进入维护模式：停止新连接和加入房间")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 等待进行中的对局结束后关闭中继，ctx 到期则强制关闭
func (s *Server) GracefulShutdown(ctx context.Context) {
	s.EnterMaintenanceMode()

	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

wait:
	for {
		active := s.ActiveMatchCount()
		if active == 0 {
			log.Println("✅ 所有对局已结束")
			break
		}
		log.Printf("⏳ 等待 %d 个对局结束...", active)
		select {
		case <-ctx.Done():
			log.Printf("⚠️ 超时，仍有 %d 个对局进行中，强制关闭", s.ActiveMatchCount())
			break wait
		case <-ticker.C:
		}
	}

	s.Shutdown()
}

// Shutdown 关闭所有连接、HTTP 服务和 Redis
func (s *Server) Shutdown() {
	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		c.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("HTTP 服务关闭失败: %v", err)
		}
	}

	if err := s.store.Close(); err != nil {
		log.Printf("Redis 关闭失败: %v", err)
	}

	log.Println("中继已关闭")
}

func (s *Server) broadcastAll(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.SendMessage(msg)
	}
}
