// Package server is the relay: peers join a room by code and the relay fans
// their gameplay messages out to the rest of the room. It never runs game
// logic itself; it only records the first reported result per match.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/among-the-stars/internal/config"
	"github.com/palemoky/among-the-stars/internal/metrics"
	"github.com/palemoky/among-the-stars/internal/server/storage"
)

// Server WebSocket 中继
type Server struct {
	config *config.Config
	store  *storage.RedisStore

	rooms   map[string]*Room
	roomsMu sync.RWMutex

	clients   map[string]*Client
	clientsMu sync.RWMutex

	upgrader       websocket.Upgrader
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	httpServer *http.Server

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 连接 Redis 并创建中继
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	return NewServerWithStore(cfg, storage.NewRedisStore(rdb)), nil
}

// NewServerWithStore 使用已有的存储创建中继
func NewServerWithStore(cfg *config.Config, store *storage.RedisStore) *Server {
	s := &Server{
		config:         cfg,
		store:          store,
		rooms:          make(map[string]*Room),
		clients:        make(map[string]*Client),
		originChecker:  NewOriginChecker(cfg.Server.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Server.MessageLimit),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}
	return s
}

// Handler 中继的 HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Start 启动中继，阻塞直到关闭
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	go s.monitorStats()

	log.Printf("🚀 中继启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// GetOnlineCount 在线连接数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// GetRoom 按房间号查找房间
func (s *Server) GetRoom(code string) (*Room, bool) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	r, ok := s.rooms[code]
	return r, ok
}

// RoomCount 房间数
func (s *Server) RoomCount() int {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	return len(s.rooms)
}
