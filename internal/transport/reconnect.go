package transport

import (
	"log"
	"time"

	"github.com/palemoky/among-the-stars/internal/logger"
)

// tryReconnect 指数退避重连，hello 带上原 PeerID 以恢复身份
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] tryReconnect panic recovered: %v", r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	backoff := c.ReconnectInterval
	if backoff <= 0 {
		backoff = defaultReconnectInterval
	}

	for int(c.reconnectCount.Load()) < maxReconnectAttempts {
		attempt := int(c.reconnectCount.Add(1))
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, maxReconnectAttempts)
		}
		logger.LogInfo("🔄 尝试重连 (%d/%d)", attempt, maxReconnectAttempts)

		select {
		case <-time.After(backoff):
		case <-c.done:
			c.reconnecting.Store(false)
			return
		}
		backoff = min(backoff*2, maxReconnectInterval)

		conn, _, err := c.dialer.Dial(c.ServerURL, nil)
		if err != nil {
			logger.LogWarn("重连失败: %v", err)
			continue
		}

		c.resumed.Store(true)
		c.reconnecting.Store(false)
		if err := c.start(conn); err != nil {
			c.resumed.Store(false)
			c.reconnecting.Store(true)
			_ = conn.Close()
			continue
		}
		return
	}

	logger.LogError("❌ 重连失败，已达最大尝试次数")
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
