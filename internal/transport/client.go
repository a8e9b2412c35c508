// Package transport is the peer side of the relay link: it joins a room,
// keeps the roster the relay announces and hands gameplay messages to the
// caller. A dropped link is re-established with the same peer ID.
package transport

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/among-the-stars/internal/protocol"
	"github.com/palemoky/among-the-stars/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 最大重连次数
	maxReconnectAttempts = 5
	// 首次重连间隔，之后指数退避
	defaultReconnectInterval = 2 * time.Second
	maxReconnectInterval     = 30 * time.Second

	bufferSize = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
	ErrTimeout    = errors.New("receive timeout")
)

// Client 到中继的 WebSocket 连接
type Client struct {
	ServerURL string
	Room      string
	Name      string

	// ReconnectInterval 首次重连等待时间
	ReconnectInterval time.Duration

	// 回调，在读协程中调用
	OnMessage      func(*protocol.Message)
	OnError        func(error)
	OnClose        func()
	OnReconnecting func(attempt, maxAttempts int)
	OnReconnect    func()

	dialer  websocket.Dialer
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	mu     sync.RWMutex
	conn   *websocket.Conn
	peerID string
	peers  []protocol.PlayerSetup
	closed bool

	reconnecting   atomic.Bool
	resumed        atomic.Bool
	reconnectCount atomic.Int32
}

// NewClient 创建客户端，Connect 之后才会加入房间
func NewClient(serverURL, room, name string) *Client {
	return &Client{
		ServerURL:         serverURL,
		Room:              room,
		Name:              name,
		ReconnectInterval: defaultReconnectInterval,
		dialer:            websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		send:              make(chan []byte, bufferSize),
		receive:           make(chan *protocol.Message, bufferSize),
		done:              make(chan struct{}),
	}
}

// Connect 连接中继并发送 hello，welcome 通过 Receive 或 OnMessage 送达
func (c *Client) Connect() error {
	conn, _, err := c.dialer.Dial(c.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("连接中继失败: %w", err)
	}
	if err := c.start(conn); err != nil {
		_ = conn.Close()
		return err
	}
	return nil
}

// start 先同步写入 hello，再启动读写协程
func (c *Client) start(conn *websocket.Conn) error {
	hello, err := codec.Encode(codec.MustNewMessage(protocol.MsgHello, protocol.HelloPayload{
		Room:   c.Room,
		Name:   c.Name,
		PeerID: c.PeerID(),
	}))
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		return fmt.Errorf("发送 hello 失败: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	stop := make(chan struct{})
	go c.readPump(conn, stop)
	go c.writePump(conn, stop)
	return nil
}

// SendMessage 发送消息，重连期间消息在缓冲区排队
func (c *Client) SendMessage(msg *protocol.Message) error {
	if c.isClosed() {
		return ErrClosed
	}

	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Receive 接收消息 (阻塞)
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.done:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	case <-c.done:
		return nil, ErrClosed
	}
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil && !c.reconnecting.Load()
}

// PeerID 中继分配的 ID，welcome 之前为空
func (c *Client) PeerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peerID
}

// Peers 房间内的玩家（包括自己），按加入顺序
func (c *Client) Peers() []protocol.PlayerSetup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.peers)
}

// IsHost 自己是否为房主
func (c *Client) IsHost() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peerID != "" && len(c.peers) > 0 && c.peers[0].ID == c.peerID
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}
