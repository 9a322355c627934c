package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	keepalive      = idleTimeout * 9 / 10
	maxInboundSize = 1024
	outboxSize     = 64
)

// Client actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Error codes sent back to clients
const (
	CodeBadMessage    = "bad_message"
	CodeRateLimited   = "rate_limited"
	CodeUnknownAction = "unknown_action"
	CodeBadChannel    = "bad_channel"
	CodeTooManySubs   = "too_many_subscriptions"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxInboundSize,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ClientMessage is a request from a subscriber
type ClientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// window counts inbound messages per one-second window
type window struct {
	start time.Time
	count int
}

func (w *window) allow(limit int, now time.Time) bool {
	if now.Sub(w.start) >= time.Second {
		w.start, w.count = now, 0
	}
	w.count++
	return w.count <= limit
}

// Client is one WebSocket subscriber
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string

	outMu  sync.Mutex
	out    chan []byte
	closed bool

	chMu     sync.Mutex
	channels map[string]struct{}

	inbound window
}

// NewClient wraps an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       id,
		out:      make(chan []byte, outboxSize),
		channels: make(map[string]struct{}),
		inbound:  window{start: time.Now()},
	}
}

// ID returns the client ID
func (c *Client) ID() string {
	return c.id
}

// readLoop handles client requests until the connection drops
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}
	c.conn.SetReadLimit(maxInboundSize)
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.inbound.allow(c.hub.config.MessageRateLimit, time.Now()) {
			c.reject(CodeRateLimited, "slow down")
			continue
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reject(CodeBadMessage, "expected {\"action\":...,\"channel\":...}")
			continue
		}
		c.dispatch(msg)
	}
}

// writeLoop drains the outbox and keeps the connection alive with pings
func (c *Client) writeLoop() {
	pings := time.NewTicker(keepalive)
	defer func() {
		pings.Stop()
		_ = c.conn.Close()
	}()

	write := func(kind int, payload []byte) error {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(kind, payload)
	}

	for {
		select {
		case payload, open := <-c.out:
			if !open {
				_ = write(websocket.CloseMessage, nil)
				return
			}
			if write(websocket.TextMessage, payload) != nil {
				return
			}
		case <-pings.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(msg ClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		c.subscribe(msg.Channel)
	case ActionUnsubscribe:
		c.unsubscribe(msg.Channel)
	case ActionPing:
		c.Send(mustMarshal(&WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()}))
	default:
		c.reject(CodeUnknownAction, msg.Action)
	}
}

func (c *Client) subscribe(channel string) {
	if !c.allowed(channel) {
		c.reject(CodeBadChannel, channel)
		return
	}

	c.chMu.Lock()
	_, have := c.channels[channel]
	if !have && len(c.channels) >= c.hub.config.MaxSubscriptions {
		c.chMu.Unlock()
		c.reject(CodeTooManySubs, channel)
		return
	}
	c.channels[channel] = struct{}{}
	c.chMu.Unlock()

	select {
	case c.hub.subscribe <- &SubscriptionRequest{Client: c, Channel: channel}:
	case <-c.hub.done:
	}
}

func (c *Client) unsubscribe(channel string) {
	c.chMu.Lock()
	delete(c.channels, channel)
	c.chMu.Unlock()

	select {
	case c.hub.unsubscribe <- &SubscriptionRequest{Client: c, Channel: channel}:
	case <-c.hub.done:
	}
}

// allowed reports whether channel names a pool, tier or valid account stream
func (c *Client) allowed(channel string) bool {
	switch channel {
	case ChannelPool, ChannelEvents, ChannelTier + "senior", ChannelTier + "junior":
		return true
	}
	if addr, ok := strings.CutPrefix(channel, ChannelAccount); ok {
		return c.hub.config.ValidAccount(addr)
	}
	return false
}

func (c *Client) reject(code, detail string) {
	c.Send(mustMarshal(&WSMessage{
		Type:      "error",
		Data:      map[string]string{"code": code, "detail": detail},
		Timestamp: time.Now().UnixMilli(),
	}))
}

// Send queues a message. Messages to a slow or closed client are dropped.
func (c *Client) Send(message []byte) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- message:
	default:
	}
}

func (c *Client) close() {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// Subscriptions returns the client's channels
func (c *Client) Subscriptions() []string {
	c.chMu.Lock()
	defer c.chMu.Unlock()
	subs := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		subs = append(subs, ch)
	}
	return subs
}
