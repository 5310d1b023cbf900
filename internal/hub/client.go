package hub

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Limits bounds the work a single session can ask for.
type Limits struct {
	// Rate is the sustained number of requests per second.
	Rate rate.Limit
	// Burst is the number of requests allowed above Rate.
	Burst int
	// SendBuffer is the number of responses queued for the writer.
	SendBuffer int
	// PingInterval is the heartbeat period.
	PingInterval time.Duration
	// WriteTimeout bounds each write and ping.
	WriteTimeout time.Duration
}

func (l Limits) withDefaults() Limits {
	if l.Rate <= 0 {
		l.Rate = 50
	}
	if l.Burst <= 0 {
		l.Burst = int(l.Rate)
		if l.Burst < 1 {
			l.Burst = 1
		}
	}
	if l.SendBuffer <= 0 {
		l.SendBuffer = 64
	}
	if l.PingInterval <= 0 {
		l.PingInterval = 30 * time.Second
	}
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = 10 * time.Second
	}
	return l
}

// Client is one WebSocket conversion session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	send    chan []byte
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewClient wraps conn in a session bound to serverCtx.
func NewClient(h *Hub, conn *websocket.Conn, serverCtx context.Context) *Client {
	ctx, cancel := context.WithCancel(serverCtx)
	return &Client{
		hub:     h,
		conn:    conn,
		id:      uuid.NewString(),
		send:    make(chan []byte, h.limits.SendBuffer),
		limiter: rate.NewLimiter(h.limits.Rate, h.limits.Burst),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID returns the session identifier.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads requests until the connection fails or the session is
// cancelled, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.cancel()
	}()

	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				slog.Warn("session read error", "session", c.id, "error", err)
			}
			return
		}
		if err := c.limiter.Wait(c.ctx); err != nil {
			return
		}

		var resp []byte
		if typ != websocket.MessageText {
			resp = errorResponse("", errBinaryFrame)
		} else {
			resp = c.hub.handle(data)
		}

		select {
		case c.send <- resp:
		case <-c.ctx.Done():
			return
		}
	}
}

// WritePump forwards queued responses to the connection.
func (c *Client) WritePump() {
	defer c.conn.CloseNow()

	for {
		select {
		case msg := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, c.hub.limits.WriteTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				slog.Warn("session write error", "session", c.id, "error", err)
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

// HeartbeatLoop pings the peer and cancels the session when a ping fails.
func (c *Client) HeartbeatLoop() {
	ticker := time.NewTicker(c.hub.limits.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, c.hub.limits.WriteTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				slog.Info("session heartbeat failed", "session", c.id, "error", err)
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}
