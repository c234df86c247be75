// Package transport maintains the device's persistent websocket connection
// to the gateway. It reconnects forever at a fixed interval and drops
// outbound frames while disconnected; the server re-pushes the current
// layout on reconnect, so nothing is queued.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrDisconnected is returned by Send while no connection is up.
var ErrDisconnected = errors.New("transport: not connected")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Options configures a Client.
type Options struct {
	URL               string
	ReconnectInterval time.Duration
	Logger            zerolog.Logger

	// OnMessage receives every text frame. Called on the reader goroutine;
	// the handler owns any further dispatch.
	OnMessage func(text string)

	// OnConnect fires after each successful dial.
	OnConnect func()
	// OnDisconnect fires after a connection drops.
	OnDisconnect func()
}

// Client is a reconnecting websocket client.
type Client struct {
	opts Options
	log  zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client. Run must be called to start connecting.
func New(opts Options) *Client {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 5 * time.Second
	}
	return &Client{
		opts: opts,
		log:  opts.Logger.With().Str("component", "transport").Logger(),
	}
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one text frame. Frames sent while disconnected are dropped
// with ErrDisconnected.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrDisconnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// Run dials the gateway and blocks, reading frames until ctx is canceled.
// Every connection loss is followed by a reconnect after the configured
// interval.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.runOnce(ctx); err != nil {
			c.log.Warn().Err(err).Str("url", c.opts.URL).Msg("connection lost")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.opts.ReconnectInterval):
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	c.log.Info().Str("url", c.opts.URL).Msg("connected")

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if c.opts.OnConnect != nil {
		c.opts.OnConnect()
	}

	done := make(chan struct{})
	go c.pingLoop(conn, done)

	err = c.readLoop(ctx, conn)

	close(done)
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	_ = conn.Close()

	if c.opts.OnDisconnect != nil {
		c.opts.OnDisconnect()
	}
	return err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read frame")
		}
		if kind != websocket.TextMessage {
			c.log.Debug().Int("type", kind).Msg("non-text frame ignored")
			continue
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(string(data))
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writePing(conn); err != nil {
				return
			}
		}
	}
}

// writePing sends a keepalive ping under the same lock as Send; the
// connection allows only one writer at a time. Pings for a connection that
// has since been replaced are dropped.
func (c *Client) writePing(conn *websocket.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return ErrDisconnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

// Close tears the current connection down. Run keeps reconnecting unless
// its context is canceled too.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
