package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cuichenli/Wox/internal/config"
	"github.com/cuichenli/Wox/internal/events"
	"github.com/cuichenli/Wox/internal/protocol"
)

// connState tracks the channel's connection lifecycle.
type connState int32

const (
	stateConnecting connState = iota
	stateOpen
	stateRetrying
	stateFatal
	stateStopped
)

// dialRetryPause spaces dial attempts inside one connect window, so a
// listener that has not bound yet is re-dialed instead of failing the whole
// window fast on connection refused.
const dialRetryPause = 100 * time.Millisecond

// inboundBuffer decouples the websocket read loop from frame consumers.
const inboundBuffer = 256

// channel owns the persistent websocket connection to one runtime host
// process, including the connect / reconnect / keep-alive state machine.
// Inbound frames are handed off over a buffered channel so a slow consumer
// never stalls the read loop.
type channel struct {
	runtime string
	addr    string
	timing  config.TimingConfig
	hub     *events.Hub
	logger  *slog.Logger

	runCtx context.Context

	state atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn

	backoffMu sync.Mutex
	backoff   time.Duration

	inbound chan []byte

	closeOnce sync.Once
}

func newChannel(runCtx context.Context, runtime string, port int, timing config.TimingConfig, hub *events.Hub, logger *slog.Logger) *channel {
	return &channel{
		runtime: runtime,
		addr:    fmt.Sprintf("127.0.0.1:%d", port),
		timing:  timing,
		hub:     hub,
		logger:  logger,
		runCtx:  runCtx,
		backoff: timing.ReconnectBackoff,
		inbound: make(chan []byte, inboundBuffer),
	}
}

// connect establishes the initial connection: a post-spawn grace wait, then
// up to 1+ConnectRetries dialing windows of ConnectTimeout each. Exhausting
// them is fatal to the start sequence. This fixed-window policy is distinct
// from the exponential backoff used for steady-state reconnects.
func (c *channel) connect(ctx context.Context) error {
	c.state.Store(int32(stateConnecting))

	select {
	case <-time.After(c.timing.SpawnGrace):
	case <-ctx.Done():
		c.state.Store(int32(stateStopped))
		return ctx.Err()
	case <-c.runCtx.Done():
		c.state.Store(int32(stateStopped))
		return c.runCtx.Err()
	}

	attempts := 1 + c.timing.Retries()
	for i := 1; i <= attempts; i++ {
		conn, err := c.dialWindow(ctx)
		if err == nil {
			c.opened(conn)
			go c.keepAliveLoop()
			return nil
		}
		if ctx.Err() != nil {
			c.state.Store(int32(stateStopped))
			return ctx.Err()
		}
		if c.runCtx.Err() != nil {
			c.state.Store(int32(stateStopped))
			return c.runCtx.Err()
		}
		c.logger.Warn("connect attempt failed", "addr", c.addr, "attempt", i, "window", c.timing.ConnectTimeout, "error", err)
	}

	c.state.Store(int32(stateFatal))
	return fmt.Errorf("%w: %s after %d attempts of %v", ErrConnectTimeout, c.addr, attempts, c.timing.ConnectTimeout)
}

// dialWindow keeps dialing until the window deadline passes or ctx is done.
func (c *channel) dialWindow(ctx context.Context) (*websocket.Conn, error) {
	deadline := time.Now().Add(c.timing.ConnectTimeout)
	dialer := &websocket.Dialer{HandshakeTimeout: c.timing.ConnectTimeout}

	var lastErr error
	for {
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		conn, _, err := dialer.DialContext(attemptCtx, "ws://"+c.addr, nil)
		cancel()
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.runCtx.Err() != nil {
			return nil, c.runCtx.Err()
		}
		if !time.Now().Add(dialRetryPause).Before(deadline) {
			return nil, lastErr
		}
		select {
		case <-time.After(dialRetryPause):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.runCtx.Done():
			return nil, c.runCtx.Err()
		}
	}
}

func (c *channel) opened(conn *websocket.Conn) {
	c.connMu.Lock()
	// A stop racing the dial wins; don't resurrect a closed channel.
	if connState(c.state.Load()) == stateStopped || c.runCtx.Err() != nil {
		c.connMu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state.Store(int32(stateOpen))
	c.connMu.Unlock()

	c.logger.Info("channel open", "addr", c.addr)
	c.hub.Publish(events.TypeHostConnected, c.runtime, "")
	go c.readLoop(conn)
}

// frames exposes the inbound frame stream consumed by the host facade.
func (c *channel) frames() <-chan []byte {
	return c.inbound
}

// send writes one text frame. Serialized by connMu; the websocket allows a
// single concurrent writer.
func (c *channel) send(data []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if connState(c.state.Load()) != stateOpen || c.conn == nil {
		return ErrChannelClosed
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return nil
}

func (c *channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Release the dead socket; close() only knows about the
			// conn currently stored, and a reconnect replaces it.
			_ = conn.Close()
			if c.runCtx.Err() != nil || connState(c.state.Load()) == stateStopped {
				return
			}
			c.state.Store(int32(stateRetrying))
			c.logger.Warn("channel closed unexpectedly", "addr", c.addr, "error", err)
			c.hub.Publish(events.TypeHostDisconnected, c.runtime, "")
			go c.reconnectLoop()
			return
		}

		select {
		case c.inbound <- data:
		case <-c.runCtx.Done():
			return
		}
	}
}

// reconnectLoop retries the connection indefinitely with a doubling backoff.
// The backoff is never reset within one channel instance; only a fresh
// channel (a recreated host) starts over at the initial delay. Cancellation
// stops retrying silently.
func (c *channel) reconnectLoop() {
	for {
		delay := c.nextBackoff()
		c.logger.Info("scheduling reconnect", "addr", c.addr, "delay", delay)
		c.hub.Publish(events.TypeHostReconnecting, c.runtime, "")

		select {
		case <-time.After(delay):
		case <-c.runCtx.Done():
			return
		}

		dialer := &websocket.Dialer{HandshakeTimeout: c.timing.ConnectTimeout}
		conn, _, err := dialer.DialContext(c.runCtx, "ws://"+c.addr, nil)
		if err != nil {
			if c.runCtx.Err() != nil {
				return
			}
			c.logger.Warn("reconnect attempt failed", "addr", c.addr, "error", err)
			continue
		}

		c.opened(conn)
		return
	}
}

// keepAliveLoop sends a ping frame every KeepAliveInterval while the channel
// is open. Replies are filtered out before the registry by method name; ping
// ids are unique so they can never collide with an application invocation.
func (c *channel) keepAliveLoop() {
	ticker := time.NewTicker(c.timing.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.C:
			if connState(c.state.Load()) != stateOpen {
				continue
			}
			data, err := protocol.EncodeRequest(&protocol.Request{
				ID:     uuid.NewString(),
				Method: protocol.MethodPing,
			})
			if err != nil {
				continue
			}
			if err := c.send(data); err != nil {
				// The read loop notices the dead connection and recovers.
				c.logger.Debug("keep-alive send failed", "error", err)
			}
		}
	}
}

// nextBackoff returns the current reconnect delay and doubles it for the
// next closed event. Growth is unbounded.
func (c *channel) nextBackoff() time.Duration {
	c.backoffMu.Lock()
	defer c.backoffMu.Unlock()
	d := c.backoff
	c.backoff *= 2
	return d
}

// close terminates the connection deliberately. The read loop observes the
// stopped state and does not schedule a reconnect.
func (c *channel) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(stateStopped))
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connMu.Unlock()
	})
}
