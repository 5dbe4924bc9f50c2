package connection

import (
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/phira-mp/server/internal/metrics"
	"github.com/phira-mp/server/pkg/protocol"
)

// queueCapacity bounds the outbound channel; overflow drops the packet
// rather than blocking the critical section that enqueued it (§5).
const queueCapacity = 100

// writeDrainTimeout bounds how long Close waits for a best-effort flush and
// socket close (§5).
const writeDrainTimeout = 2 * time.Second

// inactivityThreshold and healthCheckInterval implement the periodic
// liveness check (§4.3): a connection idle past the threshold is closed the
// next time the health loop runs.
const (
	inactivityThreshold = 120 * time.Second
	healthCheckInterval = 30 * time.Second
)

// CloseHandler is invoked exactly once when a Connection finishes closing,
// so the session layer can run its disconnect-cleanup sequence.
type CloseHandler func(c *Connection)

// Connection owns one accepted socket: a single inbound reading flow and a
// single outbound writer flow draining a bounded queue, matching §4.3 and
// the one-writer-per-socket rule of §5. It implements room.Sender.
type Connection struct {
	id     string
	conn   net.Conn
	logger *zap.Logger

	outbound chan *protocol.Frame
	done     chan struct{}

	mu           sync.Mutex
	closed       bool
	lastActivity time.Time

	onClose CloseHandler
}

// New wraps an accepted socket. id is a correlation id (typically a
// google/uuid string) used to tag every log line for this connection.
func New(id string, conn net.Conn, logger *zap.Logger, onClose CloseHandler) *Connection {
	c := &Connection{
		id:           id,
		conn:         conn,
		logger:       logger.With(zap.String("connection_id", id)),
		outbound:     make(chan *protocol.Frame, queueCapacity),
		done:         make(chan struct{}),
		lastActivity: time.Now(),
		onClose:      onClose,
	}
	go c.writeLoop()
	go c.healthLoop()
	return c
}

// ID returns the connection's correlation id.
func (c *Connection) ID() string { return c.id }

// SetCloseHandler attaches the close handler after construction, for
// callers (pkg/session) that need the Connection to exist before they can
// build the handler that references it.
func (c *Connection) SetCloseHandler(h CloseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = h
}

// Conn exposes the underlying socket for the reader flow owned by pkg/server.
func (c *Connection) Conn() net.Conn { return c.conn }

// MarkActivity records that a read or write just happened, resetting the
// inactivity clock (§4.3).
func (c *Connection) MarkActivity() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// Send enqueues an already-framed outbound packet. Non-blocking: on a full
// queue the packet is dropped and logged, the connection is left open
// (§4.3, §5). Send is safe to call from any goroutine, including from
// inside a room's critical section.
func (c *Connection) Send(f *protocol.Frame) {
	select {
	case c.outbound <- f:
	default:
		c.logger.Warn("outbound queue full, dropping packet", zap.Int("packet_id", int(f.ID)))
		metrics.OutboundQueueDrops.WithLabelValues().Inc()
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case f := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeDrainTimeout))
			if err := protocol.WriteFrame(c.conn, f); err != nil {
				c.logger.Warn("write failed, closing connection", zap.Error(err))
				c.Close()
				return
			}
			c.MarkActivity()
		case <-c.done:
			return
		}
	}
}

func (c *Connection) healthLoop() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			idle := time.Since(c.lastActivity)
			c.mu.Unlock()
			if idle > inactivityThreshold {
				c.logger.Info("closing idle connection", zap.Duration("idle", idle))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close is idempotent: it stops the writer and health-check flows,
// best-effort flushes and closes the socket (each under a 2s timeout), then
// invokes the close handler exactly once (§4.3).
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	c.conn.SetWriteDeadline(time.Now().Add(writeDrainTimeout))
	c.conn.Close()

	if c.onClose != nil {
		c.onClose(c)
	}
}

// IsClosed reports whether Close has already run.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
