package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the connection lifecycle of the notification stream.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateBackoff      State = "backoff"
)

// Conn is one live notification stream. Receive blocks until a message
// arrives or the stream breaks.
type Conn interface {
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// DialFunc opens a new stream. The manager owns the returned Conn.
type DialFunc func(ctx context.Context) (Conn, error)

// Handler receives each message. Called from the manager's goroutine, so it
// must not block for long.
type Handler func(msg []byte)

// ErrGaveUp is returned by Run after maxAttempts consecutive failed dials.
var ErrGaveUp = errors.New("gave up reconnecting")

// Manager keeps a notification stream alive: it dials, reads until the
// stream breaks, then redials with exponential backoff. The attempt counter
// resets on every successful connect, so a stable stream can drop and
// recover indefinitely.
type Manager struct {
	dial        DialFunc
	handler     Handler
	log         *zap.Logger
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	mu      sync.RWMutex
	state   State
	attempt int
}

func NewManager(dial DialFunc, handler Handler, log *zap.Logger) *Manager {
	return &Manager{
		dial:        dial,
		handler:     handler,
		log:         log,
		maxAttempts: 10,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    30 * time.Second,
		state:       StateDisconnected,
	}
}

// State reports the current lifecycle state and, while backing off, the
// consecutive failure count.
func (m *Manager) State() (State, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.attempt
}

func (m *Manager) setState(s State, attempt int) {
	m.mu.Lock()
	m.state = s
	m.attempt = attempt
	m.mu.Unlock()
}

// Run drives the connect/read/reconnect loop until ctx is cancelled or the
// dial fails maxAttempts times in a row.
func (m *Manager) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			m.setState(StateDisconnected, 0)
			return ctx.Err()
		}

		m.setState(StateConnecting, attempt)
		conn, err := m.dial(ctx)
		if err != nil {
			attempt++
			if m.maxAttempts > 0 && attempt >= m.maxAttempts {
				m.setState(StateDisconnected, attempt)
				m.log.Error("notification stream unreachable",
					zap.Int("attempts", attempt), zap.Error(err))
				return ErrGaveUp
			}

			delay := m.backoffDelay(attempt)
			m.setState(StateBackoff, attempt)
			m.log.Warn("dial failed, backing off",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				m.setState(StateDisconnected, 0)
				return ctx.Err()
			}
			continue
		}

		attempt = 0
		m.setState(StateConnected, 0)
		m.log.Info("notification stream connected")

		err = m.readLoop(ctx, conn)
		conn.Close()
		m.setState(StateDisconnected, 0)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn("notification stream dropped", zap.Error(err))
	}
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return err
		}
		m.handler(msg)
	}
}

func (m *Manager) backoffDelay(attempt int) time.Duration {
	delay := m.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= m.maxDelay {
			return m.maxDelay
		}
	}
	return delay
}
