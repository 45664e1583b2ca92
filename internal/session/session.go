// Package session owns the lifecycle of the bidirectional channel to the
// game authority: dialing, reconnection, subscription fan-out and
// request/ack correlation. One Session spans the whole process; closing a
// screen must not close the Session (see Close).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

// EventResync is a synthetic, locally-dispatched event: the transport came
// back after a connectivity gap and any delta-derived state is stale.
// Subscribers should re-request a full snapshot. No wire frame carries it.
const EventResync = "_resync"

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

var (
	ErrClosed       = errors.New("session closed")
	ErrNotConnected = errors.New("session not connected")
)

// Handler receives a decoded frame. Handlers for all events run
// sequentially on the session's single dispatch goroutine, never in
// parallel with each other.
type Handler func(env wire.Envelope)

// Bus is the narrow surface game components consume. *Session implements
// it; tests substitute fakes.
type Bus interface {
	Emit(event string, payload any) error
	Request(ctx context.Context, event string, payload any) (wire.Ack, error)
	Subscribe(event string, fn Handler) *Subscription
}

type Session struct {
	url string
	log *zap.Logger

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	gen    int // bumped per connection; stale read loops check it
	closed bool

	subMu     sync.Mutex
	nextToken uint64
	subs      map[string]map[uint64]Handler

	reqMu   sync.Mutex
	nextSeq uint64
	pending map[uint64]chan wire.Ack

	dialTimeout  time.Duration
	writeTimeout time.Duration
	maxBackoff   time.Duration
}

func New(url string, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		url:          url,
		log:          log,
		subs:         make(map[string]map[uint64]Handler),
		pending:      make(map[uint64]chan wire.Ack),
		dialTimeout:  5 * time.Second,
		writeTimeout: 3 * time.Second,
		maxBackoff:   4 * time.Second,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EnsureConnected idempotently opens the channel. A second concurrent
// connection is never opened: callers racing here serialize on the lock and
// the later one sees Connected.
func (s *Session) EnsureConnected(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.state != Disconnected {
		return nil
	}
	s.state = Connecting

	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, s.url, nil)
	cancel()
	if err != nil {
		s.state = Disconnected
		return err
	}

	s.conn = conn
	s.state = Connected
	s.gen++
	s.log.Debug("session connected", zap.String("url", s.url))
	go s.readLoop(conn, s.gen)
	return nil
}

// Close tears the channel down for good. This is for process exit only;
// ordinary screen disposal must not call it, or every re-render would look
// like a room departure to the authority.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.state = Disconnected
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = multierr.Append(err, conn.Close(websocket.StatusNormalClosure, "bye"))
	}
	s.failPending()
	return err
}

func (s *Session) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				s.markDisconnected(gen)
				return
			}
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			s.log.Debug("session read failed, reconnecting", zap.Error(err))
			s.reconnect(gen)
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.log.Warn("dropping unparseable frame", zap.Error(err))
			continue
		}
		if env.Event == wire.EventAck {
			s.deliverAck(env)
			continue
		}
		s.dispatch(env)
	}
}

func (s *Session) markDisconnected(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.conn = nil
	s.state = Disconnected
}

// reconnect redials with capped exponential backoff, then announces
// EventResync so components refetch a snapshot. Deltas are not queued while
// disconnected; replay is never attempted.
func (s *Session) reconnect(gen int) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = Connecting
	s.mu.Unlock()

	delay := 250 * time.Millisecond
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		dialCtx, cancel := context.WithTimeout(context.Background(), s.dialTimeout)
		conn, _, err := websocket.Dial(dialCtx, s.url, nil)
		cancel()
		if err == nil {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				_ = conn.Close(websocket.StatusNormalClosure, "bye")
				return
			}
			s.conn = conn
			s.state = Connected
			s.gen++
			next := s.gen
			s.mu.Unlock()

			s.log.Info("session reconnected")
			// Resync runs on this goroutine before the new read loop
			// starts, so no inbound frame can race it and handlers keep
			// the never-parallel guarantee.
			s.dispatch(wire.Envelope{Event: EventResync})
			go s.readLoop(conn, next)
			return
		}

		time.Sleep(delay)
		if delay < s.maxBackoff {
			delay *= 2
		}
	}
}

func (s *Session) write(env wire.Envelope) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
