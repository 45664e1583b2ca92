// Package chat maintains the room transcript: an append-only sequence in
// arrival order, deduplicated by message id. Locally composed messages are
// not echoed optimistically; they enter the transcript only when the
// authority broadcasts them back, so sender and receivers can never
// diverge.
package chat

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/pkg/wire"
)

type Log struct {
	bus      session.Bus
	log      *zap.Logger
	roomID   string
	username string

	mu       sync.Mutex
	msgs     []wire.ChatMessage
	seen     map[string]struct{}
	aiTyping bool
	round    int

	subs []*session.Subscription
}

func New(bus session.Bus, log *zap.Logger, roomID, username string) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Log{
		bus:      bus,
		log:      log,
		roomID:   roomID,
		username: username,
		seen:     make(map[string]struct{}),
	}
	l.subs = []*session.Subscription{
		bus.Subscribe(wire.EventMessage, l.onMessage),
		bus.Subscribe(wire.EventWinner, l.onWinner),
		bus.Subscribe(wire.EventNewRound, l.onNewRound),
		bus.Subscribe(wire.EventAITyping, l.onAITyping),
	}
	return l
}

func (l *Log) Detach() {
	for _, sub := range l.subs {
		sub.Cancel()
	}
	l.subs = nil
}

// Append adds a message unless its id is already known. Returns whether the
// transcript changed. Arrival order is display order; timestamps are
// informational only.
func (l *Log) Append(msg wire.ChatMessage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[msg.ID]; ok {
		l.log.Debug("dropping duplicate message", zap.String("id", msg.ID))
		return false
	}
	l.seen[msg.ID] = struct{}{}
	l.msgs = append(l.msgs, msg)
	return true
}

func (l *Log) Messages() []wire.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]wire.ChatMessage(nil), l.msgs...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// AssistantTyping reports whether the riddle assistant is composing.
func (l *Log) AssistantTyping() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aiTyping
}

// Send emits a chat intent. The transcript is untouched until the
// authoritative echo comes back through onMessage.
func (l *Log) Send(text string) error {
	return l.bus.Emit(wire.EventChatMessage, wire.ChatSend{
		RoomID:   l.roomID,
		Username: l.username,
		Text:     text,
	})
}

// SendGuess submits a guess for the current word.
func (l *Log) SendGuess(guess string) error {
	return l.bus.Emit(wire.EventGuessWord, wire.GuessSend{
		RoomID:   l.roomID,
		Username: l.username,
		Guess:    guess,
	})
}

func (l *Log) onMessage(env wire.Envelope) {
	var msg wire.ChatMessage
	if err := env.Decode(&msg); err != nil {
		l.log.Warn("malformed chat message", zap.Error(err))
		return
	}
	l.Append(msg)
}

// onWinner surfaces round resolutions as system notices in the transcript.
// The deterministic id makes a re-delivered winner broadcast deduplicate
// like any other message. It is scoped to the current round so the same
// player winning on the same word again in a later round still gets a
// notice.
func (l *Log) onWinner(env wire.Envelope) {
	var w wire.Winner
	if err := env.Decode(&w); err != nil {
		l.log.Warn("malformed winner payload", zap.Error(err))
		return
	}
	l.mu.Lock()
	round := l.round
	l.mu.Unlock()
	l.Append(wire.ChatMessage{
		ID:        fmt.Sprintf("winner:%d:%s:%s", round, w.Username, w.Word),
		Player:    "System",
		Text:      fmt.Sprintf("%s guessed the word! It was %q.", w.Username, w.Word),
		IsSystem:  true,
		Timestamp: time.Now().UnixMilli(),
	})
}

// onNewRound tracks the round counter for winner notice ids.
func (l *Log) onNewRound(env wire.Envelope) {
	var nr wire.NewRound
	if err := env.Decode(&nr); err != nil {
		return
	}
	l.mu.Lock()
	l.round = nr.Round
	l.mu.Unlock()
}

func (l *Log) onAITyping(env wire.Envelope) {
	var typing bool
	if err := env.Decode(&typing); err != nil {
		return
	}
	l.mu.Lock()
	l.aiTyping = typing
	l.mu.Unlock()
}
