// Package sessiontest provides an in-memory Bus for component tests: no
// transport, handlers invoked synchronously from Dispatch.
package sessiontest

import (
	"context"
	"sync"

	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/pkg/wire"
)

type Emitted struct {
	Event string
	Env   wire.Envelope
}

type FakeBus struct {
	mu       sync.Mutex
	emitted  []Emitted
	requests []Emitted
	handlers map[string][]session.Handler

	// Acks maps event name to the ack Request returns; unmapped events
	// get a plain success.
	Acks map[string]wire.Ack
	// Err, when set, fails every Emit and Request.
	Err error
}

func NewFakeBus() *FakeBus {
	return &FakeBus{
		handlers: make(map[string][]session.Handler),
		Acks:     make(map[string]wire.Ack),
	}
}

func (b *FakeBus) Emit(event string, payload any) error {
	if b.Err != nil {
		return b.Err
	}
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.emitted = append(b.emitted, Emitted{Event: event, Env: env})
	b.mu.Unlock()
	return nil
}

func (b *FakeBus) Request(ctx context.Context, event string, payload any) (wire.Ack, error) {
	if b.Err != nil {
		return wire.Ack{}, b.Err
	}
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return wire.Ack{}, err
	}
	b.mu.Lock()
	b.requests = append(b.requests, Emitted{Event: event, Env: env})
	ack, ok := b.Acks[event]
	b.mu.Unlock()
	if !ok {
		ack = wire.Ack{Success: true}
	}
	return ack, nil
}

func (b *FakeBus) Subscribe(event string, fn session.Handler) *session.Subscription {
	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], fn)
	b.mu.Unlock()
	return &session.Subscription{}
}

// Dispatch delivers an event to subscribers the way the session's read
// loop would: synchronously, in attach order.
func (b *FakeBus) Dispatch(event string, payload any) {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	hs := append([]session.Handler(nil), b.handlers[event]...)
	b.mu.Unlock()
	for _, fn := range hs {
		fn(env)
	}
}

// DispatchRaw delivers a pre-built envelope, for malformed-payload cases.
func (b *FakeBus) DispatchRaw(env wire.Envelope) {
	b.mu.Lock()
	hs := append([]session.Handler(nil), b.handlers[env.Event]...)
	b.mu.Unlock()
	for _, fn := range hs {
		fn(env)
	}
}

func (b *FakeBus) EmittedEvents() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Emitted(nil), b.emitted...)
}

func (b *FakeBus) Requests() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Emitted(nil), b.requests...)
}

var _ session.Bus = (*FakeBus)(nil)
