package session

import "github.com/riddlesketch/client/pkg/wire"

// Subscription is the disposable handle returned by Subscribe. Re-rendering
// callers cancel the old handle before attaching a new one, so idempotent
// attachment is structural: there is no "already attached" flag to keep in
// sync with handler identity.
type Subscription struct {
	s     *Session
	event string
	token uint64
}

func (s *Session) Subscribe(event string, fn Handler) *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextToken++
	token := s.nextToken
	if s.subs[event] == nil {
		s.subs[event] = make(map[uint64]Handler)
	}
	s.subs[event][token] = fn
	return &Subscription{s: s, event: event, token: token}
}

// Cancel detaches the handler. Safe to call twice.
func (sub *Subscription) Cancel() {
	if sub == nil || sub.s == nil {
		return
	}
	sub.s.subMu.Lock()
	defer sub.s.subMu.Unlock()
	if hs := sub.s.subs[sub.event]; hs != nil {
		delete(hs, sub.token)
	}
	sub.s = nil
}

func (s *Session) dispatch(env wire.Envelope) {
	s.subMu.Lock()
	hs := make([]Handler, 0, len(s.subs[env.Event]))
	for _, fn := range s.subs[env.Event] {
		hs = append(hs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range hs {
		fn(env)
	}
}
