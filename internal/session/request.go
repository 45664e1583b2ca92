package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

// Outcome is the resolution of an acknowledged request. Rejection is a
// value, not an error: the authority declining a join or a kick vote is a
// normal result the caller surfaces as a notice.
type Outcome struct {
	OK     bool
	Reason string
}

// Emit sends a fire-and-forget frame.
func (s *Session) Emit(event string, payload any) error {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return s.write(env)
}

// Request sends a frame carrying a Seq and waits for the matching ack.
// Request never retries; retry policy belongs to the caller. If ctx expires
// first, a later ack for this Seq is silently dropped.
func (s *Session) Request(ctx context.Context, event string, payload any) (wire.Ack, error) {
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		return wire.Ack{}, err
	}

	ch := make(chan wire.Ack, 1)
	s.reqMu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.pending[seq] = ch
	s.reqMu.Unlock()
	env.Seq = seq

	if err := s.write(env); err != nil {
		s.dropPending(seq)
		return wire.Ack{}, err
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return wire.Ack{}, ErrClosed
		}
		return ack, nil
	case <-ctx.Done():
		s.dropPending(seq)
		return wire.Ack{}, ctx.Err()
	}
}

func (s *Session) deliverAck(env wire.Envelope) {
	var ack wire.Ack
	if err := env.Decode(&ack); err != nil {
		s.log.Warn("dropping malformed ack", zap.Error(err))
		return
	}
	s.reqMu.Lock()
	ch, ok := s.pending[env.Seq]
	delete(s.pending, env.Seq)
	s.reqMu.Unlock()
	if !ok {
		// The caller navigated away or timed out; a late ack is ignorable.
		s.log.Debug("dropping unclaimed ack", zap.Uint64("seq", env.Seq))
		return
	}
	ch <- ack
}

func (s *Session) dropPending(seq uint64) {
	s.reqMu.Lock()
	delete(s.pending, seq)
	s.reqMu.Unlock()
}

// failPending closes every waiter's channel; Request reports ErrClosed.
func (s *Session) failPending() {
	s.reqMu.Lock()
	for seq, ch := range s.pending {
		close(ch)
		delete(s.pending, seq)
	}
	s.reqMu.Unlock()
}

// JoinRoom requests membership. A failed join is an Outcome, not an error.
func (s *Session) JoinRoom(ctx context.Context, roomID, username string) (Outcome, error) {
	ack, err := s.Request(ctx, wire.EventJoinRoom, wire.JoinRoom{RoomID: roomID, Username: username})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{OK: ack.Success, Reason: ack.Message}, nil
}

// CheckRoom probes whether a room exists before navigating into it.
func (s *Session) CheckRoom(ctx context.Context, roomID, username string) (bool, string, error) {
	ack, err := s.Request(ctx, wire.EventCheckRoom, wire.CheckRoom{RoomID: roomID, Username: username})
	if err != nil {
		return false, "", err
	}
	return ack.Exists, ack.Message, nil
}
