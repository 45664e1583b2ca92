// Package moderation issues leave and kick-vote requests. Outcomes are
// whatever the authority acknowledges; nothing here mutates the roster
// speculatively; removals only ever arrive through a later roster update.
package moderation

import (
	"context"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/pkg/wire"
)

type Coordinator struct {
	bus      session.Bus
	log      *zap.Logger
	roomID   string
	username string
}

func New(bus session.Bus, log *zap.Logger, roomID, username string) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{bus: bus, log: log, roomID: roomID, username: username}
}

// Leave asks the authority to remove us. On an affirmative outcome the
// caller navigates away; a rejection carries a displayable reason. No
// automatic retry either way.
func (c *Coordinator) Leave(ctx context.Context) (session.Outcome, error) {
	ack, err := c.bus.Request(ctx, wire.EventLeaveRoom, wire.LeaveRoom{
		RoomID:   c.roomID,
		Username: c.username,
	})
	if err != nil {
		return session.Outcome{}, err
	}
	if !ack.Success {
		c.log.Warn("leave rejected", zap.String("reason", ack.Message))
	}
	return session.Outcome{OK: ack.Success, Reason: ack.Message}, nil
}

// KickVote submits a vote to remove target, with our own name attached for
// the authority's accounting. Whether a threshold is reached is entirely
// the authority's business; the target disappears from our roster only if
// a roster update later says so.
func (c *Coordinator) KickVote(ctx context.Context, target string) (session.Outcome, error) {
	ack, err := c.bus.Request(ctx, wire.EventVoteKick, wire.VoteKick{
		RoomID: c.roomID,
		Target: target,
		Voter:  c.username,
	})
	if err != nil {
		return session.Outcome{}, err
	}
	if !ack.Success {
		c.log.Warn("kick vote rejected",
			zap.String("target", target),
			zap.String("reason", ack.Message))
	}
	return session.Outcome{OK: ack.Success, Reason: ack.Message}, nil
}
