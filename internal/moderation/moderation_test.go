package moderation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riddlesketch/client/internal/moderation"
	"github.com/riddlesketch/client/internal/session/sessiontest"
	"github.com/riddlesketch/client/pkg/wire"
)

func TestCoordinator_LeaveOutcome(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	c := moderation.New(bus, nil, "R1", "Ana")

	outcome, err := c.Leave(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.OK)

	reqs := bus.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, wire.EventLeaveRoom, reqs[0].Event)

	var lr wire.LeaveRoom
	require.NoError(t, reqs[0].Env.Decode(&lr))
	require.Equal(t, "R1", lr.RoomID)
	require.Equal(t, "Ana", lr.Username)
}

func TestCoordinator_KickVoteCarriesVoter(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	c := moderation.New(bus, nil, "R1", "Ana")

	outcome, err := c.KickVote(context.Background(), "Ben")
	require.NoError(t, err)
	require.True(t, outcome.OK)

	reqs := bus.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, wire.EventVoteKick, reqs[0].Event)

	var vk wire.VoteKick
	require.NoError(t, reqs[0].Env.Decode(&vk))
	require.Equal(t, "Ben", vk.Target)
	require.Equal(t, "Ana", vk.Voter)
}

func TestCoordinator_RejectionIsAnOutcomeNotAnError(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	bus.Acks[wire.EventVoteKick] = wire.Ack{Success: false, Message: "only the host can remove players"}
	c := moderation.New(bus, nil, "R1", "Ben")

	outcome, err := c.KickVote(context.Background(), "Ana")
	require.NoError(t, err)
	require.False(t, outcome.OK)
	require.Equal(t, "only the host can remove players", outcome.Reason)

	// One request only: no automatic retry.
	require.Len(t, bus.Requests(), 1)
}
