package room_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riddlesketch/client/internal/room"
	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/internal/session/sessiontest"
	"github.com/riddlesketch/client/pkg/wire"
)

func synced(t *testing.T, bus *sessiontest.FakeBus, rec *room.Reconciler, info wire.RoomInfo) {
	t.Helper()
	require.NoError(t, rec.RequestSnapshot())
	bus.Dispatch(wire.EventRoomInfo, info)
	require.Equal(t, room.Synced, rec.State())
}

func TestReconciler_SnapshotThenRosterDelta(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ana")

	synced(t, bus, rec, wire.RoomInfo{
		WordLength: 8,
		Round:      1,
		Players:    []wire.Player{{ID: "1", Name: "Ana", Score: 0, IsHost: true}},
		Riddler:    "Ana",
		Role:       wire.RoleRiddler,
		Word:       "elephant",
	})

	bus.Dispatch(wire.EventUpdatePlayers, []wire.Player{
		{ID: "1", Name: "Ana", Score: 5, IsHost: true},
		{ID: "2", Name: "Ben", Score: 0, IsHost: false},
	})

	players := rec.Players()
	require.Len(t, players, 2)
	require.Equal(t, 5, players[0].Score)
	require.Equal(t, "Ben", players[1].Name)
	// Round and role survive roster deltas.
	require.Equal(t, 1, rec.Round())
	require.Equal(t, wire.RoleRiddler, rec.Role())
	require.Equal(t, "elephant", rec.Secret())
}

func TestReconciler_DeltasIgnoredBeforeSync(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ana")

	bus.Dispatch(wire.EventUpdatePlayers, []wire.Player{{ID: "1", Name: "Ana"}})
	require.Empty(t, rec.Players())
	require.Equal(t, room.Uninitialized, rec.State())

	bus.Dispatch(wire.EventNewRound, wire.NewRound{Round: 7})
	require.Equal(t, 0, rec.Round())
}

func TestReconciler_SecretScrubbedForGuesser(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ben")

	// A malformed snapshot leaks the word to a guesser; the reconciler
	// must scrub it on every construction path.
	synced(t, bus, rec, wire.RoomInfo{
		WordLength: 8,
		Round:      1,
		Riddler:    "Ana",
		Role:       wire.RoleGuesser,
		Word:       "elephant",
	})
	require.Empty(t, rec.Secret())

	bus.Dispatch(wire.EventNewRound, wire.NewRound{
		WordLength: 6,
		Round:      2,
		Riddler:    "Ana",
		Word:       "castle",
	})
	require.Equal(t, wire.RoleGuesser, rec.Role())
	require.Empty(t, rec.Secret())
}

func TestReconciler_NewRoundAsRiddler(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ben")

	synced(t, bus, rec, wire.RoomInfo{Round: 1, Riddler: "Ana", Role: wire.RoleGuesser})

	bus.Dispatch(wire.EventNewRound, wire.NewRound{
		WordLength: 6,
		Round:      2,
		Riddler:    "Ben",
		Word:       "castle",
	})
	require.Equal(t, wire.RoleRiddler, rec.Role())
	require.Equal(t, "castle", rec.Secret())
	require.Equal(t, 6, rec.WordLength())
}

func TestReconciler_MalformedNewRoundDegrades(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ben")

	synced(t, bus, rec, wire.RoomInfo{
		Round:   1,
		Riddler: "Ana",
		Role:    wire.RoleGuesser,
	})

	// Round payload with no riddler and no word: blank-length indicator,
	// unknown riddler, no secret, no crash.
	bus.Dispatch(wire.EventNewRound, wire.NewRound{Round: 2, WordLength: 5})
	require.Equal(t, 2, rec.Round())
	require.Equal(t, 5, rec.WordLength())
	require.Empty(t, rec.Riddler())
	require.Equal(t, wire.RoleGuesser, rec.Role())
	require.Empty(t, rec.Secret())
}

func TestReconciler_ResyncRequestsFreshSnapshot(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ana")

	synced(t, bus, rec, wire.RoomInfo{
		Round:   3,
		Players: []wire.Player{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Ben"}},
		Riddler: "Ana",
		Role:    wire.RoleRiddler,
		Word:    "volcano",
	})

	// Transport came back: the reconciler must drop to Syncing and ask for
	// a snapshot instead of trusting any deltas it missed.
	bus.Dispatch(session.EventResync, nil)
	require.Equal(t, room.Syncing, rec.State())

	var requested int
	for _, e := range bus.EmittedEvents() {
		if e.Event == wire.EventRequestRoomInfo {
			requested++
		}
	}
	require.Equal(t, 2, requested) // initial sync + resync

	// The fresh snapshot overwrites everything stale.
	bus.Dispatch(wire.EventRoomInfo, wire.RoomInfo{
		Round:   4,
		Players: []wire.Player{{ID: "2", Name: "Ben"}},
		Riddler: "Ben",
		Role:    wire.RoleGuesser,
	})
	require.Equal(t, room.Synced, rec.State())
	require.Equal(t, 4, rec.Round())
	require.Len(t, rec.Players(), 1)
	require.Empty(t, rec.Secret())
	require.Equal(t, wire.RoleGuesser, rec.Role())
}

func TestReconciler_ModeFollowsToggleEvents(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	rec := room.New(bus, nil, "R1", "Ana")

	require.Equal(t, wire.ModeRiddle, rec.Mode())
	bus.Dispatch(wire.EventToggleMode, wire.ToggleMode{RoomID: "R1", Mode: wire.ModeDraw})
	require.Equal(t, wire.ModeDraw, rec.Mode())

	// Another room's toggle is not ours.
	bus.Dispatch(wire.EventToggleMode, wire.ToggleMode{RoomID: "R2", Mode: wire.ModeRiddle})
	require.Equal(t, wire.ModeDraw, rec.Mode())

	require.NoError(t, rec.SetMode(wire.ModeRiddle))
	require.Equal(t, wire.ModeRiddle, rec.Mode())
	events := bus.EmittedEvents()
	require.Equal(t, wire.EventToggleMode, events[len(events)-1].Event)
}
