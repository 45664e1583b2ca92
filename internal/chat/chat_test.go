package chat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riddlesketch/client/internal/chat"
	"github.com/riddlesketch/client/internal/session/sessiontest"
	"github.com/riddlesketch/client/pkg/wire"
)

func TestLog_DuplicateMessageDropped(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	msg := wire.ChatMessage{ID: "m1", Player: "Ben", Text: "hi"}
	bus.Dispatch(wire.EventMessage, msg)
	bus.Dispatch(wire.EventMessage, msg)

	require.Equal(t, 1, l.Len())
	require.Equal(t, "hi", l.Messages()[0].Text)
}

func TestLog_ArrivalOrderWins(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	// Timestamps deliberately inverted: network order is display order.
	bus.Dispatch(wire.EventMessage, wire.ChatMessage{ID: "m1", Text: "first", Timestamp: 200})
	bus.Dispatch(wire.EventMessage, wire.ChatMessage{ID: "m2", Text: "second", Timestamp: 100})

	msgs := l.Messages()
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "second", msgs[1].Text)
}

func TestLog_SendIsNotLocallyEchoed(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	require.NoError(t, l.Send("hello"))
	require.Equal(t, 0, l.Len())

	events := bus.EmittedEvents()
	require.Len(t, events, 1)
	require.Equal(t, wire.EventChatMessage, events[0].Event)

	var cs wire.ChatSend
	require.NoError(t, events[0].Env.Decode(&cs))
	require.Equal(t, "R1", cs.RoomID)
	require.Equal(t, "Ana", cs.Username)
	require.Equal(t, "hello", cs.Text)

	// The transcript only grows on the authoritative echo.
	bus.Dispatch(wire.EventMessage, wire.ChatMessage{ID: "m1", Player: "Ana", Text: "hello"})
	require.Equal(t, 1, l.Len())
}

func TestLog_SendGuess(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	require.NoError(t, l.SendGuess("elephant"))
	events := bus.EmittedEvents()
	require.Len(t, events, 1)
	require.Equal(t, wire.EventGuessWord, events[0].Event)

	var gs wire.GuessSend
	require.NoError(t, events[0].Env.Decode(&gs))
	require.Equal(t, "elephant", gs.Guess)
}

func TestLog_WinnerBecomesSystemNotice(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	w := wire.Winner{Username: "Ben", Word: "castle"}
	bus.Dispatch(wire.EventWinner, w)
	bus.Dispatch(wire.EventWinner, w) // re-delivery deduplicates

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].IsSystem)
	require.Contains(t, msgs[0].Text, "Ben")
	require.Contains(t, msgs[0].Text, "castle")
}

func TestLog_RepeatedWinInLaterRoundIsNoticed(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	w := wire.Winner{Username: "Ben", Word: "castle"}
	bus.Dispatch(wire.EventWinner, w)
	bus.Dispatch(wire.EventNewRound, wire.NewRound{Round: 3, Riddler: "Ben", WordLength: 6})
	// With a small word pool the same player winning on the same word
	// again is routine, and each resolution deserves its own notice.
	bus.Dispatch(wire.EventWinner, w)

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	require.NotEqual(t, msgs[0].ID, msgs[1].ID)

	// Re-delivery within the same round still deduplicates.
	bus.Dispatch(wire.EventWinner, w)
	require.Equal(t, 2, l.Len())
}

func TestLog_AssistantTyping(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	require.False(t, l.AssistantTyping())
	bus.Dispatch(wire.EventAITyping, true)
	require.True(t, l.AssistantTyping())
	bus.Dispatch(wire.EventAITyping, false)
	require.False(t, l.AssistantTyping())
}

func TestLog_MalformedMessageDropped(t *testing.T) {
	bus := sessiontest.NewFakeBus()
	l := chat.New(bus, nil, "R1", "Ana")

	bus.DispatchRaw(wire.Envelope{Event: wire.EventMessage, Data: []byte(`"not an object"`)})
	require.Equal(t, 0, l.Len())
}
