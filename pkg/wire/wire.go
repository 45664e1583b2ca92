// Package wire defines the JSON frames exchanged with the game authority.
//
// Every frame is one Envelope. Seq is only present on client requests that
// expect an acknowledgment; the authority answers those with an "ack" frame
// carrying the same Seq. Broadcasts never carry a Seq.
package wire

import (
	"encoding/json"
	"fmt"
)

// Event names, both directions.
const (
	EventAck             = "ack"
	EventJoinRoom        = "joinRoom"
	EventCheckRoom       = "checkRoom"
	EventRequestRoomInfo = "requestRoomInfo"
	EventRoomInfo        = "roomInfo"
	EventUpdatePlayers   = "updatePlayers"
	EventMessage         = "message"
	EventChatMessage     = "chatMessage"
	EventGuessWord       = "guessWord"
	EventNewRound        = "newRound"
	EventWinner          = "winner"
	EventDrawing         = "drawing"
	EventToggleMode      = "toggleModeChanged"
	EventAITyping        = "aiTyping"
	EventVoteKick        = "voteKick"
	EventLeaveRoom       = "leaveRoom"
)

type Envelope struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, data any) (Envelope, error) {
	env := Envelope{Event: event}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	env.Data = raw
	return env, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("decode %s payload: empty data", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

// Ack is the authority's answer to a Seq-carrying request. Success covers
// joinRoom/voteKick/leaveRoom; Exists covers checkRoom.
type Ack struct {
	Success bool   `json:"success"`
	Exists  bool   `json:"exists,omitempty"`
	Message string `json:"message,omitempty"`
}

type Role string

const (
	RoleRiddler Role = "riddler"
	RoleGuesser Role = "guesser"
)

// Mode is the riddler's active input surface.
type Mode string

const (
	ModeRiddle Mode = "riddle"
	ModeDraw   Mode = "draw"
)

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

// RoomInfo is the full authoritative snapshot. Word is present only when
// the receiving participant is the riddler.
type RoomInfo struct {
	WordLength int      `json:"wordLength"`
	Round      int      `json:"round"`
	Players    []Player `json:"players"`
	Riddler    string   `json:"riddler"`
	Role       Role     `json:"role"`
	Word       string   `json:"word,omitempty"`
}

type NewRound struct {
	WordLength int    `json:"wordLength"`
	Round      int    `json:"round"`
	Riddler    string `json:"riddler"`
	Word       string `json:"word,omitempty"`
}

type Winner struct {
	Username string `json:"username"`
	Word     string `json:"word"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	Player    string `json:"player"`
	Text      string `json:"text"`
	IsSystem  bool   `json:"isSystem"`
	Timestamp int64  `json:"timestamp"`
}

// Client -> authority intents.

type JoinRoom struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type CheckRoom struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type RequestRoomInfo struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ChatSend struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type GuessSend struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Guess    string `json:"guess"`
}

type VoteKick struct {
	RoomID string `json:"roomId"`
	Target string `json:"target"`
	Voter  string `json:"voter"`
}

type LeaveRoom struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type ToggleMode struct {
	RoomID string `json:"roomId"`
	Mode   Mode   `json:"mode"`
}
