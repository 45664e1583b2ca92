package authority

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

type roomMsg interface{ isRoomMsg() }

// Join registers a connection with the room. The ack goes to Outbox with
// the given Seq.
type Join struct {
	ConnID   string
	Username string
	Seq      uint64
	Outbox   chan wire.Envelope
}

// Detach drops a connection whose transport died without a leaveRoom. The
// outbox comes along so the room can close it even when the join was
// rejected and the connection never registered.
type Detach struct {
	ConnID string
	Outbox chan wire.Envelope
}

// Frame is any in-room event forwarded from a joined connection.
type Frame struct {
	ConnID string
	Env    wire.Envelope
}

// GetView reflects internal state for tests and the REST handlers without
// data races.
type GetView struct{ Reply chan View }

type GetRoster struct{ Reply chan []wire.Player }

type Shutdown struct{}

func (Join) isRoomMsg()      {}
func (Detach) isRoomMsg()    {}
func (Frame) isRoomMsg()     {}
func (GetView) isRoomMsg()   {}
func (GetRoster) isRoomMsg() {}
func (Shutdown) isRoomMsg()  {}

type View struct {
	Participants int
	Round        int
	Riddler      string
	Word         string
}

type participant struct {
	id     string
	name   string
	score  int
	host   bool
	outbox chan wire.Envelope
}

// Room is one game room, run as a single-goroutine actor.
type Room struct {
	id      string
	creator string
	inbox   chan roomMsg
	parts   map[string]*participant
	gone    map[string]struct{} // connIDs whose outbox the room closed

	round   int
	word    string
	riddler string

	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewRoom(parent context.Context, id, creator string, log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		id:      id,
		creator: creator,
		inbox:   make(chan roomMsg, 64),
		parts:   make(map[string]*participant),
		gone:    make(map[string]struct{}),
		round:   1,
		word:    pickWord(),
		riddler: creator,
		ctx:     ctx,
		cancel:  cancel,
		log:     log.With(zap.String("room", id)),
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- roomMsg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)
			case Detach:
				r.detach(msg)
			case Frame:
				r.frame(msg.ConnID, msg.Env)
			case GetView:
				msg.Reply <- View{
					Participants: len(r.parts),
					Round:        r.round,
					Riddler:      r.riddler,
					Word:         r.word,
				}
			case GetRoster:
				msg.Reply <- r.roster()
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) join(msg Join) {
	for _, p := range r.parts {
		if p.name == msg.Username {
			r.ack(msg.Outbox, msg.Seq, wire.Ack{Success: false, Message: "name already in use"})
			return
		}
	}
	p := &participant{
		id:     msg.ConnID,
		name:   msg.Username,
		host:   len(r.parts) == 0 || msg.Username == r.creator,
		outbox: msg.Outbox,
	}
	r.parts[msg.ConnID] = p
	if r.riddler == "" {
		r.riddler = p.name
	}
	r.ack(msg.Outbox, msg.Seq, wire.Ack{Success: true})
	r.broadcastPlayers()
	r.notice(p.name + " joined the room")
}

func (r *Room) frame(connID string, env wire.Envelope) {
	p := r.parts[connID]
	if p == nil {
		return
	}

	switch env.Event {
	case wire.EventRequestRoomInfo:
		r.sendRoomInfo(p)

	case wire.EventChatMessage:
		var cs wire.ChatSend
		if env.Decode(&cs) != nil {
			return
		}
		r.broadcast(r.chatEnvelope(p.name, cs.Text, false))

	case wire.EventGuessWord:
		var gs wire.GuessSend
		if env.Decode(&gs) != nil {
			return
		}
		r.guess(p, gs.Guess)

	case wire.EventDrawing, wire.EventToggleMode, wire.EventAITyping:
		r.relay(connID, env)

	case wire.EventVoteKick:
		var vk wire.VoteKick
		if env.Decode(&vk) != nil {
			return
		}
		r.voteKick(p, env.Seq, vk.Target)

	case wire.EventLeaveRoom:
		r.ack(p.outbox, env.Seq, wire.Ack{Success: true})
		r.remove(connID)
		r.notice(p.name + " left the room")
	}
}

func (r *Room) guess(p *participant, guess string) {
	if !strings.EqualFold(strings.TrimSpace(guess), r.word) {
		r.broadcast(r.chatEnvelope(p.name, guess, false))
		return
	}
	p.score += 100
	r.broadcast(envelopeOf(wire.EventWinner, wire.Winner{Username: p.name, Word: r.word}, r.log))
	r.broadcastPlayers()
	// The winner riddles next.
	r.nextRound(p.name)
}

func (r *Room) voteKick(voter *participant, seq uint64, target string) {
	if !voter.host {
		r.ack(voter.outbox, seq, wire.Ack{Success: false, Message: "only the host can remove players"})
		return
	}
	for id, p := range r.parts {
		if p.name == target {
			r.ack(voter.outbox, seq, wire.Ack{Success: true})
			r.remove(id)
			r.notice(target + " was removed from the room")
			return
		}
	}
	r.ack(voter.outbox, seq, wire.Ack{Success: false, Message: "player not found"})
}

func (r *Room) nextRound(nextRiddler string) {
	r.round++
	r.word = pickWord()
	r.riddler = nextRiddler
	for _, p := range r.parts {
		nr := wire.NewRound{
			WordLength: len(r.word),
			Round:      r.round,
			Riddler:    r.riddler,
		}
		if p.name == r.riddler {
			nr.Word = r.word
		}
		r.send(p, envelopeOf(wire.EventNewRound, nr, r.log))
	}
}

func (r *Room) sendRoomInfo(p *participant) {
	info := wire.RoomInfo{
		WordLength: len(r.word),
		Round:      r.round,
		Players:    r.roster(),
		Riddler:    r.riddler,
		Role:       wire.RoleGuesser,
	}
	if p.name == r.riddler {
		info.Role = wire.RoleRiddler
		info.Word = r.word
	}
	r.send(p, envelopeOf(wire.EventRoomInfo, info, r.log))
}

func (r *Room) detach(msg Detach) {
	if p := r.parts[msg.ConnID]; p != nil {
		r.remove(msg.ConnID)
		r.notice(p.name + " left the room")
		return
	}
	// The connection never registered (rejected join) or was removed
	// already. Close the outbox exactly once so the writer goroutine can
	// exit.
	if _, closed := r.gone[msg.ConnID]; !closed && msg.Outbox != nil {
		r.gone[msg.ConnID] = struct{}{}
		close(msg.Outbox)
	}
}

func (r *Room) remove(connID string) {
	p := r.parts[connID]
	if p == nil {
		return
	}
	delete(r.parts, connID)
	r.gone[connID] = struct{}{}
	close(p.outbox)
	r.broadcastPlayers()
	if p.name == r.riddler && len(r.parts) > 0 {
		r.nextRound(r.roster()[0].Name)
	}
}

func (r *Room) roster() []wire.Player {
	players := make([]wire.Player, 0, len(r.parts))
	for _, p := range r.parts {
		players = append(players, wire.Player{
			ID:     p.id,
			Name:   p.name,
			Score:  p.score,
			IsHost: p.host,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players
}

func (r *Room) broadcastPlayers() {
	r.broadcast(envelopeOf(wire.EventUpdatePlayers, r.roster(), r.log))
}

func (r *Room) notice(text string) {
	r.broadcast(r.chatEnvelope("System", text, true))
}

func (r *Room) chatEnvelope(player, text string, system bool) wire.Envelope {
	return envelopeOf(wire.EventMessage, wire.ChatMessage{
		ID:        uuid.NewString(),
		Player:    player,
		Text:      text,
		IsSystem:  system,
		Timestamp: time.Now().UnixMilli(),
	}, r.log)
}

func (r *Room) ack(outbox chan wire.Envelope, seq uint64, ack wire.Ack) {
	env := envelopeOf(wire.EventAck, ack, r.log)
	env.Seq = seq
	select {
	case outbox <- env:
	default:
	}
}

func (r *Room) broadcast(env wire.Envelope) {
	for id, p := range r.parts {
		select {
		case p.outbox <- env:
			// ok
		default:
			// Participant is slow/full - drop them.
			r.gone[id] = struct{}{}
			close(p.outbox)
			delete(r.parts, id)
		}
	}
}

func (r *Room) relay(senderID string, env wire.Envelope) {
	for id, p := range r.parts {
		if id == senderID {
			continue
		}
		select {
		case p.outbox <- env:
		default:
			r.gone[id] = struct{}{}
			close(p.outbox)
			delete(r.parts, id)
		}
	}
}

func (r *Room) send(p *participant, env wire.Envelope) {
	select {
	case p.outbox <- env:
	default:
	}
}

func (r *Room) shutdown() {
	for id, p := range r.parts {
		r.gone[id] = struct{}{}
		close(p.outbox)
		delete(r.parts, id)
	}
	r.cancel()
}
