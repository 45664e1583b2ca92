// Package room reconciles the shared room view (roster, round, role,
// secret word) against authoritative snapshots and incremental updates.
package room

import (
	"sync"

	"go.uber.org/zap"

	"github.com/riddlesketch/client/internal/session"
	"github.com/riddlesketch/client/pkg/wire"
)

type SyncState int

const (
	Uninitialized SyncState = iota
	Syncing
	Synced
)

// Reconciler merges authoritative room state. Snapshots replace everything
// wholesale; deltas apply only on top of a synced view. After a
// connectivity gap it re-requests a snapshot instead of trusting deltas.
type Reconciler struct {
	bus      session.Bus
	log      *zap.Logger
	roomID   string
	username string

	mu         sync.Mutex
	state      SyncState
	players    []wire.Player
	round      int
	wordLength int
	riddler    string
	role       wire.Role
	secret     string
	mode       wire.Mode

	subs []*session.Subscription
}

func New(bus session.Bus, log *zap.Logger, roomID, username string) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reconciler{
		bus:      bus,
		log:      log,
		roomID:   roomID,
		username: username,
		state:    Uninitialized,
		role:     wire.RoleGuesser,
		mode:     wire.ModeRiddle,
	}
	r.subs = []*session.Subscription{
		bus.Subscribe(wire.EventRoomInfo, r.onRoomInfo),
		bus.Subscribe(wire.EventUpdatePlayers, r.onUpdatePlayers),
		bus.Subscribe(wire.EventNewRound, r.onNewRound),
		bus.Subscribe(wire.EventToggleMode, r.onToggleMode),
		bus.Subscribe(session.EventResync, r.onResync),
	}
	return r
}

// Detach cancels the subscriptions. The reconciler keeps its last state;
// it is discarded with the room visit, never persisted.
func (r *Reconciler) Detach() {
	for _, sub := range r.subs {
		sub.Cancel()
	}
	r.subs = nil
}

// RequestSnapshot asks the authority for a full snapshot and moves to
// Syncing. Until the snapshot lands, incremental updates are not trusted.
func (r *Reconciler) RequestSnapshot() error {
	r.mu.Lock()
	r.state = Syncing
	r.mu.Unlock()
	return r.bus.Emit(wire.EventRequestRoomInfo, wire.RequestRoomInfo{
		RoomID:   r.roomID,
		Username: r.username,
	})
}

// ApplySnapshot replaces roster, round, role and secret wholesale. This and
// ApplyNewRound are the only paths that may populate the secret, and both
// refuse to hold a secret for a non-riddler even if the payload carries one.
func (r *Reconciler) ApplySnapshot(info wire.RoomInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = append([]wire.Player(nil), info.Players...)
	r.round = info.Round
	r.wordLength = info.WordLength
	r.riddler = info.Riddler
	r.role = normalizeRole(info.Role)
	r.secret = sanitizeSecret(r.role, info.Word)
	r.state = Synced
}

// ApplyRosterDelta replaces the roster only, preserving round and role.
func (r *Reconciler) ApplyRosterDelta(players []wire.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Synced {
		r.log.Debug("ignoring roster delta before sync")
		return
	}
	r.players = append([]wire.Player(nil), players...)
}

// ApplyNewRound moves to the next round. A payload missing the riddler or
// word fields degrades to "unknown riddler, no secret" so chat and guessing
// stay usable.
func (r *Reconciler) ApplyNewRound(nr wire.NewRound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Synced {
		r.log.Debug("ignoring round delta before sync")
		return
	}
	r.round = nr.Round
	r.wordLength = nr.WordLength
	r.riddler = nr.Riddler
	if nr.Riddler != "" && nr.Riddler == r.username {
		r.role = wire.RoleRiddler
	} else {
		r.role = wire.RoleGuesser
	}
	r.secret = sanitizeSecret(r.role, nr.Word)
	r.mode = wire.ModeRiddle
}

// SetMode switches the riddler's input surface and tells the peers.
func (r *Reconciler) SetMode(mode wire.Mode) error {
	r.mu.Lock()
	r.mode = mode
	r.mu.Unlock()
	return r.bus.Emit(wire.EventToggleMode, wire.ToggleMode{RoomID: r.roomID, Mode: mode})
}

func (r *Reconciler) onRoomInfo(env wire.Envelope) {
	var info wire.RoomInfo
	if err := env.Decode(&info); err != nil {
		r.log.Warn("malformed snapshot", zap.Error(err))
		return
	}
	r.ApplySnapshot(info)
}

func (r *Reconciler) onUpdatePlayers(env wire.Envelope) {
	var players []wire.Player
	if err := env.Decode(&players); err != nil {
		r.log.Warn("malformed roster update", zap.Error(err))
		return
	}
	r.ApplyRosterDelta(players)
}

func (r *Reconciler) onNewRound(env wire.Envelope) {
	var nr wire.NewRound
	if err := env.Decode(&nr); err != nil {
		r.log.Warn("malformed round payload", zap.Error(err))
		return
	}
	r.ApplyNewRound(nr)
}

func (r *Reconciler) onToggleMode(env wire.Envelope) {
	var tm wire.ToggleMode
	if err := env.Decode(&tm); err != nil {
		return
	}
	if tm.RoomID != "" && tm.RoomID != r.roomID {
		return
	}
	r.mu.Lock()
	r.mode = tm.Mode
	r.mu.Unlock()
}

func (r *Reconciler) onResync(wire.Envelope) {
	if err := r.RequestSnapshot(); err != nil {
		r.log.Warn("snapshot request after reconnect failed", zap.Error(err))
	}
}

func (r *Reconciler) State() SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) Players() []wire.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]wire.Player(nil), r.players...)
}

func (r *Reconciler) Round() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func (r *Reconciler) WordLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wordLength
}

func (r *Reconciler) Riddler() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.riddler
}

func (r *Reconciler) Role() wire.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

// Secret returns the hidden word. Empty for everyone but the riddler.
func (r *Reconciler) Secret() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.secret
}

func (r *Reconciler) Mode() wire.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func normalizeRole(role wire.Role) wire.Role {
	if role == wire.RoleRiddler {
		return wire.RoleRiddler
	}
	return wire.RoleGuesser
}

// sanitizeSecret enforces the confidentiality invariant locally: a
// malformed payload that leaks the word to a guesser is scrubbed here.
func sanitizeSecret(role wire.Role, word string) string {
	if role != wire.RoleRiddler {
		return ""
	}
	return word
}
