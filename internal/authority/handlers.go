package authority

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/riddlesketch/client/pkg/wire"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// roomDescriptor mirrors the room API response shape the client consumes.
type roomDescriptor struct {
	RoomID     string        `json:"roomId"`
	Role       wire.Role     `json:"role"`
	Word       string        `json:"word,omitempty"`
	WordLength int           `json:"wordLength"`
	Players    []wire.Player `json:"players"`
	Riddler    string        `json:"riddler,omitempty"`
	Round      int           `json:"round"`
}

type apiEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, env apiEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

type createRoomRequest struct {
	RoomID   string `json:"roomId,omitempty"`
	Username string `json:"username"`
	Mode     string `json:"mode,omitempty"`
}

func CreateRoomHandler(reg *Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			writeEnvelope(w, http.StatusBadRequest, apiEnvelope{Message: "username is required"})
			return
		}

		code := req.RoomID
		for code == "" {
			c, err := GenerateCode()
			if err != nil {
				writeEnvelope(w, http.StatusInternalServerError, apiEnvelope{Message: "failed to generate code"})
				return
			}
			if reg.lookup(c) == nil {
				code = c
			}
		}

		room := reg.ensure(code, req.Username)
		if room == nil {
			writeEnvelope(w, http.StatusInternalServerError, apiEnvelope{Message: "failed to create room"})
			return
		}
		writeEnvelope(w, http.StatusCreated, apiEnvelope{
			Success: true,
			Data:    describe(room, req.Username),
		})
	}
}

func GetRoomInfoHandler(reg *Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := reg.lookup(chi.URLParam(r, "roomID"))
		if room == nil {
			writeEnvelope(w, http.StatusNotFound, apiEnvelope{Message: "room not found"})
			return
		}
		writeEnvelope(w, http.StatusOK, apiEnvelope{
			Success: true,
			Data:    describe(room, r.URL.Query().Get("username")),
		})
	}
}

func describe(room *Room, username string) roomDescriptor {
	reply := make(chan View, 1)
	room.Inbox() <- GetView{Reply: reply}
	view := <-reply

	reply2 := make(chan []wire.Player, 1)
	room.Inbox() <- GetRoster{Reply: reply2}

	desc := roomDescriptor{
		RoomID:     room.id,
		Role:       wire.RoleGuesser,
		WordLength: len(view.Word),
		Players:    <-reply2,
		Riddler:    view.Riddler,
		Round:      view.Round,
	}
	if username != "" && username == view.Riddler {
		desc.Role = wire.RoleRiddler
		desc.Word = view.Word
	}
	return desc
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
