package authority

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func SetupRoutes(reg *Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/createroom", CreateRoomHandler(reg, log))
	r.Get("/api/rooms/{roomID}", GetRoomInfoHandler(reg, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", Handler(reg, log))
	return r
}
