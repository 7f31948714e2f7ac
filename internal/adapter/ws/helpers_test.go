package ws

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func httptestHandler(hub *Hub) http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", hub.HandleWS)
	return r
}
