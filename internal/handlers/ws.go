package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/ws"
)

type WSHandler struct {
	hub *ws.Hub
	log *slog.Logger
}

func NewWSHandler(hub *ws.Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Roster handles GET /ws/roster and streams roster events until the client
// disconnects.
func (h *WSHandler) Roster(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.Serve(conn)
}
