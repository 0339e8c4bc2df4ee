package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/wdmmg/finance-api/middleware"
)

// WSHandler pushes live update signals to a user's open dashboard sessions.
// Payloads are just {type, id} hints; clients refetch through the REST API,
// so nothing sensitive travels over the socket.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024

	// Keep-alive for cloud hosting proxies.
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get("user_id")
		log.Printf("🔌 Client disconnected: user %v", userID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades the request. It sits behind the auth middleware, so the
// session is keyed to the authenticated user.
func (h *WSHandler) HandleWS(c *gin.Context) {
	userID := middleware.GetUserID(c)

	err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// NotifyUser broadcasts an event to all of the user's sessions.
func (h *WSHandler) NotifyUser(userID, eventType, id string) {
	msg, err := json.Marshal(gin.H{"type": eventType, "id": id})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		v, ok := s.Get("user_id")
		return ok && v == userID
	})
	if err != nil {
		log.Printf("❌ WebSocket broadcast failed: %v", err)
	}
}
