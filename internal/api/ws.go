package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"movie-roulette/internal/changefeed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsHub fans changefeed events out to websocket clients grouped by session.
type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{groups: make(map[string]map[*websocket.Conn]struct{})}
}

func (h *wsHub) Add(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[sessionID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[sessionID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, sessionID)
	}
}

func (h *wsHub) Broadcast(sessionID string, payload any) {
	h.mu.Lock()
	group := h.groups[sessionID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(sessionID, conn)
		}
	}
}

// run pumps every changefeed event to the event's session group until the
// subscription closes.
func (h *wsHub) run(sub *changefeed.Subscription) {
	for evt := range sub.C {
		if evt.SessionID == "" {
			continue
		}
		h.Broadcast(evt.SessionID, evt)
	}
}

// handleSessionWS upgrades the connection and parks it in the session group.
// The read loop exists only to detect the client going away.
func (s *Server) handleSessionWS(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := s.sessions.Session(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.Add(sessionID, conn)
	go func() {
		defer s.hub.Remove(sessionID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
