package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"contextualplanner/internal/planner"
)

// Keepalive timings copied from the teacher's cmd/game-server/websocket
// client write pump: pingPeriod must stay below pongWait so the peer
// never times out between pings.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	pollPeriod = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	// CheckOrigin accepts every origin. The CORS middleware ahead of this
	// handler only sets CORS response headers; it does not reject an
	// upgrade request from an origin outside AllowedOrigins. The teacher's
	// handler uses the same permissive CheckOrigin.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type streamMessage struct {
	Found  bool   `json:"found"`
	Action string `json:"action,omitempty"`
}

// handleStream upgrades to a WebSocket and pushes the current recommended
// next action every pollPeriod, grounded on the teacher's Client write
// pump (a ticker-driven loop alternating application writes with
// keepalive pings, SetWriteDeadline before every write).
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	poll := time.NewTicker(pollPeriod)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			sess.mu.Lock()
			inv, found := planner.LookForAnActionToDo(sess.Problem, s.GlobalHistorical)
			sess.mu.Unlock()

			msg := streamMessage{Found: found}
			if found {
				msg.Action = inv.String()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal stream message")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
