// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/auth"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "trickhouse"

// ClientMessage is an incoming websocket message.
//
//	{"type":"move","move":{"type":"play","card":"QH"}}
//	{"type":"start","seed":42}
//	{"type":"continue"} | {"type":"snapshot"} | {"type":"leave"} | {"type":"close"} | {"type":"ping"}
type ClientMessage struct {
	Type string     `json:"type"`
	Move *game.Move `json:"move,omitempty"`
	Seed *int64     `json:"seed,omitempty"`
}

// joinedMessage greets a connection with the seat it was bound to.
type joinedMessage struct {
	Type string   `json:"type"`
	Room roomInfo `json:"room"`
	Seat string   `json:"seat"`
}

// RoomWSHandler upgrades the HTTP connection to a websocket for one seat of a room. The
// session token names the room and seat; connecting with it rebinds the seat to this
// socket and hands it back from a bot if the player had left.
func (s *Server) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("room_id"))
	if err != nil {
		http.Error(w, "invalid room_id", http.StatusBadRequest)
		return
	}
	rm, ok := s.Orchestrator.Store().Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	sess, err := auth.AuthenticateSession(requestToken(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if sess.Room != roomID {
		http.Error(w, "token is for another room", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the "+Subprotocol+" subprotocol")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conn := &seatConn{
		roomID:  roomID,
		seat:    sess.Seat,
		session: sess.ID,
		out:     make(chan []byte, outBuffer),
		cancel:  cancel,
	}
	logger := s.logger.WithFields(logrus.Fields{"room": roomID, "seat": sess.Seat})

	// register before rebinding so the state sent on reconnect reaches this socket
	s.Hub.register(conn)
	defer s.Hub.unregister(conn)
	if err := s.Orchestrator.ReplaceSession(roomID, sess.Seat, sess.ID); err != nil {
		var gerr *game.Error
		if errors.As(err, &gerr) && gerr.Code == game.CodeRoomNotFound {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}
		c.Close(InvalidSeatError, err.Error())
		return
	}
	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, roomID, sess.Seat)

	go writePump(ctx, c, conn, logger)
	s.Hub.sendJSON(roomID, sess.Seat, joinedMessage{Type: "joined", Room: describeRoom(rm), Seat: sess.Seat.String()})

	err = s.readMessages(ctx, c, conn, logger)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, roomID, sess.Seat, err)
}

// readMessages routes client messages to the orchestrator until the socket closes or
// the player leaves. Rejections go back to the sender only.
func (s *Server) readMessages(ctx context.Context, c *websocket.Conn, conn *seatConn, logger logrus.FieldLogger) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("received non-text message type %d, ignoring", typ)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendWsError(conn, game.Errorf(game.CodeValidation, "invalid JSON format"))
			continue
		}
		logger.Debugf("received %q", msg.Type)

		done, err := s.handleMessage(ctx, conn, msg)
		if err != nil {
			s.sendWsError(conn, err)
		}
		if done {
			return nil
		}
	}
}

// handleMessage applies one client message. done reports that the connection should end.
func (s *Server) handleMessage(ctx context.Context, conn *seatConn, msg ClientMessage) (done bool, err error) {
	o := s.Orchestrator
	switch strings.ToLower(msg.Type) {
	case "move":
		if msg.Move == nil {
			return false, game.Errorf(game.CodeValidation, "move message requires a move")
		}
		_, err = o.SubmitMove(ctx, conn.roomID, conn.seat, *msg.Move)
		return false, err

	case "start":
		seed := time.Now().UnixNano()
		if msg.Seed != nil {
			seed = *msg.Seed
		}
		_, err = o.StartGame(ctx, conn.roomID, conn.seat, seed)
		return false, err

	case "continue":
		return false, o.Acknowledge(ctx, conn.roomID, conn.seat)

	case "snapshot":
		view, err := o.SnapshotFor(conn.roomID, conn.seat)
		if err != nil {
			return false, err
		}
		s.Hub.sendJSON(conn.roomID, conn.seat, game.SeatEvent(game.EventState, conn.seat, map[string]interface{}{
			"view": view,
		}))
		return false, nil

	case "leave":
		return true, o.Vacate(ctx, conn.roomID, conn.seat)

	case "close":
		return false, o.CloseAs(ctx, conn.roomID, conn.seat)

	case "ping":
		s.Hub.sendJSON(conn.roomID, conn.seat, map[string]string{"type": "pong"})
		return false, nil
	}
	return false, game.Errorf(game.CodeValidation, "unknown message type %q", msg.Type)
}

// sendWsError sends a structured error event to the offending seat only.
func (s *Server) sendWsError(conn *seatConn, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		gerr = game.Errorf(game.CodeInternal, "%v", err)
	}
	payload := map[string]interface{}{
		"code":    gerr.Code,
		"message": gerr.Message,
	}
	if gerr.RuleID != nil {
		payload["ruleId"] = gerr.RuleID
	}
	s.Hub.sendJSON(conn.roomID, conn.seat, game.SeatEvent(game.EventError, conn.seat, payload))
}
