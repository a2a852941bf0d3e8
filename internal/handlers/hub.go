// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/sirupsen/logrus"
)

const (
	outBuffer    = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// seatConn is one websocket attached to a seat. Everything written to the socket goes
// through out so a single goroutine owns the writes.
type seatConn struct {
	roomID  uuid.UUID
	seat    seat.Seat
	session uuid.UUID
	out     chan []byte
	cancel  context.CancelFunc
}

// Hub is the websocket implementation of room.Broadcaster. It keeps at most one
// connection per seat; a reconnect replaces the previous socket.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[seat.Seat]*seatConn
	logger logrus.FieldLogger
}

var _ room.Broadcaster = (*Hub)(nil)

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[seat.Seat]*seatConn),
		logger: logger,
	}
}

// register attaches c to its seat, cancelling any connection it replaces.
func (h *Hub) register(c *seatConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[c.roomID]
	if !ok {
		conns = make(map[seat.Seat]*seatConn)
		h.rooms[c.roomID] = conns
	}
	if old, ok := conns[c.seat]; ok {
		old.cancel()
		close(old.out)
	}
	conns[c.seat] = c
}

// unregister detaches c unless a newer connection already took its seat.
func (h *Hub) unregister(c *seatConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[c.roomID]
	if !ok || conns[c.seat] != c {
		return
	}
	delete(conns, c.seat)
	close(c.out)
	if len(conns) == 0 {
		delete(h.rooms, c.roomID)
	}
}

// Connected reports how many sockets are attached to a room.
func (h *Hub) Connected(roomID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast sends ev to every socket in the room. A room_closed event also detaches
// the room's sockets once they have flushed.
func (h *Hub) Broadcast(roomID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithField("room", roomID).Errorf("failed to marshal %s event: %v", ev.Type, err)
		return
	}
	if ev.Type == game.EventRoomClosed {
		h.dropRoom(roomID, data)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[roomID] {
		h.enqueue(c, data)
	}
}

// SendTo sends ev to the socket of seat s, if one is attached.
func (h *Hub) SendTo(roomID uuid.UUID, s seat.Seat, ev game.Event) {
	h.sendJSON(roomID, s, ev)
}

func (h *Hub) sendJSON(roomID uuid.UUID, s seat.Seat, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.WithFields(logrus.Fields{"room": roomID, "seat": s}).Errorf("failed to marshal message: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.rooms[roomID][s]; ok {
		h.enqueue(c, data)
	}
}

func (h *Hub) dropRoom(roomID uuid.UUID, last []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.rooms[roomID] {
		h.enqueue(c, last)
		close(c.out)
	}
	delete(h.rooms, roomID)
}

// enqueue never blocks the orchestrator. A client too slow to drain its buffer is
// disconnected and catches up from a fresh state on reconnect. Callers hold h.mu.
func (h *Hub) enqueue(c *seatConn, data []byte) {
	select {
	case c.out <- data:
	default:
		h.logger.WithFields(logrus.Fields{"room": c.roomID, "seat": c.seat}).Warn("outgoing buffer full, dropping connection")
		c.cancel()
	}
}

// writePump drains c.out onto the socket until the channel closes or ctx ends.
func writePump(ctx context.Context, ws *websocket.Conn, c *seatConn, logger logrus.FieldLogger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.out:
			if !ok {
				ws.Close(websocket.StatusNormalClosure, "connection closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket: %v", err)
				c.cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Debugf("ping failed: %v", err)
				c.cancel()
				return
			}
		}
	}
}
