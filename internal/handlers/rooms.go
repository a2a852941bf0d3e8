// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/auth"
	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/jason-s-yu/trickhouse/internal/seat"
	"github.com/sirupsen/logrus"
)

type seatRequest struct {
	Seat seat.Seat `json:"seat"`
	Bot  bool      `json:"bot"`
	Name string    `json:"name,omitempty"`
}

type createRoomRequest struct {
	Variant string                 `json:"variant"`
	Seats   []seatRequest          `json:"seats"`
	Options map[string]interface{} `json:"options,omitempty"`
	Start   bool                   `json:"start,omitempty"`
	Seed    *int64                 `json:"seed,omitempty"`
}

// seatInfo is the public description of a seat; sessions stay private.
type seatInfo struct {
	Seat seat.Seat `json:"seat"`
	Bot  bool      `json:"bot"`
	Name string    `json:"name,omitempty"`
}

type roomInfo struct {
	ID      uuid.UUID    `json:"id"`
	Variant game.Variant `json:"variant"`
	Host    seat.Seat    `json:"host"`
	Options room.Options `json:"options"`
	Created time.Time    `json:"created"`
	Seats   []seatInfo   `json:"seats"`
}

type createRoomResponse struct {
	roomInfo
	// Tokens holds one session token per human seat. Each player connects to the room
	// websocket with their own.
	Tokens map[seat.Seat]string `json:"tokens"`
}

func describeRoom(r *room.Room) roomInfo {
	info := roomInfo{
		ID:      r.ID,
		Variant: r.Variant,
		Host:    r.Host(),
		Options: r.Options,
		Created: r.Created,
	}
	for _, cfg := range r.Seats() {
		info.Seats = append(info.Seats, seatInfo{Seat: cfg.Seat, Bot: cfg.Bot, Name: cfg.Name})
	}
	return info
}

// CreateRoomHandler creates a room from {"variant", "seats", "options"} and returns a
// session token for every human seat. With "start" set the first hand is dealt at once.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, game.Errorf(game.CodeValidation, "bad room request payload: %v", err))
		return
	}
	variant, err := game.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, game.Errorf(game.CodeValidation, "%v", err))
		return
	}
	opts, err := room.ParseOptions(variant, req.Options, room.DefaultOptions())
	if err != nil {
		writeError(w, game.Errorf(game.CodeValidation, "%v", err))
		return
	}

	configs := make([]room.SeatConfig, 0, len(req.Seats))
	for _, sr := range req.Seats {
		cfg := room.SeatConfig{Seat: sr.Seat, Bot: sr.Bot, Name: sr.Name}
		if !sr.Bot {
			cfg.Session = uuid.New()
		}
		configs = append(configs, cfg)
	}

	rm, err := s.Orchestrator.CreateRoom(variant, configs, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := createRoomResponse{
		roomInfo: describeRoom(rm),
		Tokens:   make(map[seat.Seat]string),
	}
	for _, cfg := range configs {
		if cfg.Bot {
			continue
		}
		token, err := auth.CreateSessionToken(auth.Session{ID: cfg.Session, Room: rm.ID, Seat: cfg.Seat})
		if err != nil {
			s.logger.WithField("room", rm.ID).Errorf("failed to sign session token: %v", err)
			_ = s.Orchestrator.Close(r.Context(), rm.ID)
			writeError(w, game.Errorf(game.CodeInternal, "could not issue session tokens"))
			return
		}
		resp.Tokens[cfg.Seat] = token
	}

	if req.Start {
		seed := time.Now().UnixNano()
		if req.Seed != nil {
			seed = *req.Seed
		}
		if _, err := s.Orchestrator.StartGame(r.Context(), rm.ID, rm.Host(), seed); err != nil {
			writeError(w, err)
			return
		}
	}

	s.logger.WithFields(logrus.Fields{"room": rm.ID, "variant": variant}).Debug("room created over http")
	writeJSON(w, http.StatusOK, resp)
}

// ListRoomsHandler returns the open rooms.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms := s.Orchestrator.Store().List()
	out := make([]roomInfo, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, describeRoom(rm))
	}
	writeJSON(w, http.StatusOK, out)
}
