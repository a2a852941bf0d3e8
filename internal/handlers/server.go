// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/trickhouse/internal/game"
	"github.com/jason-s-yu/trickhouse/internal/middleware"
	"github.com/jason-s-yu/trickhouse/internal/room"
	"github.com/sirupsen/logrus"
)

// Server wires the HTTP and websocket surface to a turn orchestrator.
type Server struct {
	Orchestrator *room.Orchestrator
	Hub          *Hub
	logger       logrus.FieldLogger
}

// NewServer creates an orchestrator over a fresh room store that broadcasts through a
// websocket hub.
func NewServer(logger logrus.FieldLogger, pacing room.Pacing) *Server {
	hub := NewHub(logger)
	return &Server{
		Orchestrator: room.NewOrchestrator(room.NewStore(), hub, logger, pacing),
		Hub:          hub,
		logger:       logger,
	}
}

// Routes registers the room endpoints behind the request logger.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /room/create", s.CreateRoomHandler)
	mux.HandleFunc("GET /room/list", s.ListRoomsHandler)
	mux.HandleFunc("GET /room/ws/{room_id}", s.RoomWSHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return middleware.LogMiddleware(s.logger)(mux)
}

// statusFor maps an error code to the HTTP status returned for it.
func statusFor(code game.Code) int {
	switch code {
	case game.CodeValidation:
		return http.StatusBadRequest
	case game.CodeNotHost, game.CodeNotYourTurn, game.CodeNotYourCard, game.CodeNotWinner:
		return http.StatusForbidden
	case game.CodeRoomNotFound, game.CodeGameNotFound:
		return http.StatusNotFound
	case game.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError reports err as {"code":..., "message":...}.
func writeError(w http.ResponseWriter, err error) {
	var gerr *game.Error
	if !errors.As(err, &gerr) {
		gerr = game.Errorf(game.CodeInternal, "%v", err)
	}
	writeJSON(w, statusFor(gerr.Code), gerr)
}
