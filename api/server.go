package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"diceduel/game/room"
	"diceduel/game/service"
	"diceduel/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	service service.MatchService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when the WebSocket
// transport is not mounted.
func NewServer(svc service.MatchService, hub *websocket.Hub) *Server {
	s := &Server{
		service: svc,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Matchmaking
	api.HandleFunc("/matchmaking", s.handleStartMatchmaking).Methods("POST")
	api.HandleFunc("/matchmaking/{userID}", s.handleStopMatchmaking).Methods("DELETE")

	// User state and gameplay
	api.HandleFunc("/users/{userID}", s.handleUserState).Methods("GET")
	api.HandleFunc("/users/{userID}/roll", s.handleRoll).Methods("POST")
	api.HandleFunc("/users/{userID}/rematch", s.handleRematch).Methods("POST")
	api.HandleFunc("/users/{userID}/room", s.handleLeaveRoom).Methods("DELETE")
	api.HandleFunc("/users/{userID}/records", s.handleRecords).Methods("GET")

	// Rooms
	api.HandleFunc("/rooms/{id}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/rooms/{id}", s.handleRemoveRoom).Methods("DELETE")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoRoom), errors.Is(err, service.ErrNotInRoom):
		return http.StatusNotFound
	case errors.Is(err, room.ErrNotOnMove), errors.Is(err, room.ErrRoomOver),
		errors.Is(err, room.ErrNotInRoom):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Matchmaking handlers

func (s *Server) handleStartMatchmaking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.service.StartMatchmaking(r.Context(), req.UserID); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	state, err := s.service.UserState(r.Context(), req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, state)
}

func (s *Server) handleStopMatchmaking(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if err := s.service.StopMatchmaking(r.Context(), userID); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// User handlers

func (s *Server) handleUserState(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	state, err := s.service.UserState(r.Context(), userID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	result, err := s.service.Roll(r.Context(), userID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	count, err := s.service.Rematch(r.Context(), userID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"rematch": count})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if err := s.service.LeaveRoom(r.Context(), userID); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	records, err := s.service.Records(r.Context(), userID)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if records == nil {
		records = []service.MatchSummary{}
	}
	respondJSON(w, http.StatusOK, records)
}

// Room handlers

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	state, err := s.service.RoomState(r.Context(), id)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRemoveRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	// Removal is idempotent: an unknown id is already gone.
	if err := s.service.RemoveRoom(r.Context(), id); err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebSocket

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotImplemented, "websocket transport not enabled")
		return
	}
	userID := r.URL.Query().Get("user")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user query parameter is required")
		return
	}
	s.hub.ServeWS(w, r, userID)
}
