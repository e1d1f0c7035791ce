package signaler

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/api"
	"github.com/warmspace/signaler/pkg/network/httpx"
	"github.com/warmspace/signaler/pkg/signal"
)

// The REST boundary mirrors the socket operations for clients that only need
// one-shot calls. Domain failures are reported in the body with a 200, the
// HTTP status is reserved for transport-level problems.

type (
	joinRequest struct {
		UserId string  `json:"user_id"`
		RoomId string  `json:"room_id"`
		Offer  api.SDP `json:"offer"`
	}
	callRequest struct {
		From  string  `json:"from_user_id"`
		To    string  `json:"to_user_id"`
		Offer api.SDP `json:"offer"`
	}
	answerRequest struct {
		CallId string  `json:"call_id"`
		Accept *bool   `json:"accept"`
		Answer api.SDP `json:"answer"`
	}
	statusReply struct {
		UserId string `json:"user_id"`
		Status string `json:"status"`
	}
	usersReply struct {
		Users []api.UserInfo `json:"users"`
	}
	roomsReply struct {
		Rooms      []api.RoomInfo `json:"rooms"`
		TotalRooms int            `json:"total_rooms"`
	}
	resetReply struct {
		Success    bool   `json:"success"`
		RoomsReset int    `json:"rooms_reset,omitempty"`
		Message    string `json:"message,omitempty"`
	}
	failReply struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	healthReply struct {
		Status         string `json:"status"`
		ConnectedUsers int    `json:"connected_users"`
		ActiveRooms    int    `json:"active_rooms"`
	}
)

func (s *Signaler) restRoutes(h *httpx.Mux) {
	h.HandleFunc("GET /{$}", s.handleHealth)
	h.HandleFunc("POST /api/join-room", s.handleJoinRoom)
	h.HandleFunc("POST /api/call-user", s.handleCallUser)
	h.HandleFunc("POST /api/answer-call", s.handleAnswerCall)
	h.HandleFunc("GET /api/online-users/{user_id}", s.handleOnlineUsers)
	h.HandleFunc("GET /api/user-status/{user_id}", s.handleUserStatus)
	h.HandleFunc("GET /api/rooms", s.handleRooms)
	h.HandleFunc("DELETE /api/reset-rooms", s.handleResetRooms)
	h.HandleFunc("DELETE /api/reset-room/{room_id}", s.handleResetRoom)
}

func (s *Signaler) handleHealth(w httpx.ResponseWriter, _ *httpx.Request) {
	users, rooms := s.hub.Stats()
	writeJSON(w, http.StatusOK, healthReply{Status: "ok", ConnectedUsers: users, ActiveRooms: rooms})
}

func (s *Signaler) handleJoinRoom(w httpx.ResponseWriter, r *httpx.Request) {
	var req joinRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.UserId == "" || req.RoomId == "" || req.Offer.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, failReply{Message: "user_id, room_id, and offer are required"})
		return
	}
	res, err := s.hub.JoinRoom(req.UserId, req.RoomId, req.Offer.Raw())
	if err != nil {
		writeJSON(w, http.StatusOK, failReply{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Signaler) handleCallUser(w httpx.ResponseWriter, r *httpx.Request) {
	var req callRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" || req.Offer.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, failReply{Message: "from_user_id, to_user_id, and offer are required"})
		return
	}
	res, err := s.hub.CallUser(req.From, req.To, req.Offer.Raw())
	if err != nil {
		writeJSON(w, http.StatusOK, failReply{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Signaler) handleAnswerCall(w httpx.ResponseWriter, r *httpx.Request) {
	var req answerRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.CallId == "" {
		writeJSON(w, http.StatusBadRequest, failReply{Message: "call_id is required"})
		return
	}
	accept := req.Accept == nil || *req.Accept
	var answer json.RawMessage
	if !req.Answer.IsEmpty() {
		answer = req.Answer.Raw()
	}
	res, err := s.hub.AnswerCall(req.CallId, accept, answer)
	if err != nil {
		writeJSON(w, http.StatusOK, failReply{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Signaler) handleOnlineUsers(w httpx.ResponseWriter, r *httpx.Request) {
	users := s.hub.ListOnline(r.PathValue("user_id"))
	writeJSON(w, http.StatusOK, usersReply{Users: users})
}

func (s *Signaler) handleUserStatus(w httpx.ResponseWriter, r *httpx.Request) {
	userId := r.PathValue("user_id")
	writeJSON(w, http.StatusOK, statusReply{UserId: userId, Status: s.hub.UserStatus(userId).String()})
}

func (s *Signaler) handleRooms(w httpx.ResponseWriter, _ *httpx.Request) {
	rooms := s.hub.Rooms()
	writeJSON(w, http.StatusOK, roomsReply{Rooms: rooms, TotalRooms: len(rooms)})
}

func (s *Signaler) handleResetRooms(w httpx.ResponseWriter, _ *httpx.Request) {
	n := s.hub.ResetRooms()
	s.log.Info().Msgf("all rooms were reset (%d)", n)
	writeJSON(w, http.StatusOK, resetReply{Success: true, RoomsReset: n})
}

func (s *Signaler) handleResetRoom(w httpx.ResponseWriter, r *httpx.Request) {
	roomId := r.PathValue("room_id")
	if !s.hub.ResetRoom(roomId) {
		writeJSON(w, http.StatusOK, resetReply{Message: signal.ErrRoomNotFound.Error()})
		return
	}
	s.log.Info().Msgf("room %v was reset", roomId)
	writeJSON(w, http.StatusOK, resetReply{Success: true, Message: "room " + roomId + " was reset"})
}

func readJSON(w httpx.ResponseWriter, r *httpx.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, failReply{Message: "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w httpx.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// withCORS stamps permissive cross-origin headers and answers preflights,
// browser clients are served from arbitrary origins.
func withCORS(origin string, next httpx.Handler) httpx.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
