package signal

import (
	"slices"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/api"
)

const roomSlots = 2

// JoinRoom seats a user into a room, creating the room on first sight of the
// id. The second distinct joiner triggers the match: both members get a
// room_matched message carrying the other side's offer, and the caller gets
// a matched result naming the peer. The first joiner just waits.
//
// A user known to the registry must be available (not mid-call) and is
// implicitly moved out of any other room it still occupies. Ids unknown to
// the registry (non-streaming callers) hold a seat without presence tracking.
func (h *Hub) JoinRoom(userId, roomId string, offer json.RawMessage) (api.JoinResult, error) {
	var out []envelope
	res := api.JoinResult{}

	h.mu.Lock()
	u := h.users[userId]
	if u != nil {
		if u.RoomId == roomId {
			h.mu.Unlock()
			return res, ErrAlreadyInRoom
		}
		if u.Status == Calling || u.Status == ReceivingCall {
			h.mu.Unlock()
			return res, ErrUserBusy
		}
		if u.RoomId != "" {
			out = append(out, h.leaveLocked(userId, u.RoomId, api.PeerLeft)...)
		}
	}

	r, ok := h.rooms[roomId]
	if !ok {
		r = &Room{Id: roomId, Offers: make(map[string]json.RawMessage, roomSlots)}
		h.rooms[roomId] = r
		metricRooms.Inc()
	}
	if slices.Contains(r.Members, userId) {
		h.mu.Unlock()
		h.deliver(out)
		return res, ErrAlreadyInRoom
	}
	if len(r.Members) >= roomSlots {
		h.mu.Unlock()
		h.deliver(out)
		return res, ErrRoomFull
	}

	r.Members = append(r.Members, userId)
	r.Offers[userId] = offer
	if u != nil {
		u.RoomId = roomId
		h.setStatusLocked(u, Busy)
	}

	res.Success = true
	if len(r.Members) == roomSlots {
		first, second := r.Members[0], r.Members[1]
		res.Matched, res.PeerId = true, first
		out = append(out, h.unicastLocked(second, api.NewRoomMatched(roomId, first, r.Offers[first]))...)
		out = append(out, h.unicastLocked(first, api.NewRoomMatched(roomId, second, r.Offers[second]))...)
		out = append(out, h.unicastLocked(first, api.NewUserJoined(second, roomId))...)
	} else {
		res.Waiting = true
	}
	h.mu.Unlock()
	h.deliver(out)
	return res, nil
}

// LeaveRoom unseats the user and tells the remaining member about it.
// Not being a member of the named room is a no-op, not an error.
func (h *Hub) LeaveRoom(userId, roomId string) {
	h.mu.Lock()
	out := h.leaveLocked(userId, roomId, api.UserLeft)
	h.mu.Unlock()
	h.deliver(out)
}

// leaveLocked removes the user from the room, queues a leave notice with the
// given tag for whoever stays, deletes the room when it empties, and resets
// the leaver's presence. Room ids are not reserved after deletion.
func (h *Hub) leaveLocked(userId, roomId string, tag api.MT) (out []envelope) {
	r, ok := h.rooms[roomId]
	if ok && slices.Contains(r.Members, userId) {
		r.Members = slices.DeleteFunc(r.Members, func(id string) bool { return id == userId })
		delete(r.Offers, userId)
		notice := api.NewUserLeft(userId, roomId)
		if tag == api.PeerLeft {
			notice = api.NewPeerLeft(userId, roomId)
		}
		for _, rest := range r.Members {
			out = append(out, h.unicastLocked(rest, notice)...)
		}
		if len(r.Members) == 0 {
			delete(h.rooms, roomId)
			metricRooms.Dec()
		}
	}
	if u, ok := h.users[userId]; ok && u.RoomId == roomId {
		u.RoomId = ""
		h.setStatusLocked(u, Online)
	}
	return
}

// RoomPeer names the other member of the user's current room.
// An empty peer with no error means the user waits alone.
func (h *Hub) RoomPeer(userId string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	u, ok := h.users[userId]
	if !ok || u.RoomId == "" {
		return "", ErrNotInRoom
	}
	r, ok := h.rooms[u.RoomId]
	if !ok {
		return "", ErrNotInRoom
	}
	for _, id := range r.Members {
		if id != userId {
			return id, nil
		}
	}
	return "", nil
}

// RoomOf reports the room the user currently occupies, or "".
func (h *Hub) RoomOf(userId string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u, ok := h.users[userId]; ok {
		return u.RoomId
	}
	return ""
}

// Rooms lists all rooms with their seats (debug).
func (h *Hub) Rooms() []api.RoomInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := make([]api.RoomInfo, 0, len(h.rooms))
	for id, r := range h.rooms {
		rooms = append(rooms, api.RoomInfo{
			RoomId:    id,
			Users:     slices.Clone(r.Members),
			UserCount: len(r.Members),
		})
	}
	return rooms
}

// ResetRoom forcibly clears one room, notifying its members first.
func (h *Hub) ResetRoom(roomId string) bool {
	h.mu.Lock()
	r, ok := h.rooms[roomId]
	if !ok {
		h.mu.Unlock()
		return false
	}
	var out []envelope
	members := slices.Clone(r.Members)
	for _, id := range members {
		out = append(out, h.unicastLocked(id, api.NewRoomReset(roomId))...)
	}
	for _, id := range members {
		out = append(out, h.leaveLocked(id, roomId, api.PeerLeft)...)
	}
	h.mu.Unlock()
	h.deliver(out)
	return true
}

// ResetRooms forcibly clears all rooms, notifying every connected user.
func (h *Hub) ResetRooms() int {
	h.mu.Lock()
	count := len(h.rooms)
	out := h.broadcastLocked("", api.NewRoomsReset())
	for _, u := range h.users {
		if u.RoomId != "" {
			u.RoomId = ""
			h.setStatusLocked(u, Online)
		}
	}
	h.rooms = make(map[string]*Room, 10)
	metricRooms.Set(0)
	h.mu.Unlock()
	h.deliver(out)
	return count
}
