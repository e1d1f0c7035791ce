package signal

import (
	"github.com/warmspace/signaler/pkg/api"
	"github.com/warmspace/signaler/pkg/com"
)

// Connect registers a user connection, replacing any previous handle for the
// same id. The replaced handle is returned, not closed: disposing of it is
// the transport layer's business. Its owner loop will eventually try the
// teardown with a stale connection id and stand down.
// Every other connected user is notified that the user is online.
func (h *Hub) Connect(id string, conn Transport) (com.Uid, Transport) {
	cid := com.NewUid()
	var stale Transport
	h.mu.Lock()
	u, ok := h.users[id]
	if ok {
		stale = u.conn
		u.conn, u.cid = conn, cid
	} else {
		h.users[id] = &User{Id: id, Status: Online, conn: conn, cid: cid}
		metricUsers.Inc()
	}
	out := h.broadcastLocked(id, api.NewUserStatus(id, Online.String()))
	h.mu.Unlock()
	h.deliver(out)
	return cid, stale
}

// Disconnect removes the user and its connection, releasing the room seat
// and rejecting pending calls the user is part of. Unknown ids are a no-op,
// and a non-nil cid guards against tearing down a replaced (newer) handle,
// which makes the cleanup exactly-once under races.
func (h *Hub) Disconnect(id string, cid com.Uid) {
	h.mu.Lock()
	u, ok := h.users[id]
	if !ok || (!cid.IsEmpty() && u.cid != cid) {
		h.mu.Unlock()
		return
	}
	var out []envelope
	if u.RoomId != "" {
		out = append(out, h.leaveLocked(id, u.RoomId, api.PeerLeft)...)
	}
	out = append(out, h.hangupLocked(id)...)
	delete(h.users, id)
	metricUsers.Dec()
	out = append(out, h.broadcastLocked(id, api.NewUserStatus(id, Offline.String()))...)
	h.mu.Unlock()
	h.deliver(out)
}

// hangupLocked resolves every pending call that references the leaving user
// as an implicit rejection, so the counterpart is not stuck ringing forever.
func (h *Hub) hangupLocked(id string) (out []envelope) {
	for callId, c := range h.calls {
		if c.From != id && c.To != id {
			continue
		}
		delete(h.calls, callId)
		metricCalls.Dec()
		other := c.From
		if c.From == id {
			other = c.To
		}
		if ou, ok := h.users[other]; ok {
			h.setStatusLocked(ou, Online)
			out = append(out, h.unicastLocked(other, api.NewCallRejected(callId, id))...)
		}
	}
	return
}

// SendTo is a best-effort unicast. A failed send disconnects the target.
func (h *Hub) SendTo(id string, msg any) bool {
	h.mu.Lock()
	out := h.unicastLocked(id, msg)
	h.mu.Unlock()
	if out == nil {
		return false
	}
	if err := out[0].conn.Send(msg); err != nil {
		metricSendFails.Inc()
		h.Disconnect(id, out[0].cid)
		return false
	}
	metricRelayed.Inc()
	return true
}

// BroadcastExcept sends to every connected user except the excluded one.
// Individual failures disconnect the failed user and don't stop the loop.
func (h *Hub) BroadcastExcept(exclude string, msg any) {
	h.mu.Lock()
	out := h.broadcastLocked(exclude, msg)
	h.mu.Unlock()
	h.deliver(out)
}

// ListOnline returns ids of users in the online status, except the given one.
func (h *Hub) ListOnline(excluding string) []api.UserInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]api.UserInfo, 0, len(h.users))
	for id, u := range h.users {
		if id == excluding || u.Status != Online {
			continue
		}
		users = append(users, api.UserInfo{Id: id, Status: u.Status.String()})
	}
	return users
}

// UserStatus reports the presence of a user, offline for unknown ids.
func (h *Hub) UserStatus(id string) Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u, ok := h.users[id]; ok {
		return u.Status
	}
	return Offline
}
