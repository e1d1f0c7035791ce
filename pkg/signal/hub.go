// Package signal implements the session coordinator of the relay: it maps
// transient connections to user identities, pairs users into two-party rooms
// or direct calls, and relays negotiation payloads between exactly the right
// two parties.
package signal

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/com"
	"github.com/warmspace/signaler/pkg/logger"
)

// Transport is a live message channel bound to one user.
type Transport interface {
	Send(v any) error
	Close()
}

type (
	// User is a known identity with its presence state and, at most,
	// one room membership and one live connection.
	User struct {
		Id     string
		Status Status
		RoomId string

		conn Transport
		cid  com.Uid
	}
	// Room is a two-slot pairing bucket, members in arrival order.
	Room struct {
		Id      string
		Members []string
		Offers  map[string]json.RawMessage
	}
	// PendingCall is a one-shot invitation record, resolved at most once.
	PendingCall struct {
		Id       string
		From, To string
		Offer    json.RawMessage
	}
)

// Hub is the single owner of all shared tables. Every mutation happens
// inside its lock; message delivery is gathered into an outbox and flushed
// after the lock is released, so sends never block table access.
type Hub struct {
	mu    sync.Mutex
	users map[string]*User
	rooms map[string]*Room
	calls map[string]*PendingCall

	log *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		users: make(map[string]*User, 10),
		rooms: make(map[string]*Room, 10),
		calls: make(map[string]*PendingCall, 10),
		log:   log,
	}
}

// Stats reports the number of registered users and open rooms.
func (h *Hub) Stats() (users int, rooms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users), len(h.rooms)
}

// envelope is one queued outbound message with the handle snapshot taken
// under the lock, so a concurrent reconnect can't misroute the delivery.
type envelope struct {
	to   string
	cid  com.Uid
	conn Transport
	msg  any
}

// deliver flushes the outbox outside the lock. A failed send means the
// handle is dead: the user is disconnected the same way as on a socket EOF.
func (h *Hub) deliver(outbox []envelope) {
	for _, e := range outbox {
		if e.conn == nil {
			continue
		}
		if err := e.conn.Send(e.msg); err != nil {
			metricSendFails.Inc()
			h.log.Warn().Err(err).Str("uid", e.to).Msg("send failed, dropping the connection")
			h.Disconnect(e.to, e.cid)
			continue
		}
		metricRelayed.Inc()
	}
}

// unicastLocked queues a message for a single user, if connected.
func (h *Hub) unicastLocked(id string, msg any) []envelope {
	if u, ok := h.users[id]; ok && u.conn != nil {
		return []envelope{{to: id, cid: u.cid, conn: u.conn, msg: msg}}
	}
	return nil
}

// broadcastLocked queues a message for every connected user except one.
func (h *Hub) broadcastLocked(exclude string, msg any) (out []envelope) {
	for id, u := range h.users {
		if id == exclude || u.conn == nil {
			continue
		}
		out = append(out, envelope{to: id, cid: u.cid, conn: u.conn, msg: msg})
	}
	return
}

// setStatusLocked applies a presence transition, refusing illegal edges.
func (h *Hub) setStatusLocked(u *User, to Status) {
	if u.Status == to {
		return
	}
	if !u.Status.CanGo(to) {
		h.log.Warn().Str("uid", u.Id).Msgf("illegal presence edge %v -> %v", u.Status, to)
		return
	}
	u.Status = to
}
