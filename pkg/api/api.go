// Package api defines the signaling protocol shared by the socket and the REST boundaries.
//
// Every message is a flat JSON object discriminated by its type field:
//
//	{"type":"join-room","room_id":"r1","offer":{"sdp":"...","type":"offer"}}
//
// Inbound messages unmarshal into the universal In envelope and are dispatched
// by the tag; outbound messages are distinct structs, one per tag, so the
// compiler keeps the union honest. Offer, answer, and candidate payloads are
// opaque: the relay checks their presence and nothing else.
package api

import (
	"bytes"

	"github.com/goccy/go-json"
)

// MT is a message type tag.
type MT string

// Client to server tags. Hyphen and underscore spellings
// are both accepted on the wire.
const (
	JoinRoom     MT = "join-room"
	JoinRoomAlt  MT = "join_room"
	Offer        MT = "offer"
	Answer       MT = "answer"
	IceCandidate MT = "ice_candidate"
	IceCandAlt   MT = "ice-candidate"
	LeaveRoom    MT = "leave-room"
)

// Server to client tags.
const (
	RoomJoined   MT = "room-joined"
	RoomMatched  MT = "room_matched"
	UserJoined   MT = "user-joined"
	UserLeft     MT = "user-left"
	PeerLeft     MT = "peer_left"
	IncomingCall MT = "incoming_call"
	CallAccepted MT = "call_accepted"
	CallRejected MT = "call_rejected"
	UserStatus   MT = "user_status"
	RoomReset    MT = "room-reset"
	RoomsReset   MT = "rooms-reset"
	Error        MT = "error"
)

// Norm folds alias spellings into the canonical tag.
func (t MT) Norm() MT {
	switch t {
	case JoinRoomAlt:
		return JoinRoom
	case IceCandAlt:
		return IceCandidate
	}
	return t
}

// In is the universal inbound envelope.
// Which fields are set depends on the tag.
type In struct {
	T         MT              `json:"type"`
	RoomId    string          `json:"room_id,omitempty"`
	CallId    string          `json:"call_id,omitempty"`
	Target    string          `json:"target,omitempty"`
	Accept    *bool           `json:"accept,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// SDP is the session description pair used on the REST boundary,
// where payload shape is validated rather than relayed verbatim.
type SDP struct {
	Sdp  string `json:"sdp"`
	Type string `json:"type"`
}

func (s SDP) IsEmpty() bool { return s.Sdp == "" }

func (s SDP) Raw() json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

var null = []byte("null")

// Present reports whether an opaque payload field was actually supplied.
func Present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, null)
}

func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
