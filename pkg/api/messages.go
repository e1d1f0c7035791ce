package api

import "github.com/goccy/go-json"

// Server to client notifications, one struct per tag.
type (
	UserStatusNotice struct {
		T      MT     `json:"type"`
		UserId string `json:"user_id"`
		Status string `json:"status"`
	}
	RoomJoinedNotice struct {
		T MT `json:"type"`
		JoinResult
	}
	RoomMatchedNotice struct {
		T         MT              `json:"type"`
		RoomId    string          `json:"room_id"`
		PeerId    string          `json:"peer_id"`
		PeerOffer json.RawMessage `json:"peer_offer"`
	}
	UserJoinedNotice struct {
		T      MT     `json:"type"`
		UserId string `json:"user_id"`
		RoomId string `json:"room_id"`
	}
	PeerLeftNotice struct {
		T      MT     `json:"type"`
		UserId string `json:"user_id"`
		RoomId string `json:"room_id"`
	}
	IncomingCallNotice struct {
		T      MT              `json:"type"`
		CallId string          `json:"call_id"`
		From   string          `json:"from"`
		Offer  json.RawMessage `json:"offer"`
	}
	CallAcceptedNotice struct {
		T      MT              `json:"type"`
		CallId string          `json:"call_id"`
		From   string          `json:"from"`
		Answer json.RawMessage `json:"answer"`
	}
	CallRejectedNotice struct {
		T      MT     `json:"type"`
		CallId string `json:"call_id"`
		From   string `json:"from"`
	}
	RelayNotice struct {
		T         MT              `json:"type"`
		From      string          `json:"from"`
		Offer     json.RawMessage `json:"offer,omitempty"`
		Answer    json.RawMessage `json:"answer,omitempty"`
		Candidate json.RawMessage `json:"candidate,omitempty"`
	}
	RoomResetNotice struct {
		T       MT     `json:"type"`
		RoomId  string `json:"room_id,omitempty"`
		Message string `json:"message"`
	}
	ErrorNotice struct {
		T       MT     `json:"type"`
		Message string `json:"message"`
	}
)

func NewUserStatus(id, status string) UserStatusNotice {
	return UserStatusNotice{T: UserStatus, UserId: id, Status: status}
}

func NewRoomJoined(res JoinResult) RoomJoinedNotice {
	return RoomJoinedNotice{T: RoomJoined, JoinResult: res}
}

func NewRoomMatched(roomId, peerId string, peerOffer json.RawMessage) RoomMatchedNotice {
	return RoomMatchedNotice{T: RoomMatched, RoomId: roomId, PeerId: peerId, PeerOffer: peerOffer}
}

func NewUserJoined(userId, roomId string) UserJoinedNotice {
	return UserJoinedNotice{T: UserJoined, UserId: userId, RoomId: roomId}
}

func NewUserLeft(userId, roomId string) PeerLeftNotice {
	return PeerLeftNotice{T: UserLeft, UserId: userId, RoomId: roomId}
}

func NewPeerLeft(userId, roomId string) PeerLeftNotice {
	return PeerLeftNotice{T: PeerLeft, UserId: userId, RoomId: roomId}
}

func NewIncomingCall(callId, from string, offer json.RawMessage) IncomingCallNotice {
	return IncomingCallNotice{T: IncomingCall, CallId: callId, From: from, Offer: offer}
}

func NewCallAccepted(callId, from string, answer json.RawMessage) CallAcceptedNotice {
	return CallAcceptedNotice{T: CallAccepted, CallId: callId, From: from, Answer: answer}
}

func NewCallRejected(callId, from string) CallRejectedNotice {
	return CallRejectedNotice{T: CallRejected, CallId: callId, From: from}
}

func NewOfferRelay(from string, offer json.RawMessage) RelayNotice {
	return RelayNotice{T: Offer, From: from, Offer: offer}
}

func NewAnswerRelay(from string, answer json.RawMessage) RelayNotice {
	return RelayNotice{T: Answer, From: from, Answer: answer}
}

func NewIceRelay(from string, candidate json.RawMessage) RelayNotice {
	return RelayNotice{T: IceCandidate, From: from, Candidate: candidate}
}

func NewRoomReset(roomId string) RoomResetNotice {
	return RoomResetNotice{T: RoomReset, RoomId: roomId, Message: "room has been reset"}
}

func NewRoomsReset() RoomResetNotice {
	return RoomResetNotice{T: RoomsReset, Message: "all rooms have been reset"}
}

func NewError(message string) ErrorNotice { return ErrorNotice{T: Error, Message: message} }

// Results returned to the caller of an operation,
// shared by the REST boundary and socket replies.
type (
	JoinResult struct {
		Success bool   `json:"success"`
		Matched bool   `json:"matched,omitempty"`
		Waiting bool   `json:"waiting,omitempty"`
		PeerId  string `json:"peer_id,omitempty"`
		Message string `json:"message,omitempty"`
	}
	CallResult struct {
		Success bool   `json:"success"`
		CallId  string `json:"call_id,omitempty"`
		Message string `json:"message,omitempty"`
	}
	AnswerResult struct {
		Success  bool   `json:"success"`
		Accepted bool   `json:"accepted,omitempty"`
		Message  string `json:"message,omitempty"`
	}
	UserInfo struct {
		Id     string `json:"id"`
		Status string `json:"status"`
	}
	RoomInfo struct {
		RoomId    string   `json:"room_id"`
		Users     []string `json:"users"`
		UserCount int      `json:"user_count"`
	}
)
