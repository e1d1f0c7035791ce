package signal

import (
	"github.com/warmspace/signaler/pkg/api"
	"github.com/warmspace/signaler/pkg/logger"
)

// Router is the per-connection message loop: it decodes inbound envelopes
// and dispatches them by tag. It holds no state of its own; every mutation
// goes through the hub.
type Router struct {
	hub    *Hub
	userId string
	log    *logger.Logger
}

func NewRouter(hub *Hub, userId string, log *logger.Logger) *Router {
	return &Router{hub: hub, userId: userId, log: log}
}

// Handle processes one inbound frame. Failures stay with the sender: a
// malformed or invalid message is answered with an error notice and nothing
// leaks to other users. Unrecognized tags are a forward-compatible no-op.
func (r *Router) Handle(data []byte, err error) {
	if err != nil {
		return
	}
	in := api.Unwrap[api.In](data)
	if in == nil {
		r.reply(api.NewError(ErrMalformed.Error()))
		return
	}
	switch in.T.Norm() {
	case api.JoinRoom:
		r.joinRoom(in)
	case api.Offer:
		r.relayOffer(in)
	case api.Answer:
		if in.CallId != "" {
			r.answerCall(in)
		} else {
			r.relayAnswer(in)
		}
	case api.IceCandidate:
		r.relayCandidate(in)
	case api.LeaveRoom:
		r.leaveRoom(in)
	default:
		r.log.Debug().Msgf("ignored tag %q", in.T)
	}
}

func (r *Router) joinRoom(in *api.In) {
	if in.RoomId == "" {
		r.reply(api.NewError("room_id is required"))
		return
	}
	res, err := r.hub.JoinRoom(r.userId, in.RoomId, in.Offer)
	if err != nil {
		res = api.JoinResult{Message: err.Error()}
	}
	r.reply(api.NewRoomJoined(res))
}

func (r *Router) relayOffer(in *api.In) {
	if !api.Present(in.Offer) {
		r.reply(api.NewError("offer is required"))
		return
	}
	peer, err := r.hub.RoomPeer(r.userId)
	if err != nil {
		r.reply(api.NewError(ErrNotInRoom.Error()))
		return
	}
	if peer != "" {
		r.hub.SendTo(peer, api.NewOfferRelay(r.userId, in.Offer))
	}
}

func (r *Router) relayAnswer(in *api.In) {
	if !api.Present(in.Answer) {
		r.reply(api.NewError("answer is required"))
		return
	}
	if in.Target != "" {
		r.hub.SendTo(in.Target, api.NewAnswerRelay(r.userId, in.Answer))
		return
	}
	peer, err := r.hub.RoomPeer(r.userId)
	if err != nil {
		r.reply(api.NewError(ErrNotInRoom.Error()))
		return
	}
	if peer != "" {
		r.hub.SendTo(peer, api.NewAnswerRelay(r.userId, in.Answer))
	}
}

func (r *Router) answerCall(in *api.In) {
	accept := in.Accept == nil || *in.Accept
	if _, err := r.hub.AnswerCall(in.CallId, accept, in.Answer); err != nil {
		r.reply(api.NewError(err.Error()))
	}
}

// relayCandidate forwards a candidate to the explicit target or the room
// peer. A candidate with nowhere to go is dropped without a fuss, candidates
// may race the match on either side.
func (r *Router) relayCandidate(in *api.In) {
	if !api.Present(in.Candidate) {
		r.reply(api.NewError("candidate is required"))
		return
	}
	target := in.Target
	if target == "" {
		peer, err := r.hub.RoomPeer(r.userId)
		if err != nil {
			return
		}
		target = peer
	}
	if target != "" {
		r.hub.SendTo(target, api.NewIceRelay(r.userId, in.Candidate))
	}
}

func (r *Router) leaveRoom(in *api.In) {
	roomId := in.RoomId
	if roomId == "" {
		roomId = r.hub.RoomOf(r.userId)
	}
	if roomId != "" {
		r.hub.LeaveRoom(r.userId, roomId)
	}
}

func (r *Router) reply(msg any) { r.hub.SendTo(r.userId, msg) }
