package signal

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warmspace/signaler/pkg/api"
)

// CallUser sends an unsolicited call invitation from one user to another.
// The target must be known and strictly online, there is no call queueing.
// Every invitation gets a fresh call id, so concurrent calls between the
// same pair stay independently tracked.
func (h *Hub) CallUser(from, to string, offer json.RawMessage) (api.CallResult, error) {
	h.mu.Lock()
	target, ok := h.users[to]
	if !ok || target.Status != Online {
		h.mu.Unlock()
		return api.CallResult{}, ErrTargetUnavailable
	}
	caller := h.users[from]
	if caller != nil && caller.Status != Online {
		h.mu.Unlock()
		return api.CallResult{}, ErrUserBusy
	}

	callId := uuid.NewString()
	h.calls[callId] = &PendingCall{Id: callId, From: from, To: to, Offer: offer}
	metricCalls.Inc()

	out := h.unicastLocked(to, api.NewIncomingCall(callId, from, offer))
	if caller != nil {
		h.setStatusLocked(caller, Calling)
	}
	h.setStatusLocked(target, ReceivingCall)
	h.mu.Unlock()
	h.deliver(out)
	return api.CallResult{Success: true, CallId: callId}, nil
}

// AnswerCall resolves a pending call exactly once: the record is consumed on
// both branches, answering an unknown or spent id fails with ErrCallNotFound.
// An accept without an answer payload counts as a reject.
func (h *Hub) AnswerCall(callId string, accept bool, answer json.RawMessage) (api.AnswerResult, error) {
	h.mu.Lock()
	c, ok := h.calls[callId]
	if !ok {
		h.mu.Unlock()
		return api.AnswerResult{}, ErrCallNotFound
	}
	delete(h.calls, callId)
	metricCalls.Dec()

	accepted := accept && api.Present(answer)
	var out []envelope
	next := Online
	if accepted {
		next = Busy
		out = h.unicastLocked(c.From, api.NewCallAccepted(callId, c.To, answer))
	} else {
		out = h.unicastLocked(c.From, api.NewCallRejected(callId, c.To))
	}
	if u, ok := h.users[c.From]; ok {
		h.setStatusLocked(u, next)
	}
	if u, ok := h.users[c.To]; ok {
		h.setStatusLocked(u, next)
	}
	h.mu.Unlock()
	h.deliver(out)
	return api.AnswerResult{Success: true, Accepted: accepted}, nil
}
