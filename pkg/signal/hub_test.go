package signal

import (
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/api"
	"github.com/warmspace/signaler/pkg/com"
	"github.com/warmspace/signaler/pkg/logger"
)

var (
	testOffer  = json.RawMessage(`{"sdp":"v=0 offer","type":"offer"}`)
	testAnswer = json.RawMessage(`{"sdp":"v=0 answer","type":"answer"}`)
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []any
	fail   bool
	closed bool
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

// tagOf probes the wire tag of any outbound message.
func tagOf(v any) api.MT {
	var probe struct {
		T api.MT `json:"type"`
	}
	raw, _ := json.Marshal(v)
	_ = json.Unmarshal(raw, &probe)
	return probe.T
}

func (c *fakeConn) has(tag api.MT) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if tagOf(m) == tag {
			return true
		}
	}
	return false
}

func (c *fakeConn) find(tag api.MT) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.msgs {
		if tagOf(m) == tag {
			return m
		}
	}
	return nil
}

func newTestHub() *Hub { return NewHub(logger.Default()) }

func TestConnectAnnouncesPresence(t *testing.T) {
	h := newTestHub()
	a := &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", &fakeConn{})

	m, ok := a.find(api.UserStatus).(api.UserStatusNotice)
	if !ok {
		t.Fatalf("a expected a user_status notice, got %v", a.msgs)
	}
	if m.UserId != "b" || m.Status != "online" {
		t.Errorf("unexpected notice: %+v", m)
	}
}

func TestJoinRoomFirstWaits(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})

	res, err := h.JoinRoom("a", "r1", testOffer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || !res.Waiting || res.Matched {
		t.Errorf("expected a waiting result, got %+v", res)
	}
	if got := h.UserStatus("a"); got != Busy {
		t.Errorf("expected busy, got %v", got)
	}
}

func TestJoinRoomSecondMatches(t *testing.T) {
	h := newTestHub()
	a, b := &fakeConn{}, &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", b)
	if _, err := h.JoinRoom("a", "r1", testOffer); err != nil {
		t.Fatal(err)
	}
	a.reset()

	res, err := h.JoinRoom("b", "r1", testAnswer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Matched || res.PeerId != "a" {
		t.Fatalf("expected a match with a, got %+v", res)
	}

	// offers are crossed: each side gets the other's payload
	am, ok := a.find(api.RoomMatched).(api.RoomMatchedNotice)
	if !ok || am.PeerId != "b" || string(am.PeerOffer) != string(testAnswer) {
		t.Errorf("bad match notice for a: %+v", am)
	}
	bm, ok := b.find(api.RoomMatched).(api.RoomMatchedNotice)
	if !ok || bm.PeerId != "a" || string(bm.PeerOffer) != string(testOffer) {
		t.Errorf("bad match notice for b: %+v", bm)
	}
	if !a.has(api.UserJoined) {
		t.Error("the resident member should see user-joined")
	}
}

func TestJoinRoomLimits(t *testing.T) {
	h := newTestHub()
	for _, id := range []string{"a", "b", "c"} {
		h.Connect(id, &fakeConn{})
	}
	if _, err := h.JoinRoom("a", "r1", testOffer); err != nil {
		t.Fatal(err)
	}
	if _, err := h.JoinRoom("a", "r1", testOffer); !errors.Is(err, ErrAlreadyInRoom) {
		t.Errorf("expected ErrAlreadyInRoom, got %v", err)
	}
	if _, err := h.JoinRoom("b", "r1", testOffer); err != nil {
		t.Fatal(err)
	}
	if _, err := h.JoinRoom("c", "r1", testOffer); !errors.Is(err, ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
}

func TestJoinRoomImplicitMove(t *testing.T) {
	h := newTestHub()
	a, b := &fakeConn{}, &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", b)
	h.JoinRoom("a", "r1", testOffer)
	h.JoinRoom("b", "r1", testAnswer)
	b.reset()

	res, err := h.JoinRoom("a", "r2", testOffer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Waiting {
		t.Errorf("expected to wait in the new room, got %+v", res)
	}
	if !b.has(api.PeerLeft) {
		t.Error("the abandoned peer should see peer_left")
	}
	if got := h.RoomOf("a"); got != "r2" {
		t.Errorf("expected r2, got %q", got)
	}
}

func TestLeaveRoomFreesTheId(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})
	h.Connect("b", &fakeConn{})
	h.JoinRoom("a", "r1", testOffer)
	h.LeaveRoom("a", "r1")

	if rooms := h.Rooms(); len(rooms) != 0 {
		t.Fatalf("the emptied room must be deleted, got %v", rooms)
	}
	// a reused id is a fresh room with no stale offers
	res, err := h.JoinRoom("b", "r1", testAnswer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Waiting || res.Matched {
		t.Errorf("expected a fresh waiting room, got %+v", res)
	}
	if got := h.UserStatus("a"); got != Online {
		t.Errorf("the leaver should be back online, got %v", got)
	}
}

func TestCallAccepted(t *testing.T) {
	h := newTestHub()
	a, b := &fakeConn{}, &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", b)

	res, err := h.CallUser("a", "b", testOffer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.CallId == "" {
		t.Fatalf("expected a call id, got %+v", res)
	}
	inc, ok := b.find(api.IncomingCall).(api.IncomingCallNotice)
	if !ok || inc.From != "a" || inc.CallId != res.CallId {
		t.Fatalf("bad invitation: %+v", inc)
	}
	if h.UserStatus("a") != Calling || h.UserStatus("b") != ReceivingCall {
		t.Errorf("bad mid-call statuses: %v %v", h.UserStatus("a"), h.UserStatus("b"))
	}

	ans, err := h.AnswerCall(res.CallId, true, testAnswer)
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Accepted {
		t.Fatalf("expected an accept, got %+v", ans)
	}
	acc, ok := a.find(api.CallAccepted).(api.CallAcceptedNotice)
	if !ok || acc.From != "b" || string(acc.Answer) != string(testAnswer) {
		t.Errorf("bad accept notice: %+v", acc)
	}
	if h.UserStatus("a") != Busy || h.UserStatus("b") != Busy {
		t.Errorf("both sides should be busy: %v %v", h.UserStatus("a"), h.UserStatus("b"))
	}
}

func TestCallRejected(t *testing.T) {
	h := newTestHub()
	a := &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", &fakeConn{})

	res, _ := h.CallUser("a", "b", testOffer)
	ans, err := h.AnswerCall(res.CallId, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Accepted {
		t.Fatalf("expected a reject, got %+v", ans)
	}
	if !a.has(api.CallRejected) {
		t.Error("the caller should see call_rejected")
	}
	if h.UserStatus("a") != Online || h.UserStatus("b") != Online {
		t.Errorf("both sides should be back online: %v %v", h.UserStatus("a"), h.UserStatus("b"))
	}
	// the record is single-use
	if _, err := h.AnswerCall(res.CallId, false, nil); !errors.Is(err, ErrCallNotFound) {
		t.Errorf("expected ErrCallNotFound, got %v", err)
	}
}

func TestCallAcceptWithoutAnswerIsReject(t *testing.T) {
	h := newTestHub()
	a := &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", &fakeConn{})

	res, _ := h.CallUser("a", "b", testOffer)
	ans, err := h.AnswerCall(res.CallId, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ans.Accepted {
		t.Error("an accept without a payload must downgrade to a reject")
	}
	if !a.has(api.CallRejected) {
		t.Error("the caller should see call_rejected")
	}
}

func TestCallTargetUnavailable(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})
	h.Connect("b", &fakeConn{})
	h.JoinRoom("b", "r1", testOffer) // b is busy now

	if _, err := h.CallUser("a", "nobody", testOffer); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("expected ErrTargetUnavailable, got %v", err)
	}
	if _, err := h.CallUser("a", "b", testOffer); !errors.Is(err, ErrTargetUnavailable) {
		t.Errorf("expected ErrTargetUnavailable for a busy target, got %v", err)
	}
}

func TestConcurrentCallsGetDistinctIds(t *testing.T) {
	h := newTestHub()
	for _, id := range []string{"a", "b", "x", "y"} {
		h.Connect(id, &fakeConn{})
	}
	r1, err := h.CallUser("a", "b", testOffer)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := h.CallUser("x", "y", testOffer)
	if err != nil {
		t.Fatal(err)
	}
	if r1.CallId == r2.CallId {
		t.Error("call ids must be unique")
	}
}

func TestDisconnectRejectsPendingCalls(t *testing.T) {
	h := newTestHub()
	a := &fakeConn{}
	h.Connect("a", a)
	cid, _ := h.Connect("b", &fakeConn{})

	res, _ := h.CallUser("a", "b", testOffer)
	h.Disconnect("b", cid)

	rej, ok := a.find(api.CallRejected).(api.CallRejectedNotice)
	if !ok || rej.CallId != res.CallId {
		t.Fatalf("the caller should see an implicit reject, got %v", a.msgs)
	}
	if got := h.UserStatus("a"); got != Online {
		t.Errorf("the caller should be back online, got %v", got)
	}
	if _, err := h.AnswerCall(res.CallId, true, testAnswer); !errors.Is(err, ErrCallNotFound) {
		t.Errorf("expected ErrCallNotFound, got %v", err)
	}
}

func TestDisconnectReleasesRoomSeat(t *testing.T) {
	h := newTestHub()
	b := &fakeConn{}
	cid, _ := h.Connect("a", &fakeConn{})
	h.Connect("b", b)
	h.JoinRoom("a", "r1", testOffer)
	h.JoinRoom("b", "r1", testAnswer)
	b.reset()

	h.Disconnect("a", cid)

	if !b.has(api.PeerLeft) {
		t.Error("the remaining member should see peer_left")
	}
	m, ok := b.find(api.UserStatus).(api.UserStatusNotice)
	if !ok || m.Status != "offline" {
		t.Errorf("expected an offline broadcast, got %v", b.msgs)
	}
	if got := h.UserStatus("a"); got != Offline {
		t.Errorf("expected offline, got %v", got)
	}
	if got := h.UserStatus("b"); got != Online {
		t.Errorf("the remaining member waits alone online, got %v", got)
	}
}

func TestDisconnectGuardsReplacedHandles(t *testing.T) {
	h := newTestHub()
	stale := &fakeConn{}
	old, _ := h.Connect("a", stale)
	fresh, replaced := h.Connect("a", &fakeConn{})
	if replaced != stale {
		t.Error("the replaced handle must be handed back")
	}

	h.Disconnect("a", old)
	if got := h.UserStatus("a"); got != Online {
		t.Fatalf("a stale handle must not tear down the fresh one, got %v", got)
	}
	h.Disconnect("a", fresh)
	if got := h.UserStatus("a"); got != Offline {
		t.Errorf("expected offline, got %v", got)
	}
}

func TestDisconnectForced(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})

	// a nil cid skips the handle guard
	h.Disconnect("a", com.NilUid)
	if got := h.UserStatus("a"); got != Offline {
		t.Errorf("expected offline, got %v", got)
	}
}

func TestSendFailureDisconnects(t *testing.T) {
	h := newTestHub()
	a, b := &fakeConn{}, &fakeConn{fail: true}
	h.Connect("a", a)
	h.Connect("b", b)

	if ok := h.SendTo("b", api.NewError("probe")); ok {
		t.Fatal("a failed send must not report success")
	}
	if got := h.UserStatus("b"); got != Offline {
		t.Errorf("a dead handle means a disconnect, got %v", got)
	}
}

func TestBroadcastExcept(t *testing.T) {
	h := newTestHub()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", b)
	h.Connect("c", c)
	a.reset()
	b.reset()
	c.reset()

	h.BroadcastExcept("a", api.NewRoomsReset())
	if a.has(api.RoomsReset) {
		t.Error("the excluded user must not be reached")
	}
	if !b.has(api.RoomsReset) || !c.has(api.RoomsReset) {
		t.Error("everyone else must be reached")
	}
}

func TestListOnlineSkipsBusyAndSelf(t *testing.T) {
	h := newTestHub()
	for _, id := range []string{"a", "b", "c"} {
		h.Connect(id, &fakeConn{})
	}
	h.JoinRoom("c", "r1", testOffer)

	users := h.ListOnline("a")
	if len(users) != 1 || users[0].Id != "b" {
		t.Errorf("expected only b, got %v", users)
	}
}

func TestResetRooms(t *testing.T) {
	h := newTestHub()
	a := &fakeConn{}
	h.Connect("a", a)
	h.Connect("b", &fakeConn{})
	h.JoinRoom("a", "r1", testOffer)
	h.JoinRoom("b", "r2", testOffer)

	if n := h.ResetRooms(); n != 2 {
		t.Fatalf("expected 2 rooms reset, got %d", n)
	}
	if rooms := h.Rooms(); len(rooms) != 0 {
		t.Errorf("expected no rooms, got %v", rooms)
	}
	if !a.has(api.RoomsReset) {
		t.Error("connected users should be told about the reset")
	}
	if got := h.UserStatus("a"); got != Online {
		t.Errorf("seats are released on reset, got %v", got)
	}
}

func TestResetRoom(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})
	h.JoinRoom("a", "r1", testOffer)

	if !h.ResetRoom("r1") {
		t.Fatal("an existing room must reset")
	}
	if h.ResetRoom("r1") {
		t.Fatal("a missing room must not")
	}
	if got := h.RoomOf("a"); got != "" {
		t.Errorf("the seat must be released, got %q", got)
	}
}

func TestStats(t *testing.T) {
	h := newTestHub()
	h.Connect("a", &fakeConn{})
	h.Connect("b", &fakeConn{})
	h.JoinRoom("a", "r1", testOffer)

	users, rooms := h.Stats()
	if users != 2 || rooms != 1 {
		t.Errorf("expected 2 users and 1 room, got %d and %d", users, rooms)
	}
}
