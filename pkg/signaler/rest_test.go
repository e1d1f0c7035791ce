package signaler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/config"
	"github.com/warmspace/signaler/pkg/logger"
	"github.com/warmspace/signaler/pkg/network/httpx"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(config.Config{}, logger.Default())
	mux := httpx.NewServeMux("")
	s.restRoutes(mux)
	serv := httptest.NewServer(withCORS("*", mux))
	t.Cleanup(serv.Close)
	return serv
}

func post(t *testing.T, url, body string) map[string]any {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func get(t *testing.T, url string) map[string]any {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestRestHealth(t *testing.T) {
	serv := newTestServer(t)
	out := get(t, serv.URL+"/")
	if out["status"] != "ok" {
		t.Errorf("expected ok, got %v", out)
	}
}

func TestRestJoinRoom(t *testing.T) {
	serv := newTestServer(t)

	out := post(t, serv.URL+"/api/join-room",
		`{"user_id":"a","room_id":"r1","offer":{"sdp":"v=0","type":"offer"}}`)
	if out["success"] != true || out["waiting"] != true {
		t.Errorf("expected a waiting join, got %v", out)
	}

	out = post(t, serv.URL+"/api/join-room",
		`{"user_id":"b","room_id":"r1","offer":{"sdp":"v=0","type":"offer"}}`)
	if out["success"] != true || out["matched"] != true || out["peer_id"] != "a" {
		t.Errorf("expected a match with a, got %v", out)
	}
}

func TestRestJoinRoomValidation(t *testing.T) {
	serv := newTestServer(t)
	res, err := http.Post(serv.URL+"/api/join-room", "application/json",
		strings.NewReader(`{"user_id":"a"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", res.StatusCode)
	}
}

func TestRestCallUnavailableTarget(t *testing.T) {
	serv := newTestServer(t)
	out := post(t, serv.URL+"/api/call-user",
		`{"from_user_id":"a","to_user_id":"nobody","offer":{"sdp":"v=0","type":"offer"}}`)
	if out["success"] != false || out["message"] == nil {
		t.Errorf("expected a domain failure, got %v", out)
	}
}

func TestRestUserStatusUnknown(t *testing.T) {
	serv := newTestServer(t)
	out := get(t, serv.URL+"/api/user-status/ghost")
	if out["status"] != "offline" {
		t.Errorf("unknown users are offline, got %v", out)
	}
}

func TestRestRoomsAndResets(t *testing.T) {
	serv := newTestServer(t)
	post(t, serv.URL+"/api/join-room",
		`{"user_id":"a","room_id":"r1","offer":{"sdp":"v=0","type":"offer"}}`)

	out := get(t, serv.URL+"/api/rooms")
	if out["total_rooms"] != float64(1) {
		t.Fatalf("expected one room, got %v", out)
	}

	req, _ := http.NewRequest(http.MethodDelete, serv.URL+"/api/reset-rooms", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	var reset map[string]any
	if err := json.NewDecoder(res.Body).Decode(&reset); err != nil {
		t.Fatal(err)
	}
	if reset["success"] != true || reset["rooms_reset"] != float64(1) {
		t.Errorf("expected one room reset, got %v", reset)
	}

	out = get(t, serv.URL+"/api/rooms")
	if out["total_rooms"] != float64(0) {
		t.Errorf("expected no rooms, got %v", out)
	}
}

func TestRestCORSPreflight(t *testing.T) {
	serv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, serv.URL+"/api/rooms", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %v", res.StatusCode)
	}
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing the allow-origin header")
	}
}
