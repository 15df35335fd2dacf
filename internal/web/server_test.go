package web

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeResult struct {
	Contour string      `json:"contour"`
	Notes   [][]float64 `json:"notes"`
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	go s.broadcastLoop(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return s, ts
}

func TestIndexIsServed(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "<title>parsons</title>") {
		t.Fatalf("status=%d body=%.80q", resp.StatusCode, body)
	}
}

func TestResultEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/result")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before result=%d want=404", resp.StatusCode)
	}

	if err := s.SetResult(fakeResult{Contour: "*ud", Notes: [][]float64{{1, 2}}}); err != nil {
		t.Fatalf("SetResult: %v", err)
	}
	resp, err = http.Get(ts.URL + "/api/result")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var got fakeResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Contour != "*ud" || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("result=%+v content-type=%q", got, resp.Header.Get("Content-Type"))
	}

	post, err := http.Post(ts.URL+"/api/result", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST status=%d want=405", post.StatusCode)
	}
}

func TestWebSocketReceivesResultThenUpdates(t *testing.T) {
	s, ts := newTestServer(t)
	if err := s.SetResult(fakeResult{Contour: "*"}); err != nil {
		t.Fatalf("SetResult: %v", err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if msg.Type != "result" || !strings.Contains(string(msg.Data), `"contour":"*"`) {
		t.Fatalf("first message=%s %s", msg.Type, msg.Data)
	}
	if s.Clients() != 1 {
		t.Fatalf("clients=%d want=1", s.Clients())
	}

	if err := s.Publish(map[string]string{"symbol": "u", "contour": "*u"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if msg.Type != "update" || !strings.Contains(string(msg.Data), `"contour":"*u"`) {
		t.Fatalf("update message=%s %s", msg.Type, msg.Data)
	}
}

func TestPublishRejectsUnencodableValues(t *testing.T) {
	s := NewServer(nil)
	if err := s.Publish(make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
	if err := s.SetResult(func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}
