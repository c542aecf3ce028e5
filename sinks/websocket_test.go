package sinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/protocol"
	"github.com/epochgc/gcpolicy/telemetry"
)

// monitorPeer runs a WebSocket server that decodes every text message the
// monitor sends and hands the dialed client connection to the caller.
func monitorPeer(t *testing.T) (*websocket.Conn, chan protocol.OutputMessage, func()) {
	t.Helper()

	messages := make(chan protocol.OutputMessage, 32)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				break
			}
			if mt == websocket.TextMessage {
				var msg protocol.OutputMessage
				_ = json.Unmarshal(message, &msg)
				messages <- msg
			}
		}
	}))

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		s.Close()
		t.Fatalf("Failed to dial: %v", err)
	}

	return conn, messages, func() {
		conn.Close()
		s.Close()
	}
}

// stubLog is a fixed event log for replay tests
type stubLog struct {
	entries []core.LogEntry
}

func (l *stubLog) Append(event core.Event) {
	l.entries = append(l.entries, core.LogEntry{
		Seq:   uint64(len(l.entries) + 1),
		Time:  time.Now(),
		Event: event,
	})
}

func (l *stubLog) Since(seq uint64) []core.LogEntry {
	var out []core.LogEntry
	for _, entry := range l.entries {
		if entry.Seq > seq {
			out = append(out, entry)
		}
	}
	return out
}

// stubStatus is a fixed cell snapshot for the initial status message
type stubStatus struct {
	setting core.Setting[core.Collect]
	depth   int
	seq     uint64
}

func (s stubStatus) Current() core.Setting[core.Collect] { return s.setting }
func (s stubStatus) Depth() int                          { return s.depth }
func (s stubStatus) Seq() uint64                         { return s.seq }

func sampleChange(seq uint64) core.ChangeEvent {
	return core.ChangeEvent{
		ScopeID:   "scope-1",
		Label:     "compaction",
		Requested: core.NoCollect,
		Outcome:   core.OutcomeApplied,
		Before:    core.Setting[core.Collect]{Value: core.AllowCollect, Strength: core.Lenient[core.Collect]()},
		After:     core.Setting[core.Collect]{Value: core.NoCollect, Strength: core.Lenient[core.Collect]()},
		Seq:       seq,
	}
}

func TestWebSocketMonitor_StreamsEvents(t *testing.T) {
	conn, messages, cleanup := monitorPeer(t)
	defer cleanup()

	monitor := NewWebSocketMonitor(WebSocketMonitorConfig{
		Conn:     conn,
		StreamID: "test-stream",
		Logger:   telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- monitor.Process(ctx, input) }()

	input <- sampleChange(7)
	input <- core.CycleEvent{Number: 3, Duration: 20 * time.Millisecond}
	close(input)

	if err := <-done; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	timeout := time.After(1 * time.Second)
	var change *protocol.OutputMessage
	var cycle *protocol.OutputMessage

	for i := 0; i < 2; i++ {
		select {
		case msg := <-messages:
			switch msg.Type {
			case protocol.OutputPolicyChange:
				change = &msg
			case protocol.OutputCycleRun:
				cycle = &msg
			}
		case <-timeout:
		}
	}

	if change == nil {
		t.Fatal("Should receive policy.change message")
	}
	if change.StreamID != "test-stream" {
		t.Errorf("Expected stream test-stream, got %s", change.StreamID)
	}
	payload, ok := change.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Payload is not a map: %T", change.Payload)
	}
	if payload["scopeId"] != "scope-1" {
		t.Errorf("Expected scopeId scope-1, got %v", payload["scopeId"])
	}
	if payload["outcome"] != "applied" {
		t.Errorf("Expected outcome applied, got %v", payload["outcome"])
	}
	if payload["seq"] != float64(7) {
		t.Errorf("Expected seq 7, got %v", payload["seq"])
	}

	if cycle == nil {
		t.Fatal("Should receive cycle.run message")
	}
	cyclePayload, ok := cycle.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Payload is not a map: %T", cycle.Payload)
	}
	if cyclePayload["number"] != float64(3) {
		t.Errorf("Expected cycle number 3, got %v", cyclePayload["number"])
	}
}

func TestWebSocketMonitor_Replay(t *testing.T) {
	conn, messages, cleanup := monitorPeer(t)
	defer cleanup()

	log := &stubLog{}
	log.Append(sampleChange(1))
	log.Append(core.CycleEvent{Number: 1, Duration: time.Millisecond})
	log.Append(sampleChange(3))

	monitor := NewWebSocketMonitor(WebSocketMonitorConfig{
		Conn:     conn,
		StreamID: "replay-stream",
		Log:      log,
		Logger:   telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- monitor.Process(ctx, input) }()

	// Replay runs before the live loop, so closing the feed right away
	// still delivers the recorded events
	close(input)

	if err := <-done; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	var seqs []uint64
	timeout := time.After(1 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case msg := <-messages:
			seqs = append(seqs, msg.Seq)
		case <-timeout:
			t.Fatalf("Expected 3 replayed messages, got %d", len(seqs))
		}
	}

	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Errorf("Replay position %d: expected seq %d, got %d", i, i+1, seq)
		}
	}
}

func TestWebSocketMonitor_SubscribeFilter(t *testing.T) {
	messages := make(chan protocol.OutputMessage, 32)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		// Ask for cycle events only
		sub := `{"type":"subscribe","payload":{"types":["cycle"]}}`
		if err := c.WriteMessage(websocket.TextMessage, []byte(sub)); err != nil {
			return
		}
		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				break
			}
			if mt == websocket.TextMessage {
				var msg protocol.OutputMessage
				_ = json.Unmarshal(message, &msg)
				messages <- msg
			}
		}
	}))
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	monitor := NewWebSocketMonitor(WebSocketMonitorConfig{
		Conn:           conn,
		StreamID:       "filter-stream",
		AwaitSubscribe: true,
		Logger:         telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- monitor.Process(ctx, input) }()

	input <- sampleChange(5)
	input <- core.CycleEvent{Number: 9, Duration: time.Millisecond}
	close(input)

	if err := <-done; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != protocol.OutputCycleRun {
			t.Errorf("Expected cycle.run, got %s", msg.Type)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("No message received")
	}

	select {
	case msg := <-messages:
		t.Errorf("Change event should have been filtered, got %s", msg.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebSocketMonitor_InitialStatus(t *testing.T) {
	conn, messages, cleanup := monitorPeer(t)
	defer cleanup()

	monitor := NewWebSocketMonitor(WebSocketMonitorConfig{
		Conn:     conn,
		StreamID: "status-stream",
		Status: stubStatus{
			setting: core.Setting[core.Collect]{Value: core.NoCollect, Strength: core.Strict[core.Collect]()},
			depth:   2,
			seq:     41,
		},
		Logger: telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- monitor.Process(ctx, input) }()
	close(input)

	if err := <-done; err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != protocol.OutputStatus {
			t.Fatalf("Expected status message first, got %s", msg.Type)
		}
		payload, ok := msg.Payload.(map[string]any)
		if !ok {
			t.Fatalf("Payload is not a map: %T", msg.Payload)
		}
		if payload["collectAllowed"] != false {
			t.Errorf("Expected collectAllowed false, got %v", payload["collectAllowed"])
		}
		if payload["depth"] != float64(2) {
			t.Errorf("Expected depth 2, got %v", payload["depth"])
		}
		setting, ok := payload["setting"].(map[string]any)
		if !ok {
			t.Fatalf("Setting is not a map: %T", payload["setting"])
		}
		if setting["value"] != "nocollect" {
			t.Errorf("Expected value nocollect, got %v", setting["value"])
		}
	case <-time.After(1 * time.Second):
		t.Fatal("No status message received")
	}
}

func TestWebSocketMonitor_PeerLoss(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Read one message, then drop the connection
		_, _, _ = c.ReadMessage()
		c.Close()
	}))
	defer s.Close()

	u := "ws" + strings.TrimPrefix(s.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	monitor := NewWebSocketMonitor(WebSocketMonitorConfig{
		Conn:     conn,
		StreamID: "loss-stream",
		Logger:   telemetry.New(telemetry.Config{Level: "error"}),
	})

	input := make(chan core.Event)
	done := make(chan error, 1)
	go func() { done <- monitor.Process(context.Background(), input) }()

	// Keep feeding events; once the peer is gone the monitor must drain
	// instead of blocking the producer
	for i := 0; i < 20; i++ {
		input <- sampleChange(uint64(i + 1))
	}
	close(input)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not return after peer loss")
	}
}
