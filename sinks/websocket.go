// Package sinks provides ready-made consumers for policy event feeds.
package sinks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/epochgc/gcpolicy/core"
	"github.com/epochgc/gcpolicy/protocol"
	"github.com/epochgc/gcpolicy/telemetry"
)

// subscribeTimeout bounds how long Process waits for the client's subscribe
// message.
const subscribeTimeout = 10 * time.Second

// WebSocketMonitorConfig holds monitor feed configuration
type WebSocketMonitorConfig struct {
	Conn *websocket.Conn

	// StreamID tags every message on this feed. Empty picks a random one.
	StreamID string

	// Log, when set, lets the monitor replay recorded events the client
	// missed before streaming live ones.
	Log core.EventLog

	// Status, when set, is snapshotted into an initial status message.
	Status core.StatusSource

	// AwaitSubscribe makes Process wait for the client's subscribe message
	// and honor its type selection and replay position.
	AwaitSubscribe bool

	Logger telemetry.Logger
}

// WebSocketMonitor streams policy events to a connected debug client
type WebSocketMonitor struct {
	config   WebSocketMonitorConfig
	filter   map[core.EventType]bool
	sinceSeq uint64
}

// NewWebSocketMonitor creates a new monitor feed sink
func NewWebSocketMonitor(config WebSocketMonitorConfig) *WebSocketMonitor {
	if config.StreamID == "" {
		config.StreamID = uuid.NewString()[:8]
	}
	if config.Logger == nil {
		config.Logger = telemetry.NewNop()
	}
	return &WebSocketMonitor{
		config: config,
	}
}

// Name returns the sink name
func (wm *WebSocketMonitor) Name() string {
	return "websocket_monitor"
}

// Process implements the Sink interface. It optionally performs the
// subscribe handshake, sends the status snapshot and replays recorded
// events, then streams live events until the feed closes or the context
// ends. A dead connection drains the feed and returns nil rather than
// failing the runtime.
func (wm *WebSocketMonitor) Process(ctx context.Context, input <-chan core.Event) error {
	logger := wm.config.Logger.WithModule(wm.Name())
	logger.Info("Starting WebSocket monitor", telemetry.String("stream_id", wm.config.StreamID))

	if wm.config.AwaitSubscribe {
		if err := wm.awaitSubscribe(); err != nil {
			logger.Warn("Subscribe handshake failed, closing feed",
				telemetry.Err(err),
				telemetry.String("stream_id", wm.config.StreamID))
			drain(input)
			return nil
		}
	}

	if wm.config.Status != nil {
		status := protocol.NewStatusMessage(
			wm.config.StreamID,
			wm.config.Status.Current(),
			wm.config.Status.Depth(),
			wm.config.Status.Seq(),
		)
		if !wm.write(logger, status) {
			drain(input)
			return nil
		}
	}

	if wm.config.Log != nil {
		if !wm.replay(logger) {
			drain(input)
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("WebSocket monitor context cancelled", telemetry.String("stream_id", wm.config.StreamID))
			return ctx.Err()

		case event, ok := <-input:
			if !ok {
				logger.Info("WebSocket monitor feed closed", telemetry.String("stream_id", wm.config.StreamID))
				return nil
			}

			if !wm.shouldForward(event.EventType()) {
				continue
			}

			msg := protocol.EventToMessage(event, wm.config.StreamID)
			if msg == nil {
				logger.Debug("Skipping unknown event type", telemetry.String("stream_id", wm.config.StreamID))
				continue
			}

			if !wm.write(logger, msg) {
				// Connection closed or failed - drain the feed without
				// failing the runtime
				drain(input)
				return nil
			}
			logger.Debug("Sent event",
				telemetry.String("type", string(msg.Type)),
				telemetry.String("stream_id", wm.config.StreamID))
		}
	}
}

// awaitSubscribe reads the client's subscribe message and records its type
// selection and replay position
func (wm *WebSocketMonitor) awaitSubscribe() error {
	if err := wm.config.Conn.SetReadDeadline(time.Now().Add(subscribeTimeout)); err != nil {
		return err
	}
	_, data, err := wm.config.Conn.ReadMessage()
	if err != nil {
		return err
	}
	// Nothing else is read from this connection, clear the deadline
	if err := wm.config.Conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}

	payload, err := protocol.ParseSubscribe(data)
	if err != nil {
		return err
	}

	if len(payload.Types) > 0 {
		wm.filter = make(map[core.EventType]bool)
		for _, t := range payload.Types {
			wm.filter[core.EventType(t)] = true
		}
	}
	wm.sinceSeq = payload.SinceSeq
	return nil
}

// replay sends recorded events the client has not seen yet, reporting
// whether the connection is still usable
func (wm *WebSocketMonitor) replay(logger telemetry.Logger) bool {
	entries := wm.config.Log.Since(wm.sinceSeq)
	for _, entry := range entries {
		if !wm.shouldForward(entry.Event.EventType()) {
			continue
		}
		msg := protocol.EventToMessage(entry.Event, wm.config.StreamID)
		if msg == nil {
			continue
		}
		msg.Seq = entry.Seq
		if !wm.write(logger, msg) {
			return false
		}
	}
	logger.Debug("Replay complete",
		telemetry.Int("entries", len(entries)),
		telemetry.String("stream_id", wm.config.StreamID))
	return true
}

// write marshals and sends one message, reporting whether the connection is
// still usable
func (wm *WebSocketMonitor) write(logger telemetry.Logger, msg *protocol.OutputMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		// A single bad message does not end the feed
		logger.Error("Failed to marshal message",
			telemetry.Err(err),
			telemetry.String("event_type", string(msg.Type)))
		return true
	}
	if err := wm.config.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Error("Failed to send message",
			telemetry.Err(err),
			telemetry.String("stream_id", wm.config.StreamID),
			telemetry.String("event_type", string(msg.Type)))
		return false
	}
	return true
}

// shouldForward checks the client's subscribe selection
func (wm *WebSocketMonitor) shouldForward(eventType core.EventType) bool {
	if wm.filter == nil {
		return true
	}
	return wm.filter[eventType]
}

// drain consumes the rest of the feed so the dispatcher never backs up
// behind a dead consumer
func drain(input <-chan core.Event) {
	for range input {
	}
}
