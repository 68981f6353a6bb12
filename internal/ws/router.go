package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"collabcode/internal/metrics"
	"collabcode/internal/models"
	"collabcode/pkg/logger"
)

// directive marks a chat message as addressed to the assistant. The match is
// case-sensitive and the first occurrence is stripped from the prompt.
const directive = "@ai"

// Broadcaster is the room fan-out the router publishes through. *Registry is
// the production implementation.
type Broadcaster interface {
	Broadcast(roomID string, payload []byte)
}

// Relay receives extracted assistant prompts. Implemented by the AI relay.
type Relay interface {
	Handle(prompt, roomID string)
}

// Router applies event policy and fans events out to the room. Chat events
// are broadcast immediately and unconditionally; directive handling happens
// afterwards on its own goroutine so the room never waits on generation.
type Router struct {
	registry Broadcaster
	relay    Relay

	mu        sync.Mutex
	lastStamp int64
}

func NewRouter(registry Broadcaster) *Router {
	return &Router{registry: registry}
}

// AttachRelay wires the assistant relay. Without one, directives are
// broadcast as ordinary chat and otherwise ignored.
func (r *Router) AttachRelay(relay Relay) {
	r.relay = relay
}

func (r *Router) HandleChat(s *Session, ev models.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = r.stamp()
	} else {
		r.observe(ev.Timestamp)
	}

	out := models.Event{
		Type:      models.EventProjectMessage,
		Message:   ev.Message,
		Sender:    ev.Sender,
		Timestamp: ev.Timestamp,
	}
	r.broadcast(s.RoomID, out)

	if r.relay != nil && strings.Contains(ev.Message, directive) {
		go r.relay.Handle(extractPrompt(ev.Message), s.RoomID)
	}
}

// HandleDelete honors self-deletes only. Anything else is logged and dropped
// with no reply to the requester; clients rely on the silence.
func (r *Router) HandleDelete(s *Session, ev models.Event) {
	if ev.Sender.ID != s.Identity.ID {
		logger.Warn("Unauthorized delete attempt by %s for message %d", s.Identity.Email, ev.Timestamp)
		return
	}

	out := models.Event{
		Type:      models.EventDeleteMessage,
		Timestamp: ev.Timestamp,
		ProjectID: ev.ProjectID,
		Sender:    ev.Sender,
	}
	r.broadcast(s.RoomID, out)
	logger.Info("Message %d deleted by %s in project %s", ev.Timestamp, s.Identity.Email, s.RoomID)
}

// PublishAssistantMessage broadcasts a synthetic chat event from the
// assistant identity. It skips directive inspection so an assistant payload
// containing "@ai" can never re-trigger generation.
func (r *Router) PublishAssistantMessage(roomID, message string) {
	out := models.Event{
		Type:      models.EventProjectMessage,
		Message:   message,
		Sender:    models.AssistantSender(),
		Timestamp: r.stamp(),
	}
	r.broadcast(roomID, out)
}

func (r *Router) broadcast(roomID string, ev models.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Error marshaling %s event: %v", ev.Type, err)
		return
	}
	r.registry.Broadcast(roomID, payload)
	metrics.EventsBroadcast.WithLabelValues(string(ev.Type)).Inc()
}

// stamp returns the current time in milliseconds, bumped past the previous
// stamp so timestamps stay unique for the router's lifetime even when two
// messages land in the same millisecond.
func (r *Router) stamp() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= r.lastStamp {
		now = r.lastStamp + 1
	}
	r.lastStamp = now
	return now
}

// extractPrompt removes the first directive occurrence and trims the
// whitespace around it, preserving the surrounding text.
func extractPrompt(message string) string {
	idx := strings.Index(message, directive)
	if idx < 0 {
		return strings.TrimSpace(message)
	}
	before := strings.TrimRight(message[:idx], " ")
	after := strings.TrimLeft(message[idx+len(directive):], " ")
	if before == "" {
		return strings.TrimSpace(after)
	}
	if after == "" {
		return strings.TrimSpace(before)
	}
	return before + " " + after
}

// observe records a client-supplied timestamp so later stamps stay ahead of
// it.
func (r *Router) observe(ts int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ts > r.lastStamp {
		r.lastStamp = ts
	}
}
