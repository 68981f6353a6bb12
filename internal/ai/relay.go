package ai

import (
	"context"
	"encoding/json"

	"collabcode/internal/metrics"
	"collabcode/pkg/logger"
)

// errorText is the fixed user-visible payload broadcast when generation
// fails, so the room is never left waiting silently.
const errorText = "Error: Unable to process AI request"

// Publisher routes a synthetic assistant message into a room. Implemented by
// the message router.
type Publisher interface {
	PublishAssistantMessage(roomID, message string)
}

// Relay invokes the generator for a directed prompt and publishes exactly one
// assistant message per invocation: the structured result on success, the
// fixed error payload on any failure. It never retries.
type Relay struct {
	gen Generator
	pub Publisher
}

func NewRelay(gen Generator, pub Publisher) *Relay {
	return &Relay{
		gen: gen,
		pub: pub,
	}
}

// Handle runs one generation for the room. The context is not tied to the
// triggering connection: an in-flight generation is never cancelled when the
// sender drops or the room empties, it just broadcasts into an empty room.
func (r *Relay) Handle(prompt, roomID string) {
	res, err := r.gen.Generate(context.Background(), prompt)
	if err != nil {
		logger.Error("Error generating AI response: %v", err)
		metrics.AIRequests.WithLabelValues("error").Inc()
		r.publishError(roomID)
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		logger.Error("Error marshaling AI response: %v", err)
		metrics.AIRequests.WithLabelValues("error").Inc()
		r.publishError(roomID)
		return
	}

	metrics.AIRequests.WithLabelValues("success").Inc()
	r.pub.PublishAssistantMessage(roomID, string(payload))
}

func (r *Relay) publishError(roomID string) {
	payload, _ := json.Marshal(map[string]string{"text": errorText})
	r.pub.PublishAssistantMessage(roomID, string(payload))
}
