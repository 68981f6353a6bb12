package ws

import (
	"collabcode/internal/models"

	"github.com/google/uuid"
)

// Session is one authenticated live connection. Identity and room are set
// once at handshake and never change; nothing here is persisted.
type Session struct {
	ConnID   string
	Identity models.Identity
	RoomID   string
}

func NewSession(identity models.Identity, roomID string) *Session {
	return &Session{
		ConnID:   uuid.NewString(),
		Identity: identity,
		RoomID:   roomID,
	}
}
