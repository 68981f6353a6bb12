package models

import "encoding/json"

type EventType string

const (
	EventProjectMessage EventType = "project-message"
	EventDeleteMessage  EventType = "delete-message"
)

// Event is the flat room-scoped wire envelope. Chat events carry message,
// sender and timestamp; delete events carry timestamp, projectId and sender.
type Event struct {
	Type      EventType `json:"type"`
	Message   string    `json:"message,omitempty"`
	Sender    Sender    `json:"sender"`
	Timestamp int64     `json:"timestamp,omitempty"`
	ProjectID string    `json:"projectId,omitempty"`
}

type SenderKind int

const (
	SenderHuman SenderKind = iota
	SenderAssistant
	SenderSystem
)

const (
	assistantID    = "ai"
	assistantEmail = "AI"
	systemID       = "system"
	systemEmail    = "System"
)

// Sender is a tagged union over who originated a message. On the wire it
// keeps the {_id, email} shape; the assistant and system variants map to the
// reserved identities so existing clients keep working.
type Sender struct {
	Kind  SenderKind
	ID    string
	Email string
}

func HumanSender(id, email string) Sender {
	return Sender{Kind: SenderHuman, ID: id, Email: email}
}

func AssistantSender() Sender {
	return Sender{Kind: SenderAssistant, ID: assistantID, Email: assistantEmail}
}

func SystemSender() Sender {
	return Sender{Kind: SenderSystem, ID: systemID, Email: systemEmail}
}

type senderWire struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

func (s Sender) MarshalJSON() ([]byte, error) {
	w := senderWire{ID: s.ID, Email: s.Email}
	switch s.Kind {
	case SenderAssistant:
		w.ID, w.Email = assistantID, assistantEmail
	case SenderSystem:
		w.ID, w.Email = systemID, systemEmail
	}
	return json.Marshal(w)
}

func (s *Sender) UnmarshalJSON(data []byte) error {
	var w senderWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.ID, s.Email = w.ID, w.Email
	switch w.ID {
	case assistantID:
		s.Kind = SenderAssistant
	case systemID:
		s.Kind = SenderSystem
	default:
		s.Kind = SenderHuman
	}
	return nil
}

// AIResponse is the structured generator output. The router treats the whole
// payload as opaque text; only the reconciler looks inside fileTree.
type AIResponse struct {
	Text         string                   `json:"text"`
	FileTree     map[string]FileTreeEntry `json:"fileTree,omitempty"`
	BuildCommand *Command                 `json:"buildCommand,omitempty"`
	StartCommand *Command                 `json:"startCommand,omitempty"`
}

type FileTreeEntry struct {
	File FileContents `json:"file"`
}

type FileContents struct {
	Contents string `json:"contents"`
}

type Command struct {
	MainItem string   `json:"mainItem"`
	Commands []string `json:"commands"`
}
