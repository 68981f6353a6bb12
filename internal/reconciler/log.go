package reconciler

import (
	"encoding/json"

	"collabcode/internal/models"
	"collabcode/pkg/logger"
)

// Mounter receives a validated file tree for execution. In the real client
// this is the in-browser sandbox; tests inject a fake.
type Mounter interface {
	Mount(tree map[string]models.FileTreeEntry) error
}

// Entry is one message in a client's visible log.
type Entry struct {
	Message   string
	Sender    models.Sender
	Timestamp int64
}

// Log is a client's ordered message log. Entries keep arrival order after
// dedup; there is no re-sort by timestamp, so out-of-order delivery across
// event types stays visible, matching the protocol's weak ordering.
type Log struct {
	entries  []Entry
	seen     map[int64]struct{}
	mounter  Mounter
	fileTree map[string]models.FileTreeEntry
}

func NewLog(mounter Mounter) *Log {
	return &Log{
		seen:    make(map[int64]struct{}),
		mounter: mounter,
	}
}

// AppendLocal records a message the client just sent, before the room echo
// arrives. It carries no timestamp yet; Apply adopts the echoed one.
func (l *Log) AppendLocal(message string, sender models.Sender) {
	l.entries = append(l.entries, Entry{Message: message, Sender: sender})
}

// Apply reconciles an incoming project-message broadcast into the log.
func (l *Log) Apply(ev models.Event) {
	if ev.Timestamp != 0 {
		if _, dup := l.seen[ev.Timestamp]; dup {
			return
		}
	}

	// An optimistic local append has no timestamp; the echoed copy is the
	// same text from the same sender and stamps it in place.
	if idx := l.findUnstamped(ev.Message, ev.Sender.ID); idx >= 0 {
		l.entries[idx].Timestamp = ev.Timestamp
		l.markSeen(ev.Timestamp)
		return
	}

	if ev.Sender.Kind == models.SenderAssistant {
		if !l.applyAssistant(ev) {
			return
		}
	}

	l.entries = append(l.entries, Entry{
		Message:   ev.Message,
		Sender:    ev.Sender,
		Timestamp: ev.Timestamp,
	})
	l.markSeen(ev.Timestamp)
}

// ApplyDelete removes the entry with the matching timestamp. No match is a
// no-op, and the timestamp stays in the seen set so a replayed delete or a
// late echo of the deleted message cannot resurrect it.
func (l *Log) ApplyDelete(ts int64) {
	for i, e := range l.entries {
		if e.Timestamp == ts {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *Log) Messages() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// FileTree returns the currently rendered tree, replaced whenever an
// assistant message carried a valid one.
func (l *Log) FileTree() map[string]models.FileTreeEntry {
	return l.fileTree
}

// applyAssistant parses an assistant payload and mounts its file tree when
// present. It reports whether the message should be appended to the log; a
// payload that is not valid JSON is dropped entirely.
func (l *Log) applyAssistant(ev models.Event) bool {
	var payload struct {
		Text     string          `json:"text"`
		FileTree json.RawMessage `json:"fileTree"`
	}
	if err := json.Unmarshal([]byte(ev.Message), &payload); err != nil {
		logger.Error("Error processing AI message: %v", err)
		return false
	}

	if len(payload.FileTree) == 0 {
		return true
	}

	valid := validateFileTree(payload.FileTree)
	if len(valid) == 0 {
		return true
	}

	if err := l.mounter.Mount(valid); err != nil {
		logger.Error("Failed to mount fileTree: %v", err)
		return true
	}
	l.fileTree = valid
	return true
}

// validateFileTree keeps only entries of shape {file:{contents: string}}.
// Malformed entries are dropped one by one; one bad entry never rejects the
// whole payload.
func validateFileTree(raw json.RawMessage) map[string]models.FileTreeEntry {
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tree); err != nil {
		logger.Warn("Invalid fileTree payload: %v", err)
		return nil
	}

	valid := make(map[string]models.FileTreeEntry)
	for name, entry := range tree {
		var e struct {
			File *struct {
				Contents *string `json:"contents"`
			} `json:"file"`
		}
		if err := json.Unmarshal(entry, &e); err != nil || e.File == nil || e.File.Contents == nil {
			logger.Warn("Invalid file data for %s", name)
			continue
		}
		valid[name] = models.FileTreeEntry{File: models.FileContents{Contents: *e.File.Contents}}
	}

	if len(valid) == 0 {
		return nil
	}
	return valid
}

func (l *Log) findUnstamped(message, senderID string) int {
	for i, e := range l.entries {
		if e.Timestamp == 0 && e.Message == message && e.Sender.ID == senderID {
			return i
		}
	}
	return -1
}

func (l *Log) markSeen(ts int64) {
	if ts != 0 {
		l.seen[ts] = struct{}{}
	}
}
