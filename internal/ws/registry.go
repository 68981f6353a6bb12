package ws

import (
	"sync"

	"collabcode/internal/metrics"
)

// Registry maps a room id to the set of connected clients. Rooms are created
// implicitly on first join and removed when the last member leaves. The mutex
// is held only for the O(1) membership mutation and the fan-out loop; it never
// wraps a network write.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]bool
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]bool),
	}
}

func (r *Registry) Join(roomID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[*Client]bool)
		r.rooms[roomID] = room
	}
	room[c] = true
	metrics.ActiveConnections.Inc()
}

func (r *Registry) Leave(roomID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, member := room[c]; !member {
		return
	}
	delete(room, c)
	close(c.send)
	metrics.ActiveConnections.Dec()
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers the payload to every current member, including the
// sender. Delivery is best-effort per member: a client whose send buffer is
// full is dropped from the room so one stalled connection cannot block the
// rest. Broadcasting into an unknown room is a no-op.
func (r *Registry) Broadcast(roomID string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for client := range room {
		select {
		case client.send <- payload:
		default:
			delete(room, client)
			close(client.send)
			metrics.ActiveConnections.Dec()
		}
	}
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}

func (r *Registry) MemberCount(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}
