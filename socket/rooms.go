package socket

import "sync"

// Session is the slice of a realtime connection the registry needs. The
// socket.io Conn satisfies it; tests use a fake.
type Session interface {
	ID() string
	Emit(event string, args ...interface{})
}

// RoomRegistry is an explicit bidirectional index of room membership:
// room -> sessions and session -> rooms. It is the source of truth for
// broadcasts, independent of the transport's own room bookkeeping, and safe
// under concurrent join/leave from independent connections.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Session  // room id -> session id -> session
	joined map[string]map[string]struct{} // session id -> room ids
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[string]Session),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds a session to a room. Joining a room twice is a no-op.
func (r *RoomRegistry) Join(room string, session Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]Session)
	}
	r.rooms[room][session.ID()] = session

	if r.joined[session.ID()] == nil {
		r.joined[session.ID()] = make(map[string]struct{})
	}
	r.joined[session.ID()][room] = struct{}{}
}

// Leave removes a session from a room. Leaving a room it never joined is a
// no-op.
func (r *RoomRegistry) Leave(room, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, sessionID)
}

// RemoveSession drops a session from every room it joined. Called on
// disconnect; there are no durable side effects.
func (r *RoomRegistry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[sessionID] {
		r.leaveLocked(room, sessionID)
	}
}

func (r *RoomRegistry) leaveLocked(room, sessionID string) {
	if sessions, ok := r.rooms[room]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.joined[sessionID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, sessionID)
		}
	}
}

// BroadcastExcept emits an event to every session in the room except the
// one identified by exceptID. Delivery is best-effort and at-most-once: a
// session that is gone simply misses the event.
func (r *RoomRegistry) BroadcastExcept(room, exceptID, event string, args ...interface{}) {
	r.mu.RLock()
	sessions := make([]Session, 0, len(r.rooms[room]))
	for id, session := range r.rooms[room] {
		if id == exceptID {
			continue
		}
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	for _, session := range sessions {
		session.Emit(event, args...)
	}
}

// RoomLen returns the number of sessions in a room.
func (r *RoomRegistry) RoomLen(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Rooms returns the rooms a session currently belongs to.
func (r *RoomRegistry) Rooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.joined[sessionID]))
	for room := range r.joined[sessionID] {
		rooms = append(rooms, room)
	}
	return rooms
}
