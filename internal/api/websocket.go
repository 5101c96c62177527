package api

import (
	"log"
	"sync"

	"sniper-duel/internal/protocol"
	"sniper-duel/internal/telemetry"
)

// roomMessage is one encoded frame addressed to every session of a match.
type roomMessage struct {
	matchID string
	frame   []byte
}

// Hub fans match events out to websocket sessions. It implements
// game.Broadcaster: Broadcast never blocks, and frames are dropped when the
// hub or a session queue is full.
type Hub struct {
	rooms     map[string]map[*Session]struct{}
	clients   int
	stopped   bool
	broadcast chan roomMessage
	stopChan  chan struct{}
	stopOnce  sync.Once
	mu        sync.RWMutex

	dropped uint64 // guarded by mu
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub() *Hub {
	return &Hub{
		rooms:     make(map[string]map[*Session]struct{}),
		broadcast: make(chan roomMessage, 1024),
		stopChan:  make(chan struct{}),
	}
}

// Run delivers broadcasts until Stop.
func (h *Hub) Run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.mu.Lock()
			for s := range h.rooms[msg.matchID] {
				select {
				case s.send <- msg.frame:
					telemetry.WSMessagesOut.Inc()
				default:
					// Slow reader, skip this frame (backpressure)
					h.dropped++
				}
			}
			h.mu.Unlock()

		case <-h.stopChan:
			h.mu.Lock()
			for id, room := range h.rooms {
				for s := range room {
					close(s.send)
				}
				delete(h.rooms, id)
			}
			h.clients = 0
			h.mu.Unlock()
			telemetry.WSConnectionsActive.Set(0)
			return
		}
	}
}

// Stop ends Run and closes every session queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()
		close(h.stopChan)
	})
}

// Register adds a session to its match room. Every broadcast issued after
// Register returns reaches the session. Returns false once the hub stopped.
func (h *Hub) Register(s *Session) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	room, ok := h.rooms[s.matchID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[s.matchID] = room
	}
	room[s] = struct{}{}
	h.clients++
	count := h.clients
	h.mu.Unlock()

	log.Printf("📱 %s connected from %s (%d total)", s.nickname, s.ip, count)
	telemetry.WSConnectionsActive.Set(float64(count))
	return true
}

// Unregister removes a session and closes its queue.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	room, ok := h.rooms[s.matchID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(room, s)
	close(s.send)
	h.clients--
	if len(room) == 0 {
		delete(h.rooms, s.matchID)
	}
	count := h.clients
	h.mu.Unlock()

	log.Printf("📱 %s disconnected (%d remaining)", s.nickname, count)
	telemetry.WSConnectionsActive.Set(float64(count))
}

// Broadcast implements game.Broadcaster.
func (h *Hub) Broadcast(matchID, event string, data interface{}) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("⚠️ Failed to encode %s: %v", event, err)
		return
	}

	select {
	case h.broadcast <- roomMessage{matchID: matchID, frame: frame}:
	default:
		// Channel full, skip (backpressure)
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// ClientCount returns the number of registered sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}

// RoomSize returns the number of sessions subscribed to a match.
func (h *Hub) RoomSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

// Dropped returns how many frames were skipped.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
