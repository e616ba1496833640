package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Publisher is the interface for publishing frames to Redis (for
// cross-instance broadcast).
type Publisher interface {
	PublishSessionEvent(sessionID uuid.UUID, body []byte) error
}

// Subscriber subscribes to session channels and invokes handler for
// incoming frames.
type Subscriber interface {
	SubscribeSession(sessionID uuid.UUID, handler func(body []byte)) (cancel func(), err error)
}

// Hub maintains session_id -> set of role-tagged connections and fans out
// role-filtered events. Delivery is best-effort: a client that cannot
// keep up is dropped and deregistered; the hub never retries or replays.
// Reconnecting clients reconcile through the REST full-state read.
type Hub struct {
	// sessionID -> map[clientID]*Client
	sessions map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per session
	mu       sync.RWMutex
	logger   *zap.Logger
	pub      Publisher
	sub      Subscriber
}

// NewHub creates a new WebSocket hub. pub/sub may be nil for single
// instance deployments (and tests); events are then delivered locally.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		pub:      pub,
		sub:      sub,
	}
}

// Register adds a client to a session room. Starts the Redis subscription
// for this session if none is active yet; a failed subscribe is logged
// and re-attempted on the next Register for the session.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.sessions[c.SessionID] == nil {
		h.sessions[c.SessionID] = make(map[string]*Client)
	}
	if h.sub != nil {
		if _, ok := h.subs[c.SessionID]; !ok {
			cancel, err := h.sub.SubscribeSession(c.SessionID, func(body []byte) {
				var f frame
				if err := json.Unmarshal(body, &f); err != nil {
					return
				}
				h.deliver(f)
			})
			if err != nil {
				h.logger.Error("session subscribe failed",
					zap.String("session_id", c.SessionID.String()), zap.Error(err))
			} else {
				h.subs[c.SessionID] = cancel
			}
		}
	}
	h.sessions[c.SessionID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined session",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID.String()),
		zap.String("role", string(c.Role)),
	)
}

// Unregister removes a client from a session room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.sessions[c.SessionID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.sessions, c.SessionID)
			if cancel, ok := h.subs[c.SessionID]; ok {
				cancel()
				delete(h.subs, c.SessionID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left session",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID.String()),
	)
}

// Publish fans an event out to the session's subscribers. With Redis
// configured it publishes to the session channel only, and the
// subscription callback performs the local broadcast once per instance;
// without Redis it delivers directly. Failures never propagate to the
// caller: the mutation already committed.
func (h *Hub) Publish(ev Event) {
	f, err := ev.encode()
	if err != nil {
		h.logger.Error("encode event", zap.String("event", ev.Name), zap.Error(err))
		return
	}
	if h.pub != nil {
		body, err := json.Marshal(f)
		if err != nil {
			h.logger.Error("marshal frame", zap.String("event", ev.Name), zap.Error(err))
			return
		}
		if err := h.pub.PublishSessionEvent(ev.SessionID, body); err != nil {
			h.logger.Warn("redis publish failed, delivering locally",
				zap.String("event", ev.Name), zap.Error(err))
			h.deliver(f)
		}
		return
	}
	h.deliver(f)
}

// deliver applies the per-role visibility filter and pushes the frame to
// every live subscriber of the session. The subscriber set is snapshotted
// under the read lock before iteration, so concurrent register/unregister
// never mutates the set a publish is walking.
func (h *Hub) deliver(f frame) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[f.SessionID]))
	for _, c := range h.sessions[f.SessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var dead []*Client
	for _, c := range clients {
		payload, ok := f.payloadFor(c.Role)
		if !ok {
			continue
		}
		select {
		case <-c.done:
			// already shutting down; disconnect raced the snapshot
			dead = append(dead, c)
			continue
		default:
		}
		select {
		case c.send <- WSMessage{Event: f.Name, Data: payload}:
		default:
			// buffer full; drop the connection
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.Unregister(c)
		c.shutdown()
		h.logger.Warn("dropped slow subscriber",
			zap.String("client_id", c.ID),
			zap.String("session_id", c.SessionID.String()),
		)
	}
}

// SubscriberCount returns the number of connected clients in a session.
func (h *Hub) SubscriberCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
