package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raisemyhand/backend/internal/models"
)

func newTestClient(sessionID uuid.UUID, role models.Role, buffer int) *Client {
	return &Client{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		send:      make(chan WSMessage, buffer),
		done:      make(chan struct{}),
		logger:    zap.NewNop(),
	}
}

func tryRecv(c *Client) (WSMessage, bool) {
	select {
	case msg := <-c.send:
		return msg, true
	default:
		return WSMessage{}, false
	}
}

// fakePubSub is an in-process stand-in for the Redis bridge: publishes
// loop straight back into the registered handler.
type fakePubSub struct {
	mu            sync.Mutex
	handlers      map[uuid.UUID]func([]byte)
	cancelled     int
	fail          bool
	failSubscribe bool
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{handlers: make(map[uuid.UUID]func([]byte))}
}

func (f *fakePubSub) PublishSessionEvent(sessionID uuid.UUID, body []byte) error {
	f.mu.Lock()
	handler := f.handlers[sessionID]
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errTestPublish
	}
	if handler != nil {
		handler(body)
	}
	return nil
}

func (f *fakePubSub) SubscribeSession(sessionID uuid.UUID, handler func(body []byte)) (func(), error) {
	f.mu.Lock()
	if f.failSubscribe {
		f.mu.Unlock()
		return nil, errTestSubscribe
	}
	f.handlers[sessionID] = handler
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.handlers, sessionID)
		f.cancelled++
		f.mu.Unlock()
	}, nil
}

var (
	errTestPublish   = errors.New("publish failed")
	errTestSubscribe = errors.New("subscribe failed")
)

func TestPublishRoleFiltering(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	sid := uuid.New()
	mod := newTestClient(sid, models.RoleModerator, 8)
	part := newTestClient(sid, models.RoleParticipant, 8)
	hub.Register(mod)
	hub.Register(part)

	// Flagged question: moderator only, even though a participant payload
	// is attached.
	hub.Publish(Event{
		Name:        EventQuestionCreated,
		SessionID:   sid,
		QuestionID:  uuid.New(),
		Status:      models.StatusFlagged,
		Moderator:   map[string]string{"text": "raw"},
		Participant: map[string]string{"text": "censored"},
	})
	if _, ok := tryRecv(mod); !ok {
		t.Fatal("moderator should receive flagged question")
	}
	if _, ok := tryRecv(part); ok {
		t.Fatal("participant must not receive flagged question")
	}

	// Approved question reaches both.
	hub.Publish(Event{
		Name:        EventQuestionUpdated,
		SessionID:   sid,
		QuestionID:  uuid.New(),
		Status:      models.StatusApproved,
		Moderator:   map[string]string{"text": "raw"},
		Participant: map[string]string{"text": "censored"},
	})
	if _, ok := tryRecv(mod); !ok {
		t.Fatal("moderator should receive approved question")
	}
	msg, ok := tryRecv(part)
	if !ok {
		t.Fatal("participant should receive approved question")
	}
	if msg.Event != EventQuestionUpdated {
		t.Fatalf("event = %s", msg.Event)
	}

	// Nil participant payload skips the role regardless of status.
	hub.Publish(Event{
		Name:       EventQuestionUpdated,
		SessionID:  sid,
		QuestionID: uuid.New(),
		Status:     models.StatusApproved,
		Moderator:  map[string]string{"text": "raw"},
	})
	if _, ok := tryRecv(mod); !ok {
		t.Fatal("moderator should receive moderator-only update")
	}
	if _, ok := tryRecv(part); ok {
		t.Fatal("participant must not receive moderator-only update")
	}

	// Session-level events have no status gate.
	hub.Publish(Event{
		Name:        EventSessionEnded,
		SessionID:   sid,
		Moderator:   map[string]string{},
		Participant: map[string]string{},
	})
	if _, ok := tryRecv(part); !ok {
		t.Fatal("participant should receive session-level event")
	}
}

func TestPublishSessionIsolation(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	a, b := uuid.New(), uuid.New()
	inA := newTestClient(a, models.RoleModerator, 8)
	inB := newTestClient(b, models.RoleModerator, 8)
	hub.Register(inA)
	hub.Register(inB)

	hub.Publish(Event{
		Name:      EventVotingStateChanged,
		SessionID: a,
		Moderator: map[string]bool{"voting_enabled": false},
	})
	if _, ok := tryRecv(inA); !ok {
		t.Fatal("session A client should receive its event")
	}
	if _, ok := tryRecv(inB); ok {
		t.Fatal("session B client must not receive session A events")
	}
}

func TestSlowSubscriberDropped(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	sid := uuid.New()
	slow := newTestClient(sid, models.RoleModerator, 1)
	healthy := newTestClient(sid, models.RoleModerator, 8)
	hub.Register(slow)
	hub.Register(healthy)

	ev := Event{
		Name:      EventVoteUpdated,
		SessionID: sid,
		Status:    models.StatusApproved,
		Moderator: map[string]int{"vote_count": 1},
	}
	hub.Publish(ev) // fills slow's buffer
	hub.Publish(ev) // overflows: slow is dropped

	if got := hub.SubscriberCount(sid); got != 1 {
		t.Fatalf("subscriber count = %d, want 1 after drop", got)
	}
	// The healthy client saw both events.
	for i := 0; i < 2; i++ {
		if _, ok := tryRecv(healthy); !ok {
			t.Fatalf("healthy client missing event %d", i)
		}
	}
	// The dropped client must have been signalled to shut down.
	select {
	case <-slow.done:
	default:
		t.Fatal("dropped client was not shut down")
	}
}

func TestPublishToDisconnectingClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	sid := uuid.New()
	leaving := newTestClient(sid, models.RoleModerator, 8)
	healthy := newTestClient(sid, models.RoleParticipant, 8)
	hub.Register(leaving)
	hub.Register(healthy)

	// Disconnect lands between the subscriber snapshot and the send:
	// shutdown has run but the client is still in the registry. Publish
	// must drop it cleanly instead of panicking.
	leaving.shutdown()
	hub.Publish(Event{
		Name:        EventQuestionUpdated,
		SessionID:   sid,
		QuestionID:  uuid.New(),
		Status:      models.StatusApproved,
		Moderator:   map[string]string{"text": "raw"},
		Participant: map[string]string{"text": "censored"},
	})

	if _, ok := tryRecv(healthy); !ok {
		t.Fatal("healthy client should still receive the event")
	}
	if got := hub.SubscriberCount(sid); got != 1 {
		t.Fatalf("subscriber count = %d, want 1 after drop", got)
	}
}

func TestSubscribeRetriedAfterFailure(t *testing.T) {
	ps := newFakePubSub()
	ps.failSubscribe = true
	hub := NewHub(zap.NewNop(), ps, ps)
	sid := uuid.New()
	c1 := newTestClient(sid, models.RoleModerator, 8)
	c2 := newTestClient(sid, models.RoleParticipant, 8)

	hub.Register(c1)
	ps.mu.Lock()
	subs := len(ps.handlers)
	ps.failSubscribe = false
	ps.mu.Unlock()
	if subs != 0 {
		t.Fatalf("expected no subscription after failure, got %d", subs)
	}

	// The next Register for the session re-attempts the subscription.
	hub.Register(c2)
	ps.mu.Lock()
	subs = len(ps.handlers)
	ps.mu.Unlock()
	if subs != 1 {
		t.Fatalf("expected subscription after retry, got %d", subs)
	}

	hub.Publish(Event{
		Name:        EventSessionEnded,
		SessionID:   sid,
		Moderator:   map[string]string{},
		Participant: map[string]string{},
	})
	if _, ok := tryRecv(c1); !ok {
		t.Fatal("first client should receive events once the retry succeeds")
	}
	if _, ok := tryRecv(c2); !ok {
		t.Fatal("second client should receive events")
	}
}

func TestPublishThroughBridge(t *testing.T) {
	ps := newFakePubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	sid := uuid.New()
	mod := newTestClient(sid, models.RoleModerator, 8)
	hub.Register(mod)

	hub.Publish(Event{
		Name:      EventQuestionCreated,
		SessionID: sid,
		Status:    models.StatusApproved,
		Moderator: map[string]string{"text": "hi"},
	})
	if _, ok := tryRecv(mod); !ok {
		t.Fatal("event should loop back through the bridge")
	}
}

func TestPublishBridgeFailureFallsBackLocally(t *testing.T) {
	ps := newFakePubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	sid := uuid.New()
	mod := newTestClient(sid, models.RoleModerator, 8)
	hub.Register(mod)

	ps.fail = true
	hub.Publish(Event{
		Name:      EventQuestionCreated,
		SessionID: sid,
		Status:    models.StatusApproved,
		Moderator: map[string]string{"text": "hi"},
	})
	if _, ok := tryRecv(mod); !ok {
		t.Fatal("local subscribers should still receive on bridge failure")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	ps := newFakePubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	sid := uuid.New()
	c1 := newTestClient(sid, models.RoleModerator, 8)
	c2 := newTestClient(sid, models.RoleParticipant, 8)

	hub.Register(c1)
	hub.Register(c2)
	ps.mu.Lock()
	subs := len(ps.handlers)
	ps.mu.Unlock()
	if subs != 1 {
		t.Fatalf("expected one shared subscription, got %d", subs)
	}

	hub.Unregister(c1)
	ps.mu.Lock()
	cancelled := ps.cancelled
	ps.mu.Unlock()
	if cancelled != 0 {
		t.Fatal("subscription cancelled while clients remain")
	}

	hub.Unregister(c2)
	ps.mu.Lock()
	cancelled = ps.cancelled
	ps.mu.Unlock()
	if cancelled != 1 {
		t.Fatalf("expected subscription cancel after last client, got %d", cancelled)
	}
}
