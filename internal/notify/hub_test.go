package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

func TestHub_BroadcastToRooms(t *testing.T) {
	hub := NewHub(4, nil)

	kitchen := hub.Subscribe(domain.RoleRoom(domain.RoleKitchen, ""))
	waiter := hub.Subscribe(domain.RoleRoom(domain.RoleWaiter, ""))
	defer hub.Unsubscribe(kitchen)
	defer hub.Unsubscribe(waiter)

	hub.Broadcast([]string{domain.RoleRoom(domain.RoleKitchen, "")}, domain.EventOrderCreated, json.RawMessage(`{"id":"order-1"}`))

	select {
	case event := <-kitchen.C():
		if event.Type != domain.EventOrderCreated {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	default:
		t.Fatal("kitchen subscriber did not receive the event")
	}

	select {
	case event := <-waiter.C():
		t.Fatalf("waiter must not receive kitchen event, got %q", event.Type)
	default:
	}
}

func TestHub_DeliversOncePerSubscriber(t *testing.T) {
	hub := NewHub(4, nil)

	// Подписчик состоит в обеих целевых комнатах.
	sub := hub.Subscribe(
		domain.RoleRoom(domain.RoleKitchen, ""),
		domain.UserRoom("", "user-1"),
	)
	defer hub.Unsubscribe(sub)

	hub.Broadcast(
		[]string{domain.RoleRoom(domain.RoleKitchen, ""), domain.UserRoom("", "user-1")},
		domain.EventOrderItemAssigned,
		json.RawMessage(`{}`),
	)

	received := 0
	for {
		select {
		case <-sub.C():
			received++
			continue
		default:
		}
		break
	}
	if received != 1 {
		t.Fatalf("expected exactly one delivery, got %d", received)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(1, nil)

	room := domain.RoleRoom(domain.RoleWaiter, "")
	sub := hub.Subscribe(room)
	defer hub.Unsubscribe(sub)

	// Второе событие переполняет буфер и должно быть отброшено без блокировки.
	hub.Broadcast([]string{room}, domain.EventOrderCreated, json.RawMessage(`{}`))
	hub.Broadcast([]string{room}, domain.EventOrderUpdated, json.RawMessage(`{}`))

	event := <-sub.C()
	if event.Type != domain.EventOrderCreated {
		t.Fatalf("expected first event to survive, got %q", event.Type)
	}
	select {
	case event := <-sub.C():
		t.Fatalf("expected overflow event to be dropped, got %q", event.Type)
	default:
	}
}

func TestHub_PublishDecodesEnvelope(t *testing.T) {
	hub := NewHub(4, nil)

	room := domain.RoleRoom(domain.RoleCashier, "")
	sub := hub.Subscribe(room)
	defer hub.Unsubscribe(sub)

	payload, err := domain.NewEventPayload([]string{room}, map[string]string{"id": "order-1"})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if err := hub.Publish(domain.OutboxMessage{EventType: domain.EventOrderUpdated, Payload: payload}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-sub.C():
		if event.Type != domain.EventOrderUpdated {
			t.Fatalf("unexpected event type %q", event.Type)
		}
	default:
		t.Fatal("subscriber did not receive published event")
	}

	if err := hub.Publish(domain.OutboxMessage{EventType: "bad", Payload: []byte("not-json")}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(domain.OutboxMessage) error {
	s.calls++
	return s.err
}

func TestFanout_PublishesToAll(t *testing.T) {
	first := &stubPublisher{}
	second := &stubPublisher{err: errors.New("broker down")}

	pub := NewFanout(first, second)
	err := pub.Publish(domain.OutboxMessage{EventType: domain.EventOrderCreated})
	if err == nil {
		t.Fatal("expected error from failing publisher")
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected both publishers called, got %d and %d", first.calls, second.calls)
	}
}
