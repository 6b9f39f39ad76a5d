package notify

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// Event — уведомление, доставляемое подписчику комнаты.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Subscription — подписка одного клиента на набор комнат.
type Subscription struct {
	id    int64
	rooms []string
	ch    chan Event
}

// C возвращает канал, из которого клиент читает события.
func (s *Subscription) C() <-chan Event { return s.ch }

// Hub рассылает события по комнатам внутри процесса. Комната клиента
// фиксируется при подписке и не меняется до отключения.
type Hub struct {
	mu      sync.RWMutex
	nextID  int64
	rooms   map[string]map[int64]*Subscription
	bufSize int
	log     *logrus.Entry
}

// NewHub создаёт хаб. bufSize задаёт глубину буфера канала подписчика;
// при нуле берётся значение по умолчанию.
func NewHub(bufSize int, logger *logrus.Entry) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		rooms:   make(map[string]map[int64]*Subscription),
		bufSize: bufSize,
		log:     logger,
	}
}

// Subscribe регистрирует клиента в перечисленных комнатах.
func (h *Hub) Subscribe(rooms ...string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:    h.nextID,
		rooms: rooms,
		ch:    make(chan Event, h.bufSize),
	}
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[int64]*Subscription)
			h.rooms[room] = members
		}
		members[sub.id] = sub
	}
	return sub
}

// Unsubscribe снимает подписку и закрывает канал клиента.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for _, room := range sub.rooms {
		members, ok := h.rooms[room]
		if !ok {
			continue
		}
		if _, ok := members[sub.id]; ok {
			delete(members, sub.id)
			removed = true
		}
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if removed {
		close(sub.ch)
	}
}

// Broadcast доставляет событие всем подписчикам перечисленных комнат.
// Клиент, состоящий в нескольких целевых комнатах, получает событие один раз.
// Медленный подписчик событие теряет: доставка не блокируется.
func (h *Hub) Broadcast(rooms []string, eventType string, data json.RawMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := Event{Type: eventType, Data: data}
	seen := make(map[int64]struct{})
	for _, room := range rooms {
		for id, sub := range h.rooms[room] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			select {
			case sub.ch <- event:
			default:
				h.log.WithFields(logrus.Fields{
					"room":  room,
					"event": eventType,
				}).Warn("subscriber buffer full, event dropped")
			}
		}
	}
}

// Publish реализует domain.OutboxPublisher: разбирает конверт события
// и рассылает его по комнатам из конверта.
func (h *Hub) Publish(event domain.OutboxMessage) error {
	envelope, err := domain.DecodeEventPayload(event.Payload)
	if err != nil {
		return err
	}
	h.Broadcast(envelope.Rooms, event.EventType, envelope.Data)
	return nil
}

var _ domain.OutboxPublisher = (*Hub)(nil)
