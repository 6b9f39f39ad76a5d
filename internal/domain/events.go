package domain

import (
	"encoding/json"
	"fmt"
)

// Имена событий, рассылаемых после каждой мутации заказа.
const (
	EventOrderCreated           = "order.created"
	EventOrderUpdated           = "order.updated"
	EventOrderDeleted           = "order.deleted"
	EventOrderItemStatusUpdated = "order.item.status_updated"
	EventOrderItemDeleted       = "order.item.deleted"
	EventOrderItemAssigned      = "order.item.assigned"
	EventTableStatusUpdated     = "table.status_updated"
)

// Типы агрегатов для outbox-сообщений.
const (
	AggregateOrder = "order"
	AggregateTable = "table"
)

// KnownEventTypes перечисляет все рассылаемые типы событий.
func KnownEventTypes() []string {
	return []string{
		EventOrderCreated,
		EventOrderUpdated,
		EventOrderDeleted,
		EventOrderItemStatusUpdated,
		EventOrderItemDeleted,
		EventOrderItemAssigned,
		EventTableStatusUpdated,
	}
}

// IsKnownEventType проверяет, что тип события принадлежит системе.
func IsKnownEventType(eventType string) bool {
	for _, known := range KnownEventTypes() {
		if eventType == known {
			return true
		}
	}
	return false
}

// IsKnownAggregate проверяет тип агрегата outbox-сообщения.
func IsKnownAggregate(aggregateType string) bool {
	return aggregateType == AggregateOrder || aggregateType == AggregateTable
}

// DefaultTenant используется, когда multi-tenancy не настроен.
const DefaultTenant = "default"

// RoleRoom строит ключ комнаты рассылки для роли в рамках tenant.
// Подписчик попадает в комнату при подключении и не мигрирует между комнатами.
func RoleRoom(role Role, tenant string) string {
	if tenant == "" {
		tenant = DefaultTenant
	}
	return fmt.Sprintf("%s:%s", tenant, role)
}

// UserRoom строит ключ персональной комнаты сотрудника — в неё приходят
// адресные уведомления вроде order.item.assigned.
func UserRoom(tenant, userID string) string {
	if tenant == "" {
		tenant = DefaultTenant
	}
	return fmt.Sprintf("%s:user:%s", tenant, userID)
}

// EventEnvelope — полезная нагрузка outbox-сообщения: список комнат
// и сериализованные данные события.
type EventEnvelope struct {
	Rooms []string        `json:"rooms"`
	Data  json.RawMessage `json:"data"`
}

// NewEventPayload упаковывает данные события вместе с адресами комнат.
func NewEventPayload(rooms []string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return json.Marshal(EventEnvelope{Rooms: rooms, Data: raw})
}

// DecodeEventPayload разбирает конверт события из outbox-сообщения.
func DecodeEventPayload(payload []byte) (EventEnvelope, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return EventEnvelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	return envelope, nil
}
