package lifecycle

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// orderView — форма заказа в полезной нагрузке события.
type orderView struct {
	ID            string     `json:"id"`
	TableID       string     `json:"tableId,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	CarrierNumber string     `json:"carrierNumber,omitempty"`
	Status        string     `json:"status"`
	TotalPrice    int64      `json:"totalPrice"`
	Items         []itemView `json:"orderItems"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// itemView — форма позиции в полезной нагрузке события.
type itemView struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName,omitempty"`
	Count       int32      `json:"count"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	PreparedAt  *time.Time `json:"preparedAt,omitempty"`
}

func toOrderView(order domain.Order) orderView {
	items := make([]itemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, toItemView(item))
	}
	return orderView{
		ID:            order.ID,
		TableID:       order.TableID,
		UserID:        order.UserID,
		CarrierNumber: order.CarrierNumber,
		Status:        string(order.Status),
		TotalPrice:    order.TotalPriceMinor,
		Items:         items,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toItemView(item domain.OrderItem) itemView {
	return itemView{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.Product.Name,
		Count:       item.Count,
		Description: item.Description,
		Status:      string(item.Status),
		PreparedAt:  item.PreparedAt,
	}
}

// staffRooms — комнаты ролей, получающие события заказов.
func (s *service) staffRooms() []string {
	return []string{
		domain.RoleRoom(domain.RoleAdmin, s.tenant),
		domain.RoleRoom(domain.RoleWaiter, s.tenant),
		domain.RoleRoom(domain.RoleKitchen, s.tenant),
		domain.RoleRoom(domain.RoleCashier, s.tenant),
	}
}

// emitOrderEvent ставит событие заказа в outbox. Ошибка постановки логируется,
// но операцию не проваливает: публикация вторична к уже зафиксированной записи.
func (s *service) emitOrderEvent(eventType string, order domain.Order) {
	s.emit(eventType, domain.AggregateOrder, order.ID, s.staffRooms(), toOrderView(order))
}

// emitItemEvent ставит событие позиции в outbox. Назначенный повар получает
// событие и в персональную комнату.
func (s *service) emitItemEvent(eventType string, item domain.OrderItem) {
	rooms := s.staffRooms()
	if item.Product.AssignedToID != "" {
		rooms = append(rooms, domain.UserRoom(s.tenant, item.Product.AssignedToID))
	}
	s.emit(eventType, domain.AggregateOrder, item.OrderID, rooms, toItemView(item))
}

// emitTableEvent ставит событие смены занятости стола в outbox.
func (s *service) emitTableEvent(tableID string, status domain.TableStatus) {
	payload := map[string]string{
		"id":     tableID,
		"status": string(status),
	}
	rooms := []string{
		domain.RoleRoom(domain.RoleAdmin, s.tenant),
		domain.RoleRoom(domain.RoleWaiter, s.tenant),
	}
	s.emit(domain.EventTableStatusUpdated, domain.AggregateTable, tableID, rooms, payload)
}

func (s *service) emit(eventType, aggregateType, aggregateID string, rooms []string, data any) {
	payload, err := domain.NewEventPayload(rooms, data)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"aggregate_id": aggregateID,
			"event":        eventType,
		}).Error("marshal event failed")
		return
	}
	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"aggregate_id": aggregateID,
			"event":        eventType,
		}).Error("enqueue event failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

// emitAssignments рассылает персональные уведомления поварам по позициям
// свежесозданного или заменённого набора.
func (s *service) emitAssignments(order domain.Order) {
	for _, item := range order.Items {
		if item.Product.AssignedToID == "" {
			continue
		}
		s.emitItemEvent(domain.EventOrderItemAssigned, item)
	}
}
