package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
// Заказы и позиции хранятся раздельно, как в реляционной схеме: позиции
// индексируются и по собственному ID, и по ID заказа.
type orderRepositoryInMemory struct {
	mu          sync.RWMutex
	orders      map[string]domain.Order
	items       map[string]domain.OrderItem
	itemsByOrd  map[string][]string
	itemOrderOf map[string]string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() *orderRepositoryInMemory {
	return &orderRepositoryInMemory{
		orders:      make(map[string]domain.Order),
		items:       make(map[string]domain.OrderItem),
		itemsByOrd:  make(map[string][]string),
		itemOrderOf: make(map[string]string),
	}
}

// Create атомарно сохраняет заказ вместе с начальными позициями.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}

	items := order.Items
	// Шапка хранится без позиций, позиции — в собственном индексе.
	order.Items = nil
	r.orders[order.ID] = order
	for _, item := range items {
		item.OrderID = order.ID
		r.insertItemLocked(item)
	}
	return nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getLocked(id)
}

// List возвращает все заказы, новые первыми.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.orders))
	for id := range r.orders {
		order, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	sortOrders(result)
	return result, nil
}

// ListByStatus возвращает заказы в одном из перечисленных статусов.
func (r *orderRepositoryInMemory) ListByStatus(statuses ...domain.OrderStatus) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[domain.OrderStatus]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	result := make([]domain.Order, 0, len(r.orders))
	for id, order := range r.orders {
		if _, ok := wanted[order.Status]; !ok {
			continue
		}
		full, err := r.getLocked(id)
		if err != nil {
			return nil, err
		}
		result = append(result, full)
	}
	sortOrders(result)
	return result, nil
}

// Save перезаписывает шапку заказа, проверяя версию (optimistic locking).
// Позиции этим методом не трогаются.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	order.Version++
	order.Items = nil
	r.orders[order.ID] = order
	return nil
}

// ReplaceItems атомарно заменяет все позиции заказа новым набором и
// записывает пересчитанные сумму и статус.
func (r *orderRepositoryInMemory) ReplaceItems(orderID string, items []domain.OrderItem, totalMinor int64, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for _, itemID := range r.itemsByOrd[orderID] {
		delete(r.items, itemID)
		delete(r.itemOrderOf, itemID)
	}
	r.itemsByOrd[orderID] = nil
	for _, item := range items {
		item.OrderID = orderID
		r.insertItemLocked(item)
	}

	order.TotalPriceMinor = totalMinor
	order.Status = status
	order.Version++
	r.orders[orderID] = order
	return nil
}

// Delete каскадно удаляет заказ вместе с позициями.
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	for _, itemID := range r.itemsByOrd[id] {
		delete(r.items, itemID)
		delete(r.itemOrderOf, itemID)
	}
	delete(r.itemsByOrd, id)
	delete(r.orders, id)
	return nil
}

// CountActiveByTable возвращает число активных заказов на столе.
func (r *orderRepositoryInMemory) CountActiveByTable(tableID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, order := range r.orders {
		if order.TableID == tableID && order.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

// GetItem возвращает позицию или ErrOrderItemNotFound.
func (r *orderRepositoryInMemory) GetItem(itemID string) (domain.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return domain.OrderItem{}, domain.ErrOrderItemNotFound
	}
	return item, nil
}

// InsertItem добавляет позицию к существующему заказу.
func (r *orderRepositoryInMemory) InsertItem(item domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[item.OrderID]; !ok {
		return domain.ErrOrderNotFound
	}
	r.insertItemLocked(item)
	return nil
}

// UpdateItem перезаписывает позицию целиком.
func (r *orderRepositoryInMemory) UpdateItem(item domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrOrderItemNotFound
	}
	r.items[item.ID] = item
	return nil
}

// DeleteItem удаляет одну позицию.
func (r *orderRepositoryInMemory) DeleteItem(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return domain.ErrOrderItemNotFound
	}
	delete(r.items, itemID)
	delete(r.itemOrderOf, itemID)

	ids := r.itemsByOrd[item.OrderID]
	for i, id := range ids {
		if id == itemID {
			r.itemsByOrd[item.OrderID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// ListReadyItems возвращает все позиции в статусе READY по всем заказам.
func (r *orderRepositoryInMemory) ListReadyItems() ([]domain.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OrderItem, 0)
	for _, item := range r.items {
		if item.Status == domain.OrderItemStatusReady {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *orderRepositoryInMemory) insertItemLocked(item domain.OrderItem) {
	r.items[item.ID] = item
	r.itemsByOrd[item.OrderID] = append(r.itemsByOrd[item.OrderID], item.ID)
	r.itemOrderOf[item.ID] = item.OrderID
}

func (r *orderRepositoryInMemory) getLocked(id string) (domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	items := make([]domain.OrderItem, 0, len(r.itemsByOrd[id]))
	for _, itemID := range r.itemsByOrd[id] {
		items = append(items, r.items[itemID])
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	order.Items = items
	return order, nil
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
