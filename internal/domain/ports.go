package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов и их позиций.
// Все многострочные записи транзакционны: либо применяются целиком, либо никак.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе с начальными позициями.
	Create(order Order) error
	// Get возвращает заказ с позициями (и карточками продуктов) или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает все заказы, новые первыми.
	List() ([]Order, error)
	// ListByStatus возвращает заказы в одном из перечисленных статусов.
	ListByStatus(statuses ...OrderStatus) ([]Order, error)
	// Save применяет обновления к шапке заказа (стол, статус, сумма и т.д.)
	// с учётом optimistic locking.
	Save(order Order) error
	// ReplaceItems атомарно удаляет все позиции заказа, вставляет новый набор
	// и записывает пересчитанные сумму и статус.
	ReplaceItems(orderID string, items []OrderItem, totalMinor int64, status OrderStatus) error
	// Delete каскадно удаляет заказ вместе с позициями.
	Delete(id string) error
	// CountActiveByTable возвращает число активных заказов на столе.
	CountActiveByTable(tableID string) (int, error)

	// GetItem возвращает позицию с карточкой продукта или ErrOrderItemNotFound.
	GetItem(itemID string) (OrderItem, error)
	// InsertItem добавляет позицию к существующему заказу.
	InsertItem(item OrderItem) error
	// UpdateItem перезаписывает количество, описание, статус и preparedAt позиции.
	UpdateItem(item OrderItem) error
	// DeleteItem удаляет одну позицию.
	DeleteItem(itemID string) error
	// ListReadyItems возвращает все позиции в статусе READY по всем заказам.
	ListReadyItems() ([]OrderItem, error)
}

// CatalogRepository описывает хранилище справочников: продукты, категории, сотрудники.
type CatalogRepository interface {
	CreateProduct(product Product) error
	GetProduct(id string) (Product, error)
	// ListProducts возвращает продукты в порядке display index.
	ListProducts() ([]Product, error)
	// ListProductsByIDs возвращает карту id → продукт для перечисленных идентификаторов.
	ListProductsByIDs(ids []string) (map[string]Product, error)
	SaveProduct(product Product) error
	DeleteProduct(id string) error
	// SwapProductIndices транзакционно меняет местами display index двух продуктов.
	SwapProductIndices(id1, id2 string) error

	CreateCategory(category Category) error
	GetCategory(id string) (Category, error)
	ListCategories() ([]Category, error)
	SaveCategory(category Category) error
	DeleteCategory(id string) error

	CreateUser(user User) error
	GetUser(id string) (User, error)
	// ListUsers возвращает сотрудников; пустая роль означает всех.
	ListUsers(role Role) ([]User, error)
}

// TableRepository описывает хранилище столов.
type TableRepository interface {
	// Create сохраняет стол; ErrTableNumberTaken при коллизии номера.
	Create(table Table) error
	Get(id string) (Table, error)
	GetByNumber(number string) (Table, error)
	List() ([]Table, error)
	Save(table Table) error
	Delete(id string) error
	// SetStatus выставляет занятость стола. Идемпотентно.
	SetStatus(id string, status TableStatus) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher публикует события из transactional outbox.
// Реализации: in-process хаб комнат и Kafka-паблишер.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
