package lifecycle

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/metrics"
)

// Service описывает операции жизненного цикла заказов.
type Service interface {
	CreateOrder(req CreateOrderRequest) (domain.Order, error)
	GetOrder(id string) (domain.Order, error)
	ListOrders() ([]domain.Order, error)
	// KitchenQueue возвращает активные заказы, в которых остались
	// неготовые позиции; готовые позиции из выдачи исключаются.
	KitchenQueue() ([]domain.Order, error)
	// ReadyItems возвращает все готовые позиции по всем заказам.
	ReadyItems() ([]ReadyItem, error)
	UpdateOrder(id string, req UpdateOrderRequest) (domain.Order, error)
	UpdateOrderItem(itemID string, req UpdateItemRequest) (ItemChange, error)
	RemoveOrderItem(itemID string) error
	RemoveOrder(id string) error
}

// CreateOrderRequest — входные данные создания заказа.
type CreateOrderRequest struct {
	TableID       string
	UserID        string
	CarrierNumber string
	Lines         []domain.OrderLine
}

// UpdateOrderRequest — частичное обновление заказа. Nil-поля не трогаются.
// Если Lines задан, набор позиций заменяется целиком, а Status игнорируется:
// статус заказа выводится из нового набора позиций.
type UpdateOrderRequest struct {
	TableID       *string
	UserID        *string
	CarrierNumber *string
	Status        *domain.OrderStatus
	Lines         []domain.OrderLine
}

// UpdateItemRequest — частичное обновление позиции заказа.
type UpdateItemRequest struct {
	Count       *int32
	Status      *domain.OrderItemStatus
	Description *string
}

// ItemChange описывает результат обновления позиции: какая позиция
// в итоге затронута и была ли она создана или удалена.
type ItemChange struct {
	Item    domain.OrderItem
	Order   domain.Order
	Created bool
	Deleted bool
}

// ReadyItem — готовая позиция вместе с контекстом заказа для выдачи.
type ReadyItem struct {
	Item          domain.OrderItem
	OrderID       string
	TableID       string
	CarrierNumber string
}

type service struct {
	orders  domain.OrderRepository
	tables  domain.TableRepository
	catalog domain.CatalogRepository
	outbox  domain.OutboxRepository
	tenant  string
	logger  *log.Entry
	metrics *metrics.LifecycleMetrics
}

// New создаёт рабочий экземпляр сервиса заказов.
func New(
	orders domain.OrderRepository,
	tables domain.TableRepository,
	catalog domain.CatalogRepository,
	outbox domain.OutboxRepository,
	tenant string,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	if tenant == "" {
		tenant = domain.DefaultTenant
	}
	return &service{
		orders:  orders,
		tables:  tables,
		catalog: catalog,
		outbox:  outbox,
		tenant:  tenant,
		logger:  logger,
		metrics: metrics.NewLifecycleMetrics(),
	}
}

// NewWithoutMetrics создаёт сервис без метрик (для тестов).
func NewWithoutMetrics(
	orders domain.OrderRepository,
	tables domain.TableRepository,
	catalog domain.CatalogRepository,
	outbox domain.OutboxRepository,
	tenant string,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "lifecycle")
	}
	if tenant == "" {
		tenant = domain.DefaultTenant
	}
	return &service{
		orders:  orders,
		tables:  tables,
		catalog: catalog,
		outbox:  outbox,
		tenant:  tenant,
		logger:  logger,
	}
}

// CreateOrder создаёт заказ из корзины. Дубликаты продуктов сливаются в одну
// позицию до каких-либо проверок. Заказ не создаётся, если хотя бы у одного
// продукта нет назначенного повара.
func (s *service) CreateOrder(req CreateOrderRequest) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration("create", time.Since(start))
		}
	}()

	lines := domain.MergeLines(req.Lines)
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}
	if err := s.validateRefs(req.TableID, req.UserID); err != nil {
		return domain.Order{}, err
	}

	items, err := s.buildItems("", lines)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:            uuid.NewString(),
		TableID:       req.TableID,
		UserID:        req.UserID,
		CarrierNumber: req.CarrierNumber,
		Status:        domain.OrderStatusPending,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	order.TotalPriceMinor = domain.TotalPriceMinor(order.Items)
	if status, ok := domain.AggregateItemStatuses(order.ItemStatuses()); ok {
		order.Status = status
	}

	if err := s.orders.Create(order); err != nil {
		return domain.Order{}, err
	}

	// Стол занимается фактом создания заказа; повторное busy не ошибка.
	if order.TableID != "" {
		s.occupyTable(order.TableID)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
		"items":    len(order.Items),
	}).Info("order created")

	s.emitOrderEvent(domain.EventOrderCreated, order)
	s.emitAssignments(order)
	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *service) GetOrder(id string) (domain.Order, error) {
	return s.orders.Get(id)
}

// ListOrders возвращает все заказы, новые первыми.
func (s *service) ListOrders() ([]domain.Order, error) {
	return s.orders.List()
}

// KitchenQueue возвращает заказы, над которыми кухня ещё работает.
func (s *service) KitchenQueue() ([]domain.Order, error) {
	orders, err := s.orders.ListByStatus(domain.OrderStatusPending, domain.OrderStatusCooking)
	if err != nil {
		return nil, err
	}
	queue := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		pending := make([]domain.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			if item.Status != domain.OrderItemStatusReady {
				pending = append(pending, item)
			}
		}
		if len(pending) == 0 {
			continue
		}
		order.Items = pending
		queue = append(queue, order)
	}
	return queue, nil
}

// ReadyItems возвращает готовые позиции вместе с контекстом их заказов.
func (s *service) ReadyItems() ([]ReadyItem, error) {
	items, err := s.orders.ListReadyItems()
	if err != nil {
		return nil, err
	}
	result := make([]ReadyItem, 0, len(items))
	for _, item := range items {
		order, err := s.orders.Get(item.OrderID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !order.Status.IsActive() {
			continue
		}
		result = append(result, ReadyItem{
			Item:          item,
			OrderID:       order.ID,
			TableID:       order.TableID,
			CarrierNumber: order.CarrierNumber,
		})
	}
	return result, nil
}

// UpdateOrder применяет частичное обновление заказа. Если переданы позиции,
// набор заменяется целиком, сумма и статус пересчитываются, а явный статус
// из запроса игнорируется.
func (s *service) UpdateOrder(id string, req UpdateOrderRequest) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration("update", time.Since(start))
		}
	}()

	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}

	previousTable := order.TableID
	previousStatus := order.Status

	if req.TableID != nil {
		order.TableID = *req.TableID
	}
	if req.UserID != nil {
		order.UserID = *req.UserID
	}
	if req.TableID != nil || req.UserID != nil {
		if err := s.validateRefs(order.TableID, order.UserID); err != nil {
			return domain.Order{}, err
		}
	}
	if req.CarrierNumber != nil {
		order.CarrierNumber = *req.CarrierNumber
	}

	replaceItems := req.Lines != nil
	if replaceItems {
		lines := domain.MergeLines(req.Lines)
		if len(lines) == 0 {
			return domain.Order{}, domain.ErrItemsRequired
		}
		items, err := s.buildItems(order.ID, lines)
		if err != nil {
			return domain.Order{}, err
		}
		order.Items = items
		order.TotalPriceMinor = domain.TotalPriceMinor(items)
		if status, ok := domain.AggregateItemStatuses(order.ItemStatuses()); ok {
			order.Status = status
		}
	} else if req.Status != nil {
		if !domain.IsValidOrderStatus(*req.Status) {
			return domain.Order{}, domain.ErrOrderStatusInvalid
		}
		order.Status = *req.Status
	}

	if order.Status == domain.OrderStatusArchive && previousStatus != domain.OrderStatusArchive {
		ended := time.Now().UTC()
		order.EndedAt = &ended
	}

	order.UpdatedAt = time.Now().UTC()

	if replaceItems {
		if err := s.orders.ReplaceItems(order.ID, order.Items, order.TotalPriceMinor, order.Status); err != nil {
			return domain.Order{}, err
		}
		header := order
		header.Items = nil
		// Версия сдвинута заменой позиций: остальные поля шапки пишем поверх.
		fresh, err := s.orders.Get(order.ID)
		if err != nil {
			return domain.Order{}, err
		}
		header.Version = fresh.Version
		if err := s.saveWithRetry(&header); err != nil {
			return domain.Order{}, err
		}
	} else {
		if err := s.saveWithRetry(&order); err != nil {
			return domain.Order{}, err
		}
	}

	s.syncTables(previousTable, order.TableID, previousStatus, order.Status)

	if s.metrics != nil {
		s.metrics.RecordOrderUpdated()
		if previousStatus.IsActive() && !order.Status.IsActive() {
			s.metrics.RecordOrderFinished()
		}
	}

	updated, err := s.orders.Get(order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"status":   updated.Status,
	}).Info("order updated")
	s.emitOrderEvent(domain.EventOrderUpdated, updated)
	if replaceItems {
		s.emitAssignments(updated)
	}
	return updated, nil
}

// UpdateOrderItem применяет частичное обновление позиции.
//
// Смена количества трактуется тремя путями: ноль удаляет позицию, увеличение
// рождает новую позицию-сателлит с дельтой (оригинал с его кухонным прогрессом
// не трогается), уменьшение правит количество на месте. Чистая смена статуса
// обновляет статус и отметку preparedAt.
func (s *service) UpdateOrderItem(itemID string, req UpdateItemRequest) (ItemChange, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration("update_item", time.Since(start))
		}
	}()

	if req.Count == nil && req.Status == nil && req.Description == nil {
		return ItemChange{}, domain.ErrNothingToUpdate
	}
	if req.Status != nil && !domain.IsValidItemStatus(*req.Status) {
		return ItemChange{}, domain.ErrItemStatusInvalid
	}

	item, err := s.orders.GetItem(itemID)
	if err != nil {
		return ItemChange{}, err
	}

	change := ItemChange{Item: item}
	now := time.Now().UTC()

	switch {
	case req.Count != nil && *req.Count == 0:
		if err := s.orders.DeleteItem(item.ID); err != nil {
			return ItemChange{}, err
		}
		change.Deleted = true
		s.emitItemEvent(domain.EventOrderItemDeleted, item)

	case req.Count != nil && *req.Count > item.Count:
		// Кухня могла уже взять оригинал в работу: дельта оформляется
		// отдельной позицией со статусом PENDING.
		delta := *req.Count - item.Count
		sibling := domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			Count:       delta,
			Description: item.Description,
			Status:      domain.OrderItemStatusPending,
			CreatedAt:   now,
			Product:     item.Product,
		}
		if req.Description != nil {
			sibling.Description = *req.Description
		}
		if err := s.orders.InsertItem(sibling); err != nil {
			return ItemChange{}, err
		}
		change.Item = sibling
		change.Created = true
		s.emitItemEvent(domain.EventOrderItemAssigned, sibling)

	case req.Count != nil && *req.Count < 0:
		return ItemChange{}, domain.ErrItemCountInvalid

	default:
		if req.Count != nil {
			item.Count = *req.Count
		}
		if req.Description != nil {
			item.Description = *req.Description
		}
		if req.Status != nil && *req.Status != item.Status {
			item.Status = *req.Status
			// preparedAt живёт ровно столько, сколько позиция числится готовой.
			if item.Status == domain.OrderItemStatusReady {
				prepared := now
				item.PreparedAt = &prepared
			} else {
				item.PreparedAt = nil
			}
			if s.metrics != nil {
				s.metrics.RecordItemTransition(string(item.Status))
			}
		}
		if err := s.orders.UpdateItem(item); err != nil {
			return ItemChange{}, err
		}
		change.Item = item
		if req.Status != nil {
			s.emitItemEvent(domain.EventOrderItemStatusUpdated, item)
		}
	}

	order, err := s.recomputeDerived(item.OrderID)
	if err != nil {
		return ItemChange{}, err
	}
	change.Order = order
	s.emitOrderEvent(domain.EventOrderUpdated, order)
	return change, nil
}

// RemoveOrderItem удаляет одну позицию и пересчитывает заказ.
func (s *service) RemoveOrderItem(itemID string) error {
	item, err := s.orders.GetItem(itemID)
	if err != nil {
		return err
	}
	if err := s.orders.DeleteItem(itemID); err != nil {
		return err
	}
	s.emitItemEvent(domain.EventOrderItemDeleted, item)

	order, err := s.recomputeDerived(item.OrderID)
	if err != nil {
		return err
	}
	s.emitOrderEvent(domain.EventOrderUpdated, order)
	return nil
}

// RemoveOrder каскадно удаляет заказ и освобождает стол, если на нём не
// осталось активных заказов.
func (s *service) RemoveOrder(id string) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration("delete", time.Since(start))
		}
	}()

	order, err := s.orders.Get(id)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(id); err != nil {
		return err
	}

	if order.TableID != "" {
		s.releaseTableIfFree(order.TableID)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted()
		if order.Status.IsActive() {
			s.metrics.RecordOrderFinished()
		}
	}
	s.logger.WithField("order_id", id).Info("order deleted")
	s.emitOrderEvent(domain.EventOrderDeleted, order)
	return nil
}

// validateRefs проверяет, что указанные стол и сотрудник существуют.
// Пустая ссылка допустима: заказ может жить без стола (самовывоз) и без
// привязки к официанту.
func (s *service) validateRefs(tableID, userID string) error {
	if tableID != "" {
		if _, err := s.tables.Get(tableID); err != nil {
			return err
		}
	}
	if userID != "" {
		if _, err := s.catalog.GetUser(userID); err != nil {
			return err
		}
	}
	return nil
}

// buildItems превращает строки корзины в позиции, подтягивая карточки
// продуктов. Все продукты проверяются до создания первой позиции.
func (s *service) buildItems(orderID string, lines []domain.OrderLine) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Count <= 0 {
			return nil, domain.ErrItemCountInvalid
		}
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.ListProductsByIDs(ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, domain.ErrProductNotFound
		}
		if product.AssignedToID == "" {
			return nil, domain.ErrNoKitchenStaff
		}
		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     orderID,
			ProductID:   product.ID,
			Count:       line.Count,
			Description: line.Description,
			Status:      domain.OrderItemStatusPending,
			CreatedAt:   now,
			Product:     product,
		})
	}
	return items, nil
}

// recomputeDerived перечитывает заказ и заново выводит сумму и статус из
// текущего набора позиций. Производные поля никогда не патчатся инкрементально.
func (s *service) recomputeDerived(orderID string) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order.TotalPriceMinor = domain.TotalPriceMinor(order.Items)
	// Архивный заказ из item-агрегации исключён.
	if order.Status != domain.OrderStatusArchive {
		if status, ok := domain.AggregateItemStatuses(order.ItemStatuses()); ok {
			order.Status = status
		}
	}
	order.UpdatedAt = time.Now().UTC()

	if err := s.saveWithRetry(&order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// saveWithRetry сохраняет шапку заказа с retry и exponential backoff при
// version conflict.
func (s *service) saveWithRetry(order *domain.Order) error {
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		prevVersion := order.Version
		err := s.orders.Save(*order)
		if err == nil {
			order.Version = prevVersion + 1
			return nil
		}
		if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
			s.logger.WithFields(log.Fields{
				"order_id": order.ID,
				"attempt":  attempt + 1,
				"version":  order.Version,
			}).Warn("version conflict detected, retrying")

			fresh, loadErr := s.orders.Get(order.ID)
			if loadErr != nil {
				return loadErr
			}
			// Переносим вычисленные поля поверх свежей версии.
			fresh.TableID = order.TableID
			fresh.UserID = order.UserID
			fresh.CarrierNumber = order.CarrierNumber
			fresh.Status = order.Status
			fresh.TotalPriceMinor = order.TotalPriceMinor
			fresh.EndedAt = order.EndedAt
			fresh.UpdatedAt = order.UpdatedAt
			fresh.Items = nil
			*order = fresh

			time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
			continue
		}
		return err
	}
	return domain.ErrOrderVersionConflict
}

// occupyTable помечает стол занятым и рассылает событие, если статус сменился.
func (s *service) occupyTable(tableID string) {
	table, err := s.tables.Get(tableID)
	if err != nil {
		s.logger.WithError(err).WithField("table_id", tableID).Warn("table lookup failed")
		return
	}
	if table.Status == domain.TableStatusBusy {
		return
	}
	if err := s.tables.SetStatus(tableID, domain.TableStatusBusy); err != nil {
		s.logger.WithError(err).WithField("table_id", tableID).Error("failed to mark table busy")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTableBusy()
	}
	s.emitTableEvent(tableID, domain.TableStatusBusy)
}

// releaseTableIfFree освобождает стол, только если активных заказов на нём
// не осталось.
func (s *service) releaseTableIfFree(tableID string) {
	count, err := s.orders.CountActiveByTable(tableID)
	if err != nil {
		s.logger.WithError(err).WithField("table_id", tableID).Error("failed to count active orders")
		return
	}
	if count > 0 {
		return
	}
	table, err := s.tables.Get(tableID)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WithError(err).WithField("table_id", tableID).Warn("table lookup failed")
		}
		return
	}
	if table.Status == domain.TableStatusEmpty {
		return
	}
	if err := s.tables.SetStatus(tableID, domain.TableStatusEmpty); err != nil {
		s.logger.WithError(err).WithField("table_id", tableID).Error("failed to free table")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTableFreed()
	}
	s.emitTableEvent(tableID, domain.TableStatusEmpty)
}

// syncTables согласует занятость столов после обновления заказа.
func (s *service) syncTables(previousTable, currentTable string, previousStatus, currentStatus domain.OrderStatus) {
	if previousTable != currentTable {
		if currentTable != "" && currentStatus.IsActive() {
			s.occupyTable(currentTable)
		}
		if previousTable != "" {
			s.releaseTableIfFree(previousTable)
		}
		return
	}
	if currentTable == "" {
		return
	}
	if previousStatus.IsActive() && !currentStatus.IsActive() {
		s.releaseTableIfFree(currentTable)
	}
}
