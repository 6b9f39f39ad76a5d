package integration

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/notify"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
	"github.com/vladislavdragonenkov/resto/internal/service/outbox"
	"github.com/vladislavdragonenkov/resto/internal/storage/memory"
)

// OrderLifecycleTestSuite тестирует полный жизненный цикл заказа: корзина,
// кухня, выдача, архив — вместе с рассылкой событий через outbox и хаб.
type OrderLifecycleTestSuite struct {
	suite.Suite
	service lifecycle.Service
	orders  domain.OrderRepository
	tables  domain.TableRepository
	outbox  domain.OutboxRepository
	hub     *notify.Hub
	worker  *outbox.Worker
}

func (suite *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	ordersRepo := memory.NewOrderRepository()
	catalogRepo := memory.NewCatalogRepository()
	tablesRepo := memory.NewTableRepository()
	outboxRepo := memory.NewOutboxRepository()

	now := time.Now().UTC()
	require.NoError(suite.T(), catalogRepo.CreateUser(domain.User{
		ID: "cook-1", Username: "cook", Role: domain.RoleKitchen, CreatedAt: now,
	}))
	require.NoError(suite.T(), catalogRepo.CreateUser(domain.User{
		ID: "waiter-1", Username: "waiter", Role: domain.RoleWaiter, CreatedAt: now,
	}))
	require.NoError(suite.T(), catalogRepo.CreateProduct(domain.Product{
		ID: "prod-lagman", Name: "Лагман", PriceMinor: 15000,
		AssignedToID: "cook-1", Index: 1, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(suite.T(), catalogRepo.CreateProduct(domain.Product{
		ID: "prod-plov", Name: "Плов", PriceMinor: 20000,
		AssignedToID: "cook-1", Index: 2, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(suite.T(), tablesRepo.Create(domain.Table{
		ID: "table-1", Number: "1", Status: domain.TableStatusEmpty, CreatedAt: now,
	}))

	suite.orders = ordersRepo
	suite.tables = tablesRepo
	suite.outbox = outboxRepo
	suite.hub = notify.NewHub(64, logger)
	suite.service = lifecycle.NewWithoutMetrics(
		ordersRepo, tablesRepo, catalogRepo, outboxRepo, "", logger,
	)
	suite.worker = outbox.NewWorker(outboxRepo, suite.hub, outbox.WithLogger(logger))
}

// drainOutbox прогоняет воркер до пустого backlog.
func (suite *OrderLifecycleTestSuite) drainOutbox() {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		suite.worker.ProcessOnce(ctx)
		stats, err := suite.outbox.Stats()
		require.NoError(suite.T(), err)
		if stats.PendingCount == 0 {
			return
		}
	}
	suite.T().Fatal("outbox backlog did not drain")
}

func collectEvents(sub *notify.Subscription) []notify.Event {
	var events []notify.Event
	for {
		select {
		case event := <-sub.C():
			events = append(events, event)
		default:
			return events
		}
	}
}

func (suite *OrderLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	kitchenSub := suite.hub.Subscribe(domain.RoleRoom(domain.RoleKitchen, domain.DefaultTenant))
	defer suite.hub.Unsubscribe(kitchenSub)

	// 1. Создаём заказ: дубликаты продукта схлопываются, сумма производная.
	order, err := suite.service.CreateOrder(lifecycle.CreateOrderRequest{
		TableID: "table-1",
		UserID:  "waiter-1",
		Lines: []domain.OrderLine{
			{ProductID: "prod-lagman", Count: 1},
			{ProductID: "prod-lagman", Count: 1, Description: "без лука"},
			{ProductID: "prod-plov", Count: 1},
		},
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), order.Items, 2)
	require.Equal(suite.T(), int64(50000), order.TotalPriceMinor)
	require.Equal(suite.T(), domain.OrderStatusPending, order.Status)

	table, err := suite.tables.Get("table-1")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.TableStatusBusy, table.Status)

	suite.drainOutbox()
	events := collectEvents(kitchenSub)
	require.NotEmpty(suite.T(), events)
	require.Equal(suite.T(), domain.EventOrderCreated, events[0].Type)

	// 2. Кухня готовит: каждая позиция проходит COOKING → READY.
	for _, item := range order.Items {
		cooking := domain.OrderItemStatusCooking
		_, err := suite.service.UpdateOrderItem(item.ID, lifecycle.UpdateItemRequest{Status: &cooking})
		require.NoError(suite.T(), err)
	}

	updated, err := suite.service.GetOrder(order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusCooking, updated.Status)

	for _, item := range updated.Items {
		ready := domain.OrderItemStatusReady
		change, err := suite.service.UpdateOrderItem(item.ID, lifecycle.UpdateItemRequest{Status: &ready})
		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), change.Item.PreparedAt)
	}

	updated, err = suite.service.GetOrder(order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusReady, updated.Status)

	readyItems, err := suite.service.ReadyItems()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), readyItems, 2)
	require.Equal(suite.T(), "table-1", readyItems[0].TableID)

	// 3. Заказ закрывается, стол освобождается.
	archive := domain.OrderStatusArchive
	archived, err := suite.service.UpdateOrder(order.ID, lifecycle.UpdateOrderRequest{Status: &archive})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.OrderStatusArchive, archived.Status)
	require.NotNil(suite.T(), archived.EndedAt)

	table, err = suite.tables.Get("table-1")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.TableStatusEmpty, table.Status)

	suite.drainOutbox()
	events = collectEvents(kitchenSub)
	require.NotEmpty(suite.T(), events)
}

func (suite *OrderLifecycleTestSuite) TestRejectedOrderLeavesNoTrace() {
	_, err := suite.service.CreateOrder(lifecycle.CreateOrderRequest{
		TableID: "table-1",
		Lines: []domain.OrderLine{
			{ProductID: "prod-lagman", Count: 1},
			{ProductID: "missing-product", Count: 1},
		},
	})
	require.Error(suite.T(), err)

	orders, err := suite.service.ListOrders()
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)

	table, err := suite.tables.Get("table-1")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), domain.TableStatusEmpty, table.Status)

	stats, err := suite.outbox.Stats()
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), stats.PendingCount)
}

func (suite *OrderLifecycleTestSuite) TestGrowingItemCreatesSibling() {
	order, err := suite.service.CreateOrder(lifecycle.CreateOrderRequest{
		TableID: "table-1",
		Lines:   []domain.OrderLine{{ProductID: "prod-lagman", Count: 2}},
	})
	require.NoError(suite.T(), err)
	item := order.Items[0]

	cooking := domain.OrderItemStatusCooking
	_, err = suite.service.UpdateOrderItem(item.ID, lifecycle.UpdateItemRequest{Status: &cooking})
	require.NoError(suite.T(), err)

	// Увеличение количества не трогает готовящуюся позицию: добавка
	// приходит отдельной строкой в статусе PENDING.
	count := int32(5)
	change, err := suite.service.UpdateOrderItem(item.ID, lifecycle.UpdateItemRequest{Count: &count})
	require.NoError(suite.T(), err)
	require.True(suite.T(), change.Created)
	require.Equal(suite.T(), int32(3), change.Item.Count)
	require.Equal(suite.T(), domain.OrderItemStatusPending, change.Item.Status)

	updated, err := suite.service.GetOrder(order.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), updated.Items, 2)
	require.Equal(suite.T(), int64(75000), updated.TotalPriceMinor)
	require.Equal(suite.T(), domain.OrderStatusCooking, updated.Status)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
