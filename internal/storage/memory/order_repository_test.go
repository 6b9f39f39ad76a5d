package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

func newOrderFixture(id, tableID string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:              id,
		TableID:         tableID,
		Status:          domain.OrderStatusPending,
		TotalPriceMinor: 30000,
		Items: []domain.OrderItem{
			{
				ID:        id + "-item-1",
				ProductID: "product-1",
				Count:     2,
				Status:    domain.OrderItemStatusPending,
				CreatedAt: createdAt,
				Product:   domain.Product{ID: "product-1", PriceMinor: 15000},
			},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	if err := repo.Create(newOrderFixture("order-1", "table-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if got.Items[0].OrderID != "order-1" {
		t.Fatalf("expected item bound to order, got %q", got.Items[0].OrderID)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	if err := repo.Create(newOrderFixture("order-1", "table-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	order, _ := repo.Get("order-1")
	if err := repo.Save(order); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// Повторное сохранение с устаревшей версией должно быть отвергнуто.
	if err := repo.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestOrderRepository_ReplaceItems(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	if err := repo.Create(newOrderFixture("order-1", "table-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := []domain.OrderItem{
		{ID: "item-a", ProductID: "product-2", Count: 3, Status: domain.OrderItemStatusPending, CreatedAt: now, Product: domain.Product{ID: "product-2", PriceMinor: 10000}},
		{ID: "item-b", ProductID: "product-3", Count: 1, Status: domain.OrderItemStatusPending, CreatedAt: now.Add(time.Second), Product: domain.Product{ID: "product-3", PriceMinor: 5000}},
	}
	if err := repo.ReplaceItems("order-1", replacement, 35000, domain.OrderStatusPending); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := repo.Get("order-1")
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items after replace, got %d", len(got.Items))
	}
	if got.TotalPriceMinor != 35000 {
		t.Fatalf("expected total 35000, got %d", got.TotalPriceMinor)
	}
	// Старая позиция не должна быть достижима.
	if _, err := repo.GetItem("order-1-item-1"); !errors.Is(err, domain.ErrOrderItemNotFound) {
		t.Fatalf("expected old item gone, got %v", err)
	}
}

func TestOrderRepository_DeleteCascades(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	if err := repo.Create(newOrderFixture("order-1", "table-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete("order-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get("order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order gone, got %v", err)
	}
	if _, err := repo.GetItem("order-1-item-1"); !errors.Is(err, domain.ErrOrderItemNotFound) {
		t.Fatalf("expected items gone with order, got %v", err)
	}
}

func TestOrderRepository_CountActiveByTable(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	first := newOrderFixture("order-1", "table-1", now)
	second := newOrderFixture("order-2", "table-1", now.Add(time.Second))
	other := newOrderFixture("order-3", "table-2", now)
	for _, o := range []domain.Order{first, second, other} {
		if err := repo.Create(o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}

	count, err := repo.CountActiveByTable("table-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active orders, got %d", count)
	}

	// Архивный заказ активным не считается.
	archived, _ := repo.Get("order-1")
	archived.Status = domain.OrderStatusArchive
	if err := repo.Save(archived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	count, _ = repo.CountActiveByTable("table-1")
	if count != 1 {
		t.Fatalf("expected 1 active order after archive, got %d", count)
	}
}

func TestOrderRepository_ItemLifecycle(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()
	if err := repo.Create(newOrderFixture("order-1", "table-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	extra := domain.OrderItem{
		ID:        "item-extra",
		OrderID:   "order-1",
		ProductID: "product-9",
		Count:     1,
		Status:    domain.OrderItemStatusReady,
		CreatedAt: now.Add(time.Second),
		Product:   domain.Product{ID: "product-9", PriceMinor: 7000},
	}
	if err := repo.InsertItem(extra); err != nil {
		t.Fatalf("insert item: %v", err)
	}

	ready, err := repo.ListReadyItems()
	if err != nil {
		t.Fatalf("list ready: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != "item-extra" {
		t.Fatalf("unexpected ready items: %+v", ready)
	}

	extra.Count = 5
	if err := repo.UpdateItem(extra); err != nil {
		t.Fatalf("update item: %v", err)
	}
	got, _ := repo.GetItem("item-extra")
	if got.Count != 5 {
		t.Fatalf("expected count 5, got %d", got.Count)
	}

	if err := repo.DeleteItem("item-extra"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	order, _ := repo.Get("order-1")
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(order.Items))
	}
}

func TestOrderRepository_ListByStatus(t *testing.T) {
	repo := NewOrderRepository()
	now := time.Now().UTC()

	pending := newOrderFixture("order-1", "table-1", now)
	cooking := newOrderFixture("order-2", "table-2", now.Add(time.Second))
	cooking.Status = domain.OrderStatusCooking
	for _, o := range []domain.Order{pending, cooking} {
		if err := repo.Create(o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}

	got, err := repo.ListByStatus(domain.OrderStatusPending, domain.OrderStatusCooking)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	// Новые первыми.
	if got[0].ID != "order-2" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}

	only, _ := repo.ListByStatus(domain.OrderStatusCooking)
	if len(only) != 1 || only[0].ID != "order-2" {
		t.Fatalf("unexpected filter result: %+v", only)
	}
}
