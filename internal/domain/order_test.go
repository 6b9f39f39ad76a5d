package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// helper для создания базового заказа с двумя позициями.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:              "order-1",
		TableID:         "table-1",
		Status:          domain.OrderStatusPending,
		TotalPriceMinor: 45000,
		Items: []domain.OrderItem{
			{
				ID:        "item-1",
				OrderID:   "order-1",
				ProductID: "product-1",
				Count:     2,
				Status:    domain.OrderItemStatusPending,
				CreatedAt: now,
				Product:   domain.Product{ID: "product-1", Name: "lagman", PriceMinor: 15000},
			},
			{
				ID:        "item-2",
				OrderID:   "order-1",
				ProductID: "product-2",
				Count:     1,
				Status:    domain.OrderItemStatusPending,
				CreatedAt: now,
				Product:   domain.Product{ID: "product-2", Name: "shashlik", PriceMinor: 15000},
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTotalPriceMinor(t *testing.T) {
	order := makeOrder()
	if got := domain.TotalPriceMinor(order.Items); got != 45000 {
		t.Fatalf("expected total 45000, got %d", got)
	}

	if got := domain.TotalPriceMinor(nil); got != 0 {
		t.Fatalf("expected zero total for empty set, got %d", got)
	}
}

func TestAggregateItemStatuses(t *testing.T) {
	p := domain.OrderItemStatusPending
	c := domain.OrderItemStatusCooking
	r := domain.OrderItemStatusReady

	cases := []struct {
		name     string
		statuses []domain.OrderItemStatus
		want     domain.OrderStatus
	}{
		{name: "all pending", statuses: []domain.OrderItemStatus{p, p}, want: domain.OrderStatusPending},
		{name: "all ready", statuses: []domain.OrderItemStatus{r, r, r}, want: domain.OrderStatusReady},
		{name: "single ready", statuses: []domain.OrderItemStatus{r}, want: domain.OrderStatusReady},
		{name: "any cooking wins", statuses: []domain.OrderItemStatus{r, c, p}, want: domain.OrderStatusCooking},
		// Смесь READY и PENDING без COOKING — кухня ещё не начала всё.
		{name: "ready plus pending is pending", statuses: []domain.OrderItemStatus{r, p}, want: domain.OrderStatusPending},
		{name: "cooking plus ready", statuses: []domain.OrderItemStatus{c, r}, want: domain.OrderStatusCooking},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.AggregateItemStatuses(tc.statuses)
			if !ok {
				t.Fatalf("expected aggregation to succeed")
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}

			// Агрегация инвариантна к перестановке позиций.
			reversed := make([]domain.OrderItemStatus, 0, len(tc.statuses))
			for i := len(tc.statuses) - 1; i >= 0; i-- {
				reversed = append(reversed, tc.statuses[i])
			}
			gotRev, ok := domain.AggregateItemStatuses(reversed)
			if !ok || gotRev != got {
				t.Fatalf("aggregation is order-dependent: %s vs %s", got, gotRev)
			}
		})
	}
}

func TestAggregateItemStatuses_Empty(t *testing.T) {
	if _, ok := domain.AggregateItemStatuses(nil); ok {
		t.Fatal("expected ok=false for empty status set")
	}
}

func TestMergeLines(t *testing.T) {
	lines := []domain.OrderLine{
		{ProductID: "a", Count: 2},
		{ProductID: "b", Count: 1, Description: "no onions"},
		{ProductID: "a", Count: 3, Description: "extra spicy"},
	}

	merged := domain.MergeLines(lines)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(merged))
	}
	if merged[0].ProductID != "a" || merged[0].Count != 5 {
		t.Fatalf("expected product a with count 5, got %+v", merged[0])
	}
	// Первое непустое описание побеждает: у первой строки a оно пустое,
	// значит берётся описание второй.
	if merged[0].Description != "extra spicy" {
		t.Fatalf("expected description from later duplicate, got %q", merged[0].Description)
	}
	if merged[1].ProductID != "b" || merged[1].Count != 1 || merged[1].Description != "no onions" {
		t.Fatalf("unexpected second line: %+v", merged[1])
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no items",
			mut: func(o *domain.Order) {
				o.Items = nil
				o.TotalPriceMinor = 0
			},
		},
		{
			name: "negative total",
			mut: func(o *domain.Order) {
				o.TotalPriceMinor = -1
			},
		},
		{
			name: "count invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Count = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Items[0].Product.PriceMinor = -5
			},
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalPriceMinor = 999
			},
		},
		{
			name: "unknown status",
			mut: func(o *domain.Order) {
				o.Status = "DELIVERED"
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestEventPayloadRoundTrip(t *testing.T) {
	rooms := []string{
		domain.RoleRoom(domain.RoleKitchen, ""),
		domain.UserRoom("", "user-1"),
	}
	payload, err := domain.NewEventPayload(rooms, map[string]string{"id": "order-1"})
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	envelope, err := domain.DecodeEventPayload(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(envelope.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %v", envelope.Rooms)
	}
	if envelope.Rooms[0] != "default:KITCHEN" {
		t.Fatalf("unexpected role room key: %s", envelope.Rooms[0])
	}
	if envelope.Rooms[1] != "default:user:user-1" {
		t.Fatalf("unexpected user room key: %s", envelope.Rooms[1])
	}
}

func TestKnownEventTypes(t *testing.T) {
	for _, eventType := range domain.KnownEventTypes() {
		if !domain.IsKnownEventType(eventType) {
			t.Fatalf("event type %s must be known", eventType)
		}
	}
	if domain.IsKnownEventType("order.exploded") {
		t.Fatal("unexpected event type must not be known")
	}
	if !domain.IsKnownAggregate(domain.AggregateOrder) || !domain.IsKnownAggregate(domain.AggregateTable) {
		t.Fatal("order and table aggregates must be known")
	}
	if domain.IsKnownAggregate("payment") {
		t.Fatal("foreign aggregate must not be known")
	}
}
