package domain

import "time"

// OrderItemStatus описывает кухонный прогресс одной позиции заказа.
type OrderItemStatus string

const (
	// OrderItemStatusPending — позиция принята, кухня ещё не приступила.
	OrderItemStatusPending OrderItemStatus = "PENDING"
	// OrderItemStatusCooking — позиция готовится.
	OrderItemStatusCooking OrderItemStatus = "COOKING"
	// OrderItemStatusReady — позиция готова к выдаче.
	OrderItemStatusReady OrderItemStatus = "READY"
)

// OrderStatus описывает агрегированное состояние заказа.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusCooking OrderStatus = "COOKING"
	OrderStatusReady   OrderStatus = "READY"
	// OrderStatusArchive — заказ закрыт административно, вне item-агрегации.
	OrderStatusArchive OrderStatus = "ARCHIVE"
)

// ActiveOrderStatuses — статусы, при которых заказ считается активным:
// учитывается занятость стола и запрет удаления стола.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCooking,
	OrderStatusReady,
}

// IsValidItemStatus проверяет, что значение соответствует одному из статусов позиции.
func IsValidItemStatus(s OrderItemStatus) bool {
	switch s {
	case OrderItemStatusPending, OrderItemStatusCooking, OrderItemStatusReady:
		return true
	}
	return false
}

// IsValidOrderStatus проверяет, что значение соответствует одному из статусов заказа.
func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusCooking, OrderStatusReady, OrderStatusArchive:
		return true
	}
	return false
}

// IsActive сообщает, относится ли статус заказа к активным.
func (s OrderStatus) IsActive() bool {
	for _, active := range ActiveOrderStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// OrderItem представляет одну позицию заказа: продукт, количество и
// собственный кухонный статус.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	Count       int32
	Description string
	Status      OrderItemStatus
	// PreparedAt ставится ровно в момент перехода в READY и сбрасывается
	// при любом другом статусе.
	PreparedAt *time.Time
	CreatedAt  time.Time
	// Product — денормализованная карточка продукта, заполняется хранилищем
	// при чтении. Цена позиции всегда берётся отсюда.
	Product Product
}

// Order агрегирует позиции стола/клиента и их суммарное состояние.
type Order struct {
	ID            string
	TableID       string
	UserID        string
	CarrierNumber string
	Status        OrderStatus
	// TotalPriceMinor — производное поле: Σ(count × price) по текущим
	// позициям. Клиент его не задаёт.
	TotalPriceMinor int64
	Items           []OrderItem
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	EndedAt         *time.Time
}

// OrderLine — входная строка корзины при создании заказа или замене позиций.
type OrderLine struct {
	ProductID   string
	Count       int32
	Description string
}

// TotalPriceMinor пересчитывает стоимость заказа с нуля по текущему набору
// позиций. Сумма никогда не патчится инкрементально.
func TotalPriceMinor(items []OrderItem) int64 {
	var sum int64
	for _, item := range items {
		sum += int64(item.Count) * item.Product.PriceMinor
	}
	return sum
}

// AggregateItemStatuses выводит статус заказа из мультимножества статусов
// позиций. Функция чистая и коммутативная: порядок позиций не влияет на
// результат. Для пустого набора возвращает ok=false — вызывающий не должен
// агрегировать пустой заказ.
//
// Приоритет: все READY → READY; иначе есть COOKING → COOKING; иначе PENDING.
// Смесь READY и PENDING без COOKING даёт PENDING.
func AggregateItemStatuses(statuses []OrderItemStatus) (OrderStatus, bool) {
	if len(statuses) == 0 {
		return "", false
	}

	allReady := true
	anyCooking := false
	for _, s := range statuses {
		if s != OrderItemStatusReady {
			allReady = false
		}
		if s == OrderItemStatusCooking {
			anyCooking = true
		}
	}

	switch {
	case allReady:
		return OrderStatusReady, true
	case anyCooking:
		return OrderStatusCooking, true
	default:
		return OrderStatusPending, true
	}
}

// ItemStatuses возвращает статусы всех позиций заказа.
func (o *Order) ItemStatuses() []OrderItemStatus {
	statuses := make([]OrderItemStatus, 0, len(o.Items))
	for _, item := range o.Items {
		statuses = append(statuses, item.Status)
	}
	return statuses
}

// MergeLines объединяет дубли по продукту: количества суммируются, первое
// непустое описание побеждает. Сохранённый заказ никогда не содержит двух
// позиций одного продукта.
func MergeLines(lines []OrderLine) []OrderLine {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		pos, seen := index[line.ProductID]
		if !seen {
			index[line.ProductID] = len(merged)
			merged = append(merged, line)
			continue
		}
		merged[pos].Count += line.Count
		if merged[pos].Description == "" {
			merged[pos].Description = line.Description
		}
	}

	return merged
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalPriceMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}
	if !IsValidOrderStatus(o.Status) {
		errs = append(errs, ErrOrderStatusInvalid)
	}

	// Сверяем сумму заказа с суммой позиций: count * price.
	var calc int64
	for _, item := range o.Items {
		if item.Count <= 0 {
			errs = append(errs, ErrItemCountInvalid)
		}
		if item.Product.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !IsValidItemStatus(item.Status) {
			errs = append(errs, ErrItemStatusInvalid)
		}
		calc += int64(item.Count) * item.Product.PriceMinor
	}
	if calc != o.TotalPriceMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
