package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderItemNotFound возвращается, если позиция заказа не найдена.
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrProductNotFound возвращается при ссылке на несуществующий продукт.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound возвращается при ссылке на несуществующую категорию.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTableNotFound возвращается при ссылке на несуществующий стол.
	ErrTableNotFound = errors.New("table not found")
	// ErrUserNotFound возвращается при ссылке на несуществующего сотрудника.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrNoKitchenStaff блокирует создание заказа: у продукта нет назначенного повара.
	ErrNoKitchenStaff = errors.New("no kitchen staff assigned")
	// ErrItemsRequired — заказ без позиций не имеет смысла.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrItemCountInvalid — количество в позиции должно быть положительным.
	ErrItemCountInvalid = errors.New("item count must be greater than zero")
	// ErrItemPriceInvalid — цена продукта не может быть отрицательной.
	ErrItemPriceInvalid = errors.New("product price must be non-negative")
	// ErrItemStatusInvalid — неизвестный статус позиции.
	ErrItemStatusInvalid = errors.New("invalid order item status")
	// ErrOrderStatusInvalid — неизвестный статус заказа.
	ErrOrderStatusInvalid = errors.New("invalid order status")
	// ErrTotalNegative — производная сумма заказа не может быть отрицательной.
	ErrTotalNegative = errors.New("total price must be non-negative")
	// ErrTotalMismatch — сумма заказа разошлась с суммой позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// ErrNothingToUpdate — в запросе на изменение позиции нет ни статуса, ни количества.
	ErrNothingToUpdate = errors.New("either status or count is required")
	// ErrRoleInvalid — неизвестная роль сотрудника.
	ErrRoleInvalid = errors.New("invalid user role")
	// ErrNotKitchenStaff — продукту можно назначить только сотрудника кухни.
	ErrNotKitchenStaff = errors.New("assigned user must have kitchen role")
	// ErrTableNumberTaken — номер стола уже занят.
	ErrTableNumberTaken = errors.New("table number already exists")
	// ErrTableHasActiveOrders запрещает удаление стола с активными заказами.
	ErrTableHasActiveOrders = errors.New("table has active orders")
	// ErrUsernameTaken — логин сотрудника уже занят.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound проверяет, относится ли ошибка к классу "сущность не найдена".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrOrderItemNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidation проверяет, относится ли ошибка к нарушению бизнес-правил.
func IsValidation(err error) bool {
	validation := []error{
		ErrNoKitchenStaff,
		ErrItemsRequired,
		ErrItemCountInvalid,
		ErrItemPriceInvalid,
		ErrItemStatusInvalid,
		ErrOrderStatusInvalid,
		ErrTotalNegative,
		ErrTotalMismatch,
		ErrNothingToUpdate,
		ErrRoleInvalid,
		ErrNotKitchenStaff,
		ErrTableNumberTaken,
		ErrTableHasActiveOrders,
		ErrUsernameTaken,
	}
	for _, v := range validation {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
