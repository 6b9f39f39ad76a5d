package domain

import "time"

// Role задаёт роль сотрудника; роль же определяет комнату рассылки уведомлений.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleWaiter  Role = "WAITER"
	RoleKitchen Role = "KITCHEN"
	RoleCashier Role = "CASHIER"
)

// IsValidRole проверяет, что значение соответствует одной из ролей.
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleWaiter, RoleKitchen, RoleCashier:
		return true
	}
	return false
}

// User — сотрудник ресторана.
type User struct {
	ID        string
	Name      string
	Surname   string
	Username  string
	Role      Role
	CreatedAt time.Time
}

// Category группирует продукты меню.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Product — позиция меню.
type Product struct {
	ID   string
	Name string
	// PriceMinor — цена в минимальных денежных единицах (тийины/копейки),
	// чтобы избежать плавающей арифметики на деньгах.
	PriceMinor int64
	Image      string
	CategoryID string
	// AssignedToID — повар, отвечающий за продукт. Заказ с продуктом без
	// назначенного повара не создаётся.
	AssignedToID string
	// Index — позиция продукта в меню для отображения.
	Index      int64
	IsFinished bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableStatus описывает занятость стола.
type TableStatus string

const (
	TableStatusEmpty TableStatus = "empty"
	TableStatusBusy  TableStatus = "busy"
)

// Table — физический стол с флагом занятости. Статус busy выставляется при
// создании заказа против стола и сбрасывается в empty, только когда активных
// заказов не остаётся.
type Table struct {
	ID        string
	Name      string
	Number    string
	Status    TableStatus
	CreatedAt time.Time
}
