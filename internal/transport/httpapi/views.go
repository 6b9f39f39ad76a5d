package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
)

type orderView struct {
	ID            string     `json:"id"`
	TableID       string     `json:"tableId,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	CarrierNumber string     `json:"carrierNumber,omitempty"`
	Status        string     `json:"status"`
	TotalPrice    int64      `json:"totalPrice"`
	Items         []itemView `json:"orderItems"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
}

type itemView struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName,omitempty"`
	PriceMinor  int64      `json:"price"`
	Count       int32      `json:"count"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	PreparedAt  *time.Time `json:"preparedAt,omitempty"`
}

type readyItemView struct {
	Item          itemView `json:"item"`
	OrderID       string   `json:"orderId"`
	TableID       string   `json:"tableId,omitempty"`
	CarrierNumber string   `json:"carrierNumber,omitempty"`
}

type productView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PriceMinor   int64     `json:"price"`
	Image        string    `json:"image,omitempty"`
	CategoryID   string    `json:"categoryId,omitempty"`
	AssignedToID string    `json:"assignedToId"`
	Index        int64     `json:"index"`
	IsFinished   bool      `json:"isFinished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type categoryView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Surname   string    `json:"surname,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type tableView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Number    string    `json:"number"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// tableDetailView — стол вместе с его незакрытыми заказами.
type tableDetailView struct {
	tableView
	Orders []orderView `json:"orders"`
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
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		EndedAt:       order.EndedAt,
	}
}

func toOrderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, toOrderView(order))
	}
	return views
}

func toItemView(item domain.OrderItem) itemView {
	return itemView{
		ID:          item.ID,
		OrderID:     item.OrderID,
		ProductID:   item.ProductID,
		ProductName: item.Product.Name,
		PriceMinor:  item.Product.PriceMinor,
		Count:       item.Count,
		Description: item.Description,
		Status:      string(item.Status),
		PreparedAt:  item.PreparedAt,
	}
}

func toReadyItemViews(items []lifecycle.ReadyItem) []readyItemView {
	views := make([]readyItemView, 0, len(items))
	for _, ready := range items {
		views = append(views, readyItemView{
			Item:          toItemView(ready.Item),
			OrderID:       ready.OrderID,
			TableID:       ready.TableID,
			CarrierNumber: ready.CarrierNumber,
		})
	}
	return views
}

func toProductView(product domain.Product) productView {
	return productView{
		ID:           product.ID,
		Name:         product.Name,
		PriceMinor:   product.PriceMinor,
		Image:        product.Image,
		CategoryID:   product.CategoryID,
		AssignedToID: product.AssignedToID,
		Index:        product.Index,
		IsFinished:   product.IsFinished,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

func toProductViews(products []domain.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, product := range products {
		views = append(views, toProductView(product))
	}
	return views
}

func toCategoryView(category domain.Category) categoryView {
	return categoryView{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}
}

func toCategoryViews(categories []domain.Category) []categoryView {
	views := make([]categoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, toCategoryView(category))
	}
	return views
}

func toUserView(user domain.User) userView {
	return userView{
		ID:        user.ID,
		Name:      user.Name,
		Surname:   user.Surname,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func toUserViews(users []domain.User) []userView {
	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, toUserView(user))
	}
	return views
}

func toTableView(table domain.Table) tableView {
	return tableView{
		ID:        table.ID,
		Name:      table.Name,
		Number:    table.Number,
		Status:    string(table.Status),
		CreatedAt: table.CreatedAt,
	}
}

func toTableViews(tables []domain.Table) []tableView {
	views := make([]tableView, 0, len(tables))
	for _, table := range tables {
		views = append(views, toTableView(table))
	}
	return views
}
