package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

// itemSelectColumns — позиция вместе с денормализованной карточкой продукта.
// Продукт может быть удалён из меню после оформления заказа, поэтому LEFT JOIN
// с COALESCE: позиция остаётся читаемой с пустой карточкой.
const itemSelectColumns = `
	oi.id, oi.order_id, oi.product_id, oi.count, oi.description, oi.status,
	oi.prepared_at, oi.created_at,
	COALESCE(p.id, ''), COALESCE(p.name, ''), COALESCE(p.price_minor, 0),
	COALESCE(p.image, ''), COALESCE(p.category_id, ''),
	COALESCE(p.assigned_to_id, ''), COALESCE(p.display_index, 0),
	COALESCE(p.is_finished, FALSE)
`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, table_id, user_id, carrier_number, status, total_price_minor,
			version, created_at, updated_at, ended_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		order.ID, order.TableID, order.UserID, order.CarrierNumber,
		string(order.Status), order.TotalPriceMinor, order.Version,
		order.CreatedAt, order.UpdatedAt, order.EndedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if err = insertItemTx(ctx, tx, item); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.getHeader(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) List() ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.listOrders(ctx, `
		SELECT id, table_id, user_id, carrier_number, status, total_price_minor,
		       version, created_at, updated_at, ended_at
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *orderRepository) ListByStatus(statuses ...domain.OrderStatus) ([]domain.Order, error) {
	if len(statuses) == 0 {
		return []domain.Order{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	return r.listOrders(ctx, `
		SELECT id, table_id, user_id, carrier_number, status, total_price_minor,
		       version, created_at, updated_at, ended_at
		FROM orders
		WHERE status = ANY($1::text[])
		ORDER BY created_at DESC, id DESC
	`, pgTextArray(values))
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET table_id = $1,
		    user_id = $2,
		    carrier_number = $3,
		    status = $4,
		    total_price_minor = $5,
		    version = version + 1,
		    updated_at = $6,
		    ended_at = $7
		WHERE id = $8
		  AND version = $9
	`,
		order.TableID,
		order.UserID,
		order.CarrierNumber,
		string(order.Status),
		order.TotalPriceMinor,
		order.UpdatedAt,
		order.EndedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save order: %w", err)
	}

	return nil
}

func (r *orderRepository) ReplaceItems(orderID string, items []domain.OrderItem, totalMinor int64, status domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := orderExistsTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrOrderNotFound
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	for _, item := range items {
		item.OrderID = orderID
		if err = insertItemTx(ctx, tx, item); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET total_price_minor = $1,
		    status = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4
	`, totalMinor, string(status), time.Now().UTC(), orderID); err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace items: %w", err)
	}

	return nil
}

func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) CountActiveByTable(tableID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	values := make([]string, 0, len(domain.ActiveOrderStatuses))
	for _, s := range domain.ActiveOrderStatuses {
		values = append(values, string(s))
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders
		WHERE table_id = $1
		  AND status = ANY($2::text[])
	`, tableID, pgTextArray(values)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active orders: %w", err)
	}

	return count, nil
}

func (r *orderRepository) GetItem(itemID string) (domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+itemSelectColumns+`
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.id = $1
	`, itemID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OrderItem{}, domain.ErrOrderItemNotFound
		}
		return domain.OrderItem{}, fmt.Errorf("select order item: %w", err)
	}

	return item, nil
}

func (r *orderRepository) InsertItem(item domain.OrderItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := orderExistsTx(ctx, tx, item.OrderID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrOrderNotFound
	}

	if err = insertItemTx(ctx, tx, item); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert item: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateItem(item domain.OrderItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE order_items
		SET count = $1,
		    description = $2,
		    status = $3,
		    prepared_at = $4
		WHERE id = $5
	`, item.Count, item.Description, string(item.Status), item.PreparedAt, item.ID)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderItemNotFound
	}

	return nil
}

func (r *orderRepository) DeleteItem(itemID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderItemNotFound
	}

	return nil
}

func (r *orderRepository) ListReadyItems() ([]domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemSelectColumns+`
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.status = $1
		ORDER BY oi.created_at ASC, oi.id ASC
	`, string(domain.OrderItemStatusReady))
	if err != nil {
		return nil, fmt.Errorf("list ready items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *orderRepository) getHeader(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, table_id, user_id, carrier_number, status, total_price_minor,
		       version, created_at, updated_at, ended_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.TableID, &order.UserID, &order.CarrierNumber,
		&status, &order.TotalPriceMinor, &order.Version,
		&order.CreatedAt, &order.UpdatedAt, &order.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	return order, nil
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.TableID, &order.UserID, &order.CarrierNumber,
			&status, &order.TotalPriceMinor, &order.Version,
			&order.CreatedAt, &order.UpdatedAt, &order.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)

		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemSelectColumns+`
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at ASC, oi.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func insertItemTx(ctx context.Context, tx *sql.Tx, item domain.OrderItem) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_items (
			id, order_id, product_id, count, description, status, prepared_at, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		item.ID, item.OrderID, item.ProductID, item.Count, item.Description,
		string(item.Status), item.PreparedAt, item.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (domain.OrderItem, error) {
	var item domain.OrderItem
	var itemStatus string
	if err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.Count, &item.Description,
		&itemStatus, &item.PreparedAt, &item.CreatedAt,
		&item.Product.ID, &item.Product.Name, &item.Product.PriceMinor,
		&item.Product.Image, &item.Product.CategoryID,
		&item.Product.AssignedToID, &item.Product.Index, &item.Product.IsFinished,
	); err != nil {
		return domain.OrderItem{}, err
	}
	item.Status = domain.OrderItemStatus(itemStatus)
	return item, nil
}

func collectItems(rows *sql.Rows) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// pgTextArray сериализует срез в литерал text[] для ANY($n::text[]).
// Значения — внутренние enum-статусы без спецсимволов, экранирование не нужно.
func pgTextArray(values []string) string {
	return "{" + strings.Join(values, ",") + "}"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
