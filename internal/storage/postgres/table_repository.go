package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository создаёт PostgreSQL-реализацию TableRepository.
func NewTableRepository(store *Store) domain.TableRepository {
	return &tableRepository{db: store.DB()}
}

func (r *tableRepository) Create(table domain.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tables (id, name, number, status, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, table.ID, table.Name, table.Number, string(table.Status), table.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTableNumberTaken
		}
		return fmt.Errorf("insert table: %w", err)
	}

	return nil
}

func (r *tableRepository) Get(id string) (domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *tableRepository) GetByNumber(number string) (domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getBy(ctx, `WHERE number = $1`, number)
}

func (r *tableRepository) List() ([]domain.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, number, status, created_at
		FROM tables
		ORDER BY number ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	for rows.Next() {
		var table domain.Table
		var status string
		if err := rows.Scan(&table.ID, &table.Name, &table.Number, &status, &table.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		table.Status = domain.TableStatus(status)
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table rows: %w", err)
	}

	return tables, nil
}

func (r *tableRepository) Save(table domain.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tables
		SET name = $1,
		    number = $2,
		    status = $3
		WHERE id = $4
	`, table.Name, table.Number, string(table.Status), table.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTableNumberTaken
		}
		return fmt.Errorf("update table: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTableNotFound
	}

	return nil
}

func (r *tableRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTableNotFound
	}

	return nil
}

func (r *tableRepository) SetStatus(id string, status domain.TableStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE tables SET status = $1 WHERE id = $2
	`, string(status), id)
	if err != nil {
		return fmt.Errorf("update table status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrTableNotFound
	}

	return nil
}

func (r *tableRepository) getBy(ctx context.Context, where string, arg interface{}) (domain.Table, error) {
	var table domain.Table
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, number, status, created_at
		FROM tables
	`+where, arg).Scan(&table.ID, &table.Name, &table.Number, &status, &table.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Table{}, domain.ErrTableNotFound
		}
		return domain.Table{}, fmt.Errorf("select table: %w", err)
	}
	table.Status = domain.TableStatus(status)

	return table, nil
}

var _ domain.TableRepository = (*tableRepository)(nil)
