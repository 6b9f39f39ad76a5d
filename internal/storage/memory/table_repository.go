package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// tableRepositoryInMemory — in-memory хранилище столов.
type tableRepositoryInMemory struct {
	mu     sync.RWMutex
	tables map[string]domain.Table
}

// NewTableRepository возвращает in-memory реализацию TableRepository.
func NewTableRepository() *tableRepositoryInMemory {
	return &tableRepositoryInMemory{tables: make(map[string]domain.Table)}
}

// Create сохраняет стол; номер должен быть уникален.
func (r *tableRepositoryInMemory) Create(table domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tables {
		if existing.Number == table.Number {
			return domain.ErrTableNumberTaken
		}
	}
	r.tables[table.ID] = table
	return nil
}

func (r *tableRepositoryInMemory) Get(id string) (domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, ok := r.tables[id]
	if !ok {
		return domain.Table{}, domain.ErrTableNotFound
	}
	return table, nil
}

func (r *tableRepositoryInMemory) GetByNumber(number string) (domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, table := range r.tables {
		if table.Number == number {
			return table, nil
		}
	}
	return domain.Table{}, domain.ErrTableNotFound
}

func (r *tableRepositoryInMemory) List() ([]domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Table, 0, len(r.tables))
	for _, table := range r.tables {
		result = append(result, table)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

func (r *tableRepositoryInMemory) Save(table domain.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[table.ID]; !ok {
		return domain.ErrTableNotFound
	}
	for id, existing := range r.tables {
		if id != table.ID && existing.Number == table.Number {
			return domain.ErrTableNumberTaken
		}
	}
	r.tables[table.ID] = table
	return nil
}

func (r *tableRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[id]; !ok {
		return domain.ErrTableNotFound
	}
	delete(r.tables, id)
	return nil
}

// SetStatus выставляет занятость стола. Повторная установка того же
// статуса не является ошибкой.
func (r *tableRepositoryInMemory) SetStatus(id string, status domain.TableStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, ok := r.tables[id]
	if !ok {
		return domain.ErrTableNotFound
	}
	table.Status = status
	r.tables[id] = table
	return nil
}

var _ domain.TableRepository = (*tableRepositoryInMemory)(nil)
