package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// catalogRepositoryInMemory — in-memory хранилище справочников меню и сотрудников.
type catalogRepositoryInMemory struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	categories map[string]domain.Category
	users      map[string]domain.User
}

// NewCatalogRepository возвращает in-memory реализацию CatalogRepository.
func NewCatalogRepository() *catalogRepositoryInMemory {
	return &catalogRepositoryInMemory{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		users:      make(map[string]domain.User),
	}
}

func (r *catalogRepositoryInMemory) CreateProduct(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = product
	return nil
}

func (r *catalogRepositoryInMemory) GetProduct(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListProducts возвращает продукты в порядке display index.
func (r *catalogRepositoryInMemory) ListProducts() ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Index != result[j].Index {
			return result[i].Index < result[j].Index
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *catalogRepositoryInMemory) ListProductsByIDs(ids []string) (map[string]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (r *catalogRepositoryInMemory) SaveProduct(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[product.ID] = product
	return nil
}

func (r *catalogRepositoryInMemory) DeleteProduct(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// SwapProductIndices меняет местами display index двух продуктов.
func (r *catalogRepositoryInMemory) SwapProductIndices(id1, id2 string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p1, ok := r.products[id1]
	if !ok {
		return domain.ErrProductNotFound
	}
	p2, ok := r.products[id2]
	if !ok {
		return domain.ErrProductNotFound
	}
	p1.Index, p2.Index = p2.Index, p1.Index
	r.products[id1] = p1
	r.products[id2] = p2
	return nil
}

func (r *catalogRepositoryInMemory) CreateCategory(category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.categories[category.ID] = category
	return nil
}

func (r *catalogRepositoryInMemory) GetCategory(id string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, ok := r.categories[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (r *catalogRepositoryInMemory) ListCategories() ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.categories))
	for _, category := range r.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *catalogRepositoryInMemory) SaveCategory(category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	r.categories[category.ID] = category
	return nil
}

func (r *catalogRepositoryInMemory) DeleteCategory(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *catalogRepositoryInMemory) CreateUser(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *catalogRepositoryInMemory) GetUser(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// ListUsers возвращает сотрудников; пустая роль означает всех.
func (r *catalogRepositoryInMemory) ListUsers(role domain.Role) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		if role != "" && user.Role != role {
			continue
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
