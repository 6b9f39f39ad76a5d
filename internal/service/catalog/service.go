package catalog

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// Service описывает операции над справочниками: меню, сотрудники, столы.
type Service interface {
	CreateProduct(req ProductRequest) (domain.Product, error)
	GetProduct(id string) (domain.Product, error)
	ListProducts() ([]domain.Product, error)
	UpdateProduct(id string, req ProductRequest) (domain.Product, error)
	DeleteProduct(id string) error
	// SwapProducts меняет местами позиции двух продуктов в меню.
	SwapProducts(id1, id2 string) error

	CreateCategory(name string) (domain.Category, error)
	GetCategory(id string) (domain.Category, error)
	ListCategories() ([]domain.Category, error)
	UpdateCategory(id, name string) (domain.Category, error)
	DeleteCategory(id string) error

	CreateUser(req UserRequest) (domain.User, error)
	GetUser(id string) (domain.User, error)
	ListUsers(role domain.Role) ([]domain.User, error)

	CreateTable(req TableRequest) (domain.Table, error)
	GetTable(id string) (domain.Table, error)
	ListTables() ([]domain.Table, error)
	// AvailableTables возвращает свободные столы, OccupiedTables — занятые.
	AvailableTables() ([]domain.Table, error)
	OccupiedTables() ([]domain.Table, error)
	UpdateTable(id string, req TableRequest) (domain.Table, error)
	DeleteTable(id string) error
}

// ProductRequest — входные данные создания или обновления продукта.
type ProductRequest struct {
	Name         string
	PriceMinor   int64
	Image        string
	CategoryID   string
	AssignedToID string
	IsFinished   *bool
}

// UserRequest — входные данные создания сотрудника.
type UserRequest struct {
	Name     string
	Surname  string
	Username string
	Role     domain.Role
}

// TableRequest — входные данные создания или обновления стола.
type TableRequest struct {
	Name   string
	Number string
}

type service struct {
	catalog domain.CatalogRepository
	tables  domain.TableRepository
	orders  domain.OrderRepository
	logger  *log.Entry
	// rand выбирает повара для продуктов без явного назначения.
	rand *rand.Rand
}

// New создаёт сервис справочников.
func New(
	catalog domain.CatalogRepository,
	tables domain.TableRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &service{
		catalog: catalog,
		tables:  tables,
		orders:  orders,
		logger:  logger,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateProduct создаёт продукт. Если повар не указан, назначается случайный
// сотрудник кухни; без единого сотрудника кухни продукт не создаётся.
func (s *service) CreateProduct(req ProductRequest) (domain.Product, error) {
	assignedTo, err := s.resolveAssignee(req.AssignedToID)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.catalog.ListProducts()
	if err != nil {
		return domain.Product{}, err
	}
	var maxIndex int64
	for _, p := range existing {
		if p.Index > maxIndex {
			maxIndex = p.Index
		}
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:           uuid.NewString(),
		Name:         req.Name,
		PriceMinor:   req.PriceMinor,
		Image:        req.Image,
		CategoryID:   req.CategoryID,
		AssignedToID: assignedTo,
		Index:        maxIndex + 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsFinished != nil {
		product.IsFinished = *req.IsFinished
	}
	if product.PriceMinor < 0 {
		return domain.Product{}, domain.ErrItemPriceInvalid
	}
	if product.CategoryID != "" {
		if _, err := s.catalog.GetCategory(product.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}
	if err := s.catalog.CreateProduct(product); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithFields(log.Fields{
		"product_id":  product.ID,
		"assigned_to": product.AssignedToID,
	}).Info("product created")
	return product, nil
}

func (s *service) GetProduct(id string) (domain.Product, error) {
	return s.catalog.GetProduct(id)
}

func (s *service) ListProducts() ([]domain.Product, error) {
	return s.catalog.ListProducts()
}

// UpdateProduct применяет частичное обновление продукта. Пустые поля запроса
// означают "не менять". Новый повар проверяется на роль KITCHEN.
func (s *service) UpdateProduct(id string, req ProductRequest) (domain.Product, error) {
	product, err := s.catalog.GetProduct(id)
	if err != nil {
		return domain.Product{}, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.PriceMinor > 0 {
		product.PriceMinor = req.PriceMinor
	}
	if req.Image != "" {
		product.Image = req.Image
	}
	if req.CategoryID != "" {
		if _, err := s.catalog.GetCategory(req.CategoryID); err != nil {
			return domain.Product{}, err
		}
		product.CategoryID = req.CategoryID
	}
	if req.AssignedToID != "" {
		if err := s.checkKitchenStaff(req.AssignedToID); err != nil {
			return domain.Product{}, err
		}
		product.AssignedToID = req.AssignedToID
	}
	if req.IsFinished != nil {
		product.IsFinished = *req.IsFinished
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.catalog.SaveProduct(product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *service) DeleteProduct(id string) error {
	return s.catalog.DeleteProduct(id)
}

// SwapProducts меняет местами display index двух продуктов.
func (s *service) SwapProducts(id1, id2 string) error {
	return s.catalog.SwapProductIndices(id1, id2)
}

func (s *service) CreateCategory(name string) (domain.Category, error) {
	category := domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.catalog.CreateCategory(category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *service) GetCategory(id string) (domain.Category, error) {
	return s.catalog.GetCategory(id)
}

func (s *service) ListCategories() ([]domain.Category, error) {
	return s.catalog.ListCategories()
}

func (s *service) UpdateCategory(id, name string) (domain.Category, error) {
	category, err := s.catalog.GetCategory(id)
	if err != nil {
		return domain.Category{}, err
	}
	category.Name = name
	if err := s.catalog.SaveCategory(category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (s *service) DeleteCategory(id string) error {
	return s.catalog.DeleteCategory(id)
}

func (s *service) CreateUser(req UserRequest) (domain.User, error) {
	if !domain.IsValidRole(req.Role) {
		return domain.User{}, domain.ErrRoleInvalid
	}
	user := domain.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Surname:   req.Surname,
		Username:  req.Username,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.catalog.CreateUser(user); err != nil {
		return domain.User{}, err
	}
	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user created")
	return user, nil
}

func (s *service) GetUser(id string) (domain.User, error) {
	return s.catalog.GetUser(id)
}

func (s *service) ListUsers(role domain.Role) ([]domain.User, error) {
	if role != "" && !domain.IsValidRole(role) {
		return nil, domain.ErrRoleInvalid
	}
	return s.catalog.ListUsers(role)
}

// CreateTable создаёт стол со свободным статусом. Номер должен быть уникален.
func (s *service) CreateTable(req TableRequest) (domain.Table, error) {
	if _, err := s.tables.GetByNumber(req.Number); err == nil {
		return domain.Table{}, domain.ErrTableNumberTaken
	} else if !domain.IsNotFound(err) {
		return domain.Table{}, err
	}

	table := domain.Table{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Number:    req.Number,
		Status:    domain.TableStatusEmpty,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tables.Create(table); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

func (s *service) GetTable(id string) (domain.Table, error) {
	return s.tables.Get(id)
}

func (s *service) ListTables() ([]domain.Table, error) {
	return s.tables.List()
}

func (s *service) AvailableTables() ([]domain.Table, error) {
	return s.tablesByStatus(domain.TableStatusEmpty)
}

func (s *service) OccupiedTables() ([]domain.Table, error) {
	return s.tablesByStatus(domain.TableStatusBusy)
}

func (s *service) tablesByStatus(status domain.TableStatus) ([]domain.Table, error) {
	tables, err := s.tables.List()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Table, 0, len(tables))
	for _, table := range tables {
		if table.Status == status {
			result = append(result, table)
		}
	}
	return result, nil
}

func (s *service) UpdateTable(id string, req TableRequest) (domain.Table, error) {
	table, err := s.tables.Get(id)
	if err != nil {
		return domain.Table{}, err
	}
	if req.Name != "" {
		table.Name = req.Name
	}
	if req.Number != "" {
		table.Number = req.Number
	}
	if err := s.tables.Save(table); err != nil {
		return domain.Table{}, err
	}
	return table, nil
}

// DeleteTable удаляет стол; стол с активными заказами удалить нельзя.
func (s *service) DeleteTable(id string) error {
	if _, err := s.tables.Get(id); err != nil {
		return err
	}
	count, err := s.orders.CountActiveByTable(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrTableHasActiveOrders
	}
	return s.tables.Delete(id)
}

// resolveAssignee возвращает назначенного повара или случайного сотрудника кухни.
func (s *service) resolveAssignee(assignedToID string) (string, error) {
	if assignedToID != "" {
		if err := s.checkKitchenStaff(assignedToID); err != nil {
			return "", err
		}
		return assignedToID, nil
	}
	kitchen, err := s.catalog.ListUsers(domain.RoleKitchen)
	if err != nil {
		return "", err
	}
	if len(kitchen) == 0 {
		return "", domain.ErrNoKitchenStaff
	}
	return kitchen[s.rand.Intn(len(kitchen))].ID, nil
}

// checkKitchenStaff проверяет, что сотрудник существует и работает на кухне.
func (s *service) checkKitchenStaff(userID string) error {
	user, err := s.catalog.GetUser(userID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleKitchen {
		return domain.ErrNotKitchenStaff
	}
	return nil
}
