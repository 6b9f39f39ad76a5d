package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/service/catalog"
)

type productPayload struct {
	Name         string `json:"name"`
	PriceMinor   int64  `json:"price"`
	Image        string `json:"image"`
	CategoryID   string `json:"categoryId"`
	AssignedToID string `json:"assignedToId"`
	IsFinished   *bool  `json:"isFinished"`
}

type swapProductsPayload struct {
	FirstID  string `json:"firstId" binding:"required"`
	SecondID string `json:"secondId" binding:"required"`
}

type categoryPayload struct {
	Name string `json:"name" binding:"required"`
}

type userPayload struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type tablePayload struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

func (p productPayload) toRequest() catalog.ProductRequest {
	return catalog.ProductRequest{
		Name:         p.Name,
		PriceMinor:   p.PriceMinor,
		Image:        p.Image,
		CategoryID:   p.CategoryID,
		AssignedToID: p.AssignedToID,
		IsFinished:   p.IsFinished,
	}
}

func (s *Server) createProduct(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}
	if payload.Name == "" {
		respondBadRequest(c, "product name is required")
		return
	}

	product, err := s.catalog.CreateProduct(payload.toRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toProductView(product))
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.catalog.GetProduct(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toProductView(product))
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.catalog.ListProducts()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toProductViews(products))
}

func (s *Server) updateProduct(c *gin.Context) {
	var payload productPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid product payload")
		return
	}

	product, err := s.catalog.UpdateProduct(c.Param("id"), payload.toRequest())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toProductView(product))
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.catalog.DeleteProduct(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) swapProducts(c *gin.Context) {
	var payload swapProductsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid swap payload")
		return
	}

	if err := s.catalog.SwapProducts(payload.FirstID, payload.SecondID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"firstId": payload.FirstID, "secondId": payload.SecondID})
}

func (s *Server) createCategory(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid category payload")
		return
	}

	category, err := s.catalog.CreateCategory(payload.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toCategoryView(category))
}

func (s *Server) getCategory(c *gin.Context) {
	category, err := s.catalog.GetCategory(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toCategoryView(category))
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toCategoryViews(categories))
}

func (s *Server) updateCategory(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid category payload")
		return
	}

	category, err := s.catalog.UpdateCategory(c.Param("id"), payload.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toCategoryView(category))
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.catalog.DeleteCategory(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) createUser(c *gin.Context) {
	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid user payload")
		return
	}

	user, err := s.catalog.CreateUser(catalog.UserRequest{
		Name:     payload.Name,
		Surname:  payload.Surname,
		Username: payload.Username,
		Role:     domain.Role(payload.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toUserView(user))
}

func (s *Server) getUser(c *gin.Context) {
	user, err := s.catalog.GetUser(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toUserView(user))
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.catalog.ListUsers(domain.Role(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toUserViews(users))
}

func (s *Server) createTable(c *gin.Context) {
	var payload tablePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid table payload")
		return
	}

	table, err := s.catalog.CreateTable(catalog.TableRequest{
		Name:   payload.Name,
		Number: payload.Number,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, toTableView(table))
}

func (s *Server) getTable(c *gin.Context) {
	table, err := s.catalog.GetTable(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	orders, err := s.lifecycle.ListOrders()
	if err != nil {
		respondError(c, err)
		return
	}
	detail := tableDetailView{tableView: toTableView(table), Orders: []orderView{}}
	for _, order := range orders {
		if order.TableID == table.ID && order.Status != domain.OrderStatusArchive {
			detail.Orders = append(detail.Orders, toOrderView(order))
		}
	}
	respondOK(c, http.StatusOK, detail)
}

func (s *Server) listTables(c *gin.Context) {
	tables, err := s.catalog.ListTables()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTableViews(tables))
}

func (s *Server) availableTables(c *gin.Context) {
	tables, err := s.catalog.AvailableTables()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTableViews(tables))
}

func (s *Server) occupiedTables(c *gin.Context) {
	tables, err := s.catalog.OccupiedTables()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTableViews(tables))
}

func (s *Server) updateTable(c *gin.Context) {
	var payload tablePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid table payload")
		return
	}

	table, err := s.catalog.UpdateTable(c.Param("id"), catalog.TableRequest{
		Name:   payload.Name,
		Number: payload.Number,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toTableView(table))
}

func (s *Server) deleteTable(c *gin.Context) {
	if err := s.catalog.DeleteTable(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
}
