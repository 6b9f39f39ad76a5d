package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
)

type orderLinePayload struct {
	ProductID   string `json:"productId" binding:"required"`
	Count       int32  `json:"count" binding:"required"`
	Description string `json:"description"`
}

type createOrderPayload struct {
	TableID       string             `json:"tableId"`
	UserID        string             `json:"userId"`
	CarrierNumber string             `json:"carrierNumber"`
	Items         []orderLinePayload `json:"orderItems" binding:"required"`
}

type updateOrderPayload struct {
	TableID       *string            `json:"tableId"`
	UserID        *string            `json:"userId"`
	CarrierNumber *string            `json:"carrierNumber"`
	Status        *string            `json:"status"`
	Items         []orderLinePayload `json:"orderItems"`
}

type updateItemPayload struct {
	Count       *int32  `json:"count"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

func toLines(payload []orderLinePayload) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(payload))
	for _, line := range payload {
		lines = append(lines, domain.OrderLine{
			ProductID:   line.ProductID,
			Count:       line.Count,
			Description: line.Description,
		})
	}
	return lines
}

func (s *Server) createOrder(c *gin.Context) {
	var payload createOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid order payload")
		return
	}

	order, err := s.lifecycle.CreateOrder(lifecycle.CreateOrderRequest{
		TableID:       payload.TableID,
		UserID:        payload.UserID,
		CarrierNumber: payload.CarrierNumber,
		Lines:         toLines(payload.Items),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, toOrderView(order))
}

func (s *Server) getOrder(c *gin.Context) {
	order, err := s.lifecycle.GetOrder(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toOrderView(order))
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.lifecycle.ListOrders()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toOrderViews(orders))
}

func (s *Server) updateOrder(c *gin.Context) {
	var payload updateOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid order payload")
		return
	}

	req := lifecycle.UpdateOrderRequest{
		TableID:       payload.TableID,
		UserID:        payload.UserID,
		CarrierNumber: payload.CarrierNumber,
	}
	if payload.Status != nil {
		status := domain.OrderStatus(*payload.Status)
		req.Status = &status
	}
	if payload.Items != nil {
		req.Lines = toLines(payload.Items)
	}

	order, err := s.lifecycle.UpdateOrder(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, toOrderView(order))
}

func (s *Server) deleteOrder(c *gin.Context) {
	if err := s.lifecycle.RemoveOrder(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) updateOrderItem(c *gin.Context) {
	var payload updateItemPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid order item payload")
		return
	}

	req := lifecycle.UpdateItemRequest{
		Count:       payload.Count,
		Description: payload.Description,
	}
	if payload.Status != nil {
		status := domain.OrderItemStatus(*payload.Status)
		req.Status = &status
	}

	change, err := s.lifecycle.UpdateOrderItem(c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if change.Deleted {
		respondOK(c, http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
		return
	}
	respondOK(c, http.StatusOK, toItemView(change.Item))
}

func (s *Server) deleteOrderItem(c *gin.Context) {
	if err := s.lifecycle.RemoveOrderItem(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": c.Param("id")})
}

func (s *Server) kitchenQueue(c *gin.Context) {
	orders, err := s.lifecycle.KitchenQueue()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toOrderViews(orders))
}

func (s *Server) readyItems(c *gin.Context) {
	items, err := s.lifecycle.ReadyItems()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, toReadyItemViews(items))
}
