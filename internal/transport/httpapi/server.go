package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/notify"
	"github.com/vladislavdragonenkov/resto/internal/service/catalog"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
)

// Server связывает HTTP-маршруты с сервисами заказов и справочников.
type Server struct {
	lifecycle lifecycle.Service
	catalog   catalog.Service
	hub       *notify.Hub
	logger    *log.Entry
}

// NewServer создаёт HTTP-обвязку поверх сервисов. hub может быть nil —
// тогда маршрут /api/events не регистрируется.
func NewServer(
	lifecycleSvc lifecycle.Service,
	catalogSvc catalog.Service,
	hub *notify.Hub,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "httpapi")
	}
	return &Server{
		lifecycle: lifecycleSvc,
		catalog:   catalogSvc,
		hub:       hub,
		logger:    logger,
	}
}

// Router собирает gin-движок со всеми маршрутами API.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	{
		orders := api.Group("/orders")
		{
			orders.POST("", s.createOrder)
			orders.GET("", s.listOrders)
			orders.GET("/:id", s.getOrder)
			orders.PATCH("/:id", s.updateOrder)
			orders.DELETE("/:id", s.deleteOrder)
		}

		items := api.Group("/order-items")
		{
			items.PATCH("/:id", s.updateOrderItem)
			items.DELETE("/:id", s.deleteOrderItem)
		}

		kitchen := api.Group("/kitchen")
		{
			kitchen.GET("/queue", s.kitchenQueue)
			kitchen.GET("/ready", s.readyItems)
		}

		products := api.Group("/products")
		{
			products.POST("", s.createProduct)
			products.GET("", s.listProducts)
			products.GET("/:id", s.getProduct)
			products.PATCH("/:id", s.updateProduct)
			products.DELETE("/:id", s.deleteProduct)
			products.POST("/swap", s.swapProducts)
		}

		categories := api.Group("/categories")
		{
			categories.POST("", s.createCategory)
			categories.GET("", s.listCategories)
			categories.GET("/:id", s.getCategory)
			categories.PATCH("/:id", s.updateCategory)
			categories.DELETE("/:id", s.deleteCategory)
		}

		users := api.Group("/users")
		{
			users.POST("", s.createUser)
			users.GET("", s.listUsers)
			users.GET("/:id", s.getUser)
		}

		tables := api.Group("/tables")
		{
			tables.POST("", s.createTable)
			tables.GET("", s.listTables)
			tables.GET("/available", s.availableTables)
			tables.GET("/occupied", s.occupiedTables)
			tables.GET("/:id", s.getTable)
			tables.PATCH("/:id", s.updateTable)
			tables.DELETE("/:id", s.deleteTable)
		}

		if s.hub != nil {
			api.GET("/events", s.streamEvents)
		}
	}

	return router
}

// requestLogger пишет строку доступа в структурированный лог.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("http request")
	}
}
