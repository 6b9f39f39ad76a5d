package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// envelope — единый формат ответа API: status + data либо status + message.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondOK(c *gin.Context, code int, data any) {
	c.JSON(code, envelope{Status: "ok", Data: data})
}

// respondError переводит доменные ошибки в HTTP-коды: not found → 404,
// валидация → 400, конфликт версий → 409, остальное → 500.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, envelope{Status: "error", Message: err.Error()})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
	case domain.IsVersionConflict(err):
		c.JSON(http.StatusConflict, envelope{Status: "error", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, envelope{Status: "error", Message: "internal error"})
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: message})
}
