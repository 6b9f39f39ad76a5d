package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

// streamEvents отдаёт события комнат клиента через Server-Sent Events.
// Комнаты выводятся из query-параметров: role подключает клиента к комнате
// роли, userId — к персональной комнате. Без обоих параметров запрос
// отклоняется: анонимный поток не имеет адресата.
func (s *Server) streamEvents(c *gin.Context) {
	tenant := c.Query("tenant")
	if tenant == "" {
		tenant = domain.DefaultTenant
	}

	rooms := make([]string, 0, 2)
	if roleValue := c.Query("role"); roleValue != "" {
		role := domain.Role(roleValue)
		if !domain.IsValidRole(role) {
			respondBadRequest(c, "invalid role")
			return
		}
		rooms = append(rooms, domain.RoleRoom(role, tenant))
	}
	if userID := c.Query("userId"); userID != "" {
		rooms = append(rooms, domain.UserRoom(tenant, userID))
	}
	if len(rooms) == 0 {
		respondBadRequest(c, "role or userId is required")
		return
	}

	sub := s.hub.Subscribe(rooms...)
	defer s.hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent(event.Type, string(event.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
