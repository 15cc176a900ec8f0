package handler

import (
	"net/http"
	"strings"

	"anoa.com/socialgraph/internal/modules/admin/dto"
	"anoa.com/socialgraph/internal/realtime"
	"anoa.com/socialgraph/pkg/logger"
	"anoa.com/socialgraph/pkg/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	dispatcher *realtime.Dispatcher
}

func NewAdminHandler(dispatcher *realtime.Dispatcher) *AdminHandler {
	return &AdminHandler{
		dispatcher: dispatcher,
	}
}

// Broadcast sends a system announcement to every connected user.
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var input dto.BroadcastInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message cannot be blank"})
		return
	}

	online := h.dispatcher.Registry().Count()
	delivered := h.dispatcher.BroadcastSystem(c.Request.Context(), message)
	logger.Info("system broadcast sent",
		zap.String("admin_id", c.GetString("user_id")),
		zap.Int("delivered", delivered),
		zap.Int("online", online),
	)

	c.JSON(http.StatusOK, dto.BroadcastResponse{Delivered: delivered, Online: online})
}

func (h *AdminHandler) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PresenceResponse{Online: h.dispatcher.Registry().Count()})
}
