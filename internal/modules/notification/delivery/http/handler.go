package handler

import (
	"net/http"
	"net/url"

	notifDto "anoa.com/socialgraph/internal/modules/notification/dto"
	notifService "anoa.com/socialgraph/internal/modules/notification/service"
	"anoa.com/socialgraph/internal/realtime"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"anoa.com/socialgraph/pkg/logger"
	"anoa.com/socialgraph/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service    notifService.NotificationService
	dispatcher *realtime.Dispatcher
	upgrader   websocket.Upgrader
	sendBuffer int
}

// NewNotificationHandler builds the handler. allowedOrigins limits the
// websocket handshake; "*" or an empty list allows any origin.
func NewNotificationHandler(service notifService.NotificationService, dispatcher *realtime.Dispatcher, allowedOrigins []string, sendBuffer int) *NotificationHandler {
	return &NotificationHandler{
		service:    service,
		dispatcher: dispatcher,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	notifications.GET("", h.GetNotifications)
	notifications.GET("/unread-count", h.UnreadCount)
	notifications.PUT("/read-all", h.MarkAllAsRead)
	notifications.PUT("/:id/read", h.MarkAsRead)
	notifications.DELETE("/:id", h.Delete)
	notifications.GET("/ws", h.HandleWebSocket)
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput))
		return
	}

	notifications, err := h.service.GetNotifications(c.Request.Context(), userID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, notifDto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read", "updated": updated})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}

// HandleWebSocket upgrades an authenticated request and keeps the socket
// registered as the user's live channel until it closes.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}

	ch := realtime.NewSocketChannel(conn, h.sendBuffer)
	registry := h.dispatcher.Registry()
	registry.Apply(realtime.Connected{UserID: userID, Channel: ch})
	defer registry.Apply(realtime.Disconnected{UserID: userID, Channel: ch})

	logger.Debug("websocket connected", zap.String("user_id", userID.String()), zap.String("channel", ch.ID()))

	// start the client from the durable count
	if count, err := h.service.UnreadCount(c.Request.Context(), userID); err == nil {
		_ = ch.Send(realtime.Message{Event: realtime.EventUnreadCount, Data: realtime.UnreadCountData{Count: count}})
	}

	ch.Run()
	logger.Debug("websocket disconnected", zap.String("user_id", userID.String()), zap.String("channel", ch.ID()))
}

func (h *NotificationHandler) ownerAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid notification id", apperror.ErrInvalidInput))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, uuid.MustParse(req.ID), true
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[u.Scheme+"://"+u.Host]
	}
}
