package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"anoa.com/socialgraph/internal/entity"
	followDto "anoa.com/socialgraph/internal/modules/follow/dto"
	follow "anoa.com/socialgraph/internal/modules/follow/service"
	"anoa.com/socialgraph/pkg/apperror"
	commonDto "anoa.com/socialgraph/pkg/dto"
	"anoa.com/socialgraph/pkg/ratelimiter"
	"anoa.com/socialgraph/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FollowHandler struct {
	service follow.Service
}

func NewFollowHandler(service follow.Service) *FollowHandler {
	return &FollowHandler{service: service}
}

// RegisterRoutes mounts the follow endpoints on an authenticated group.
func (h *FollowHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users/:id")
	users.POST("/follow", h.Follow)
	users.DELETE("/follow", h.Unfollow)
	users.DELETE("/follow-request", h.CancelRequest)
	users.GET("/follow-status", h.Status)
	users.GET("/followers", h.Followers)
	users.GET("/following", h.Following)

	rg.DELETE("/followers/:id", h.RemoveFollower)

	requests := rg.Group("/follow-requests")
	requests.GET("/pending", h.Pending)
	requests.GET("/sent", h.Sent)
	requests.POST("/:id/accept", h.Accept)
	requests.POST("/:id/reject", h.Reject)
}

func (h *FollowHandler) Follow(c *gin.Context) {
	userID, targetID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	edge, err := h.service.RequestFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		var rateLimitErr *ratelimiter.RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
		}
		response.ResponseError(c, err)
		return
	}

	message := "followed successfully"
	if edge.Status == entity.FollowStatusPending {
		message = "follow request sent"
	}
	c.JSON(http.StatusCreated, gin.H{"message": message, "data": followDto.NewFollowResponse(edge)})
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, targetID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}
	if err := h.service.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed successfully"})
}

func (h *FollowHandler) CancelRequest(c *gin.Context) {
	userID, targetID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}
	if err := h.service.CancelRequest(c.Request.Context(), userID, targetID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follow request cancelled"})
}

func (h *FollowHandler) Status(c *gin.Context) {
	userID, targetID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID, targetID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	canView, err := h.service.CanViewProfile(c.Request.Context(), userID, targetID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	status.CanViewProfile = canView

	response.Success(c, status)
}

func (h *FollowHandler) Followers(c *gin.Context) {
	h.listForProfile(c, h.service.ListFollowers)
}

func (h *FollowHandler) Following(c *gin.Context) {
	h.listForProfile(c, h.service.ListFollowing)
}

func (h *FollowHandler) RemoveFollower(c *gin.Context) {
	userID, followerID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}
	if err := h.service.RemoveFollower(c.Request.Context(), userID, followerID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follower removed"})
}

func (h *FollowHandler) Pending(c *gin.Context) {
	h.listOwn(c, h.service.ListPending)
}

func (h *FollowHandler) Sent(c *gin.Context) {
	h.listOwn(c, h.service.ListSent)
}

func (h *FollowHandler) Accept(c *gin.Context) {
	userID, followerID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}
	edge, err := h.service.AcceptFollow(c.Request.Context(), userID, followerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follow request accepted", "data": followDto.NewFollowResponse(edge)})
}

func (h *FollowHandler) Reject(c *gin.Context) {
	userID, followerID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}
	if err := h.service.RejectFollow(c.Request.Context(), userID, followerID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "follow request rejected"})
}

type listFunc func(ctx context.Context, userID uuid.UUID, page commonDto.PageQuery) (*followDto.FollowListResponse, error)

// listOwn serves lists scoped to the authenticated user.
func (h *FollowHandler) listOwn(c *gin.Context, list listFunc) {
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

	result, err := list(c.Request.Context(), userID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// listForProfile serves another user's follower/following lists, hidden
// for private profiles the viewer may not see.
func (h *FollowHandler) listForProfile(c *gin.Context, list listFunc) {
	userID, targetID, ok := h.actorAndTarget(c)
	if !ok {
		return
	}

	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, err.Error(), apperror.ErrInvalidInput))
		return
	}

	canView, err := h.service.CanViewProfile(c.Request.Context(), userID, targetID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !canView {
		response.ResponseError(c, apperror.Forbidden("this account is private"))
		return
	}

	result, err := list(c.Request.Context(), targetID, page)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FollowHandler) actorAndTarget(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, uuid.Nil, false
	}

	var req commonDto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid user id", apperror.ErrInvalidInput))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, uuid.MustParse(req.ID), true
}
