package handler

import (
	"net/http"

	prefDto "anoa.com/socialgraph/internal/modules/preference/dto"
	preference "anoa.com/socialgraph/internal/modules/preference/service"
	"anoa.com/socialgraph/pkg/response"
	"anoa.com/socialgraph/pkg/validator"
	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	service preference.Service
}

func NewPreferenceHandler(service preference.Service) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

func (h *PreferenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/notifications", h.Get)
	rg.PUT("/settings/notifications", h.Update)
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	prefs, err := h.service.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Success(c, prefs)
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input prefDto.UpdatePreferenceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	pref, err := h.service.UpdatePreference(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Success(c, pref)
}
