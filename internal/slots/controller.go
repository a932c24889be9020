package slots

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adslot/internal/shared/middleware"
	"adslot/internal/shared/utils/response"
)

type Controller interface {
	CreateSlot(c *gin.Context)
	GetSlot(c *gin.Context)
	ListSlots(c *gin.Context)
	DeleteSlot(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateSlot(c *gin.Context) {
	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	slot, err := ctrl.service.CreateSlot(c.Request.Context(), middleware.GetSubject(c), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotExists):
			response.RespondJSON(c, "error", http.StatusConflict, "Slot already exists", nil, nil)
		case errors.Is(err, ErrInvalidSlot):
			response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to create slot", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Slot created successfully", slot, nil)
}

func (ctrl *controller) GetSlot(c *gin.Context) {
	slot, err := ctrl.service.GetSlot(c.Request.Context(), c.Param("slot_id"))
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			response.RespondJSON(c, "error", http.StatusNotFound, "Slot not found", nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to get slot", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slot retrieved successfully", slot.ToResponse(), nil)
}

func (ctrl *controller) ListSlots(c *gin.Context) {
	var query SlotListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	page, err := ctrl.service.ListSlots(c.Request.Context(), query)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to list slots", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slots retrieved successfully", page, nil)
}

func (ctrl *controller) DeleteSlot(c *gin.Context) {
	slotID := c.Param("slot_id")
	isAdmin := middleware.GetRole(c) == middleware.RoleAdmin

	err := ctrl.service.DeleteSlot(c.Request.Context(), slotID, middleware.GetSubject(c), isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			response.RespondJSON(c, "error", http.StatusNotFound, "Slot not found", nil, nil)
		case errors.Is(err, ErrForbidden):
			response.RespondJSON(c, "error", http.StatusForbidden, "Slot belongs to another publisher", nil, nil)
		default:
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to delete slot", nil, err.Error())
		}
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slot deleted successfully", nil, nil)
}
