package analytics

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adslot/internal/shared/utils/response"
)

type Controller interface {
	TrackView(c *gin.Context)
	TrackClick(c *gin.Context)
	TrackError(c *gin.Context)
	GetSlotSummary(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) TrackView(c *gin.Context) {
	ctrl.track(c, KindView)
}

func (ctrl *controller) TrackClick(c *gin.Context) {
	ctrl.track(c, KindClick)
}

func (ctrl *controller) TrackError(c *gin.Context) {
	ctrl.track(c, KindError)
}

func (ctrl *controller) track(c *gin.Context, kind Kind) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.Request.UserAgent()
	}

	event, err := ctrl.service.Track(c.Request.Context(), kind, req, c.ClientIP())
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			response.RespondJSON(c, "error", http.StatusBadRequest, err.Error(), nil, nil)
			return
		}
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to record event", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event recorded", gin.H{"id": event.ID}, nil)
}

func (ctrl *controller) GetSlotSummary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	summary, err := ctrl.service.GetSlotSummary(c.Request.Context(), c.Param("slot_id"), query.Days)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to get slot analytics", nil, err.Error())
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Slot analytics retrieved successfully", summary, nil)
}
