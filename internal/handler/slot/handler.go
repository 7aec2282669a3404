package slot

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	slotService "github.com/vaxbook/booking-api/internal/service/slot"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
	"github.com/vaxbook/booking-api/pkg/httputil"
)

type Handler struct {
	service *slotService.Service
}

func NewHandler(service *slotService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/services/:id/slots", h.ListSlots)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/services/:id/slots", h.CreateSlot)
	r.POST("/services/:id/slots/validate", h.ValidateSlot)
	r.DELETE("/slots/:id", h.DeleteSlot)
}

func (h *Handler) ListSlots(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service ID", err))
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), serviceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, slots)
}

func (h *Handler) CreateSlot(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service ID", err))
		return
	}

	var req model.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), serviceID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, slot)
}

// ValidateSlot is the dry-run half of slot creation: it reports every
// conflicting slot without writing anything.
func (h *Handler) ValidateSlot(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service ID", err))
		return
	}

	var req model.ValidateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	start, err := model.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid start time", err))
		return
	}
	end, err := model.ParseMinuteOfDay(req.EndTime)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid end time", err))
		return
	}
	if end <= start {
		httputil.RespondWithError(c, apperrors.New(apperrors.KindBadRequest, "end time must be after start time"))
		return
	}

	result, err := h.service.Validate(c.Request.Context(), serviceID, start, end, req.ExcludeSlotID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, result)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid slot ID", err))
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "slot deleted"})
}
