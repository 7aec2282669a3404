package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	availabilityService "github.com/vaxbook/booking-api/internal/service/availability"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
	"github.com/vaxbook/booking-api/pkg/httputil"
	"github.com/vaxbook/booking-api/pkg/metrics"
)

type Handler struct {
	service *availabilityService.Service
	metrics *metrics.Metrics
}

func NewHandler(service *availabilityService.Service, metrics *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: metrics}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/services/:id/availability", h.GetAvailability)
}

// GetAvailability answers the slot listing for one service and date.
// The optional age and gender query parameters apply the eligibility
// filter on top of the window rules; both must be present to count as
// a profile.
func (h *Handler) GetAvailability(c *gin.Context) {
	started := time.Now()
	h.metrics.AvailabilityQueries.Inc()

	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid service ID", err))
		return
	}

	date, err := time.Parse(model.DateLayout, c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("date must be YYYY-MM-DD", err))
		return
	}

	profile, err := profileFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	result, err := h.service.GetAvailability(c.Request.Context(), serviceID, date, profile)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.AvailabilityLatency.Observe(time.Since(started).Seconds())
	httputil.RespondWithSuccess(c, http.StatusOK, result)
}

func profileFromQuery(c *gin.Context) (*model.PatientProfile, error) {
	ageStr, gender := c.Query("age"), c.Query("gender")
	if ageStr == "" && gender == "" {
		return nil, nil
	}
	if ageStr == "" || gender == "" {
		return nil, apperrors.New(apperrors.KindBadRequest, "age and gender must be supplied together")
	}

	age, err := strconv.Atoi(ageStr)
	if err != nil || age < 0 {
		return nil, apperrors.New(apperrors.KindBadRequest, "age must be a non-negative integer")
	}
	if gender != string(model.GenderMale) && gender != string(model.GenderFemale) {
		return nil, apperrors.New(apperrors.KindBadRequest, "gender must be male or female")
	}

	return &model.PatientProfile{Age: age, Gender: model.Gender(gender)}, nil
}
