package booking

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/middleware"
	"github.com/vaxbook/booking-api/internal/model"
	bookingService "github.com/vaxbook/booking-api/internal/service/booking"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
	"github.com/vaxbook/booking-api/pkg/httputil"
)

type Handler struct {
	service *bookingService.Service
}

func NewHandler(service *bookingService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// CreateBooking books for the authenticated patient. The body's
// patient_id is optional for patients (it must match the token when
// present); administrators may book on behalf of any patient.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	caller, hasCaller := callerPatient(c)
	switch {
	case req.PatientID == uuid.Nil:
		if !hasCaller {
			httputil.RespondWithError(c, apperrors.New(apperrors.KindBadRequest, "patient_id is required"))
			return
		}
		req.PatientID = caller
	case !isAdmin(c) && (!hasCaller || req.PatientID != caller):
		httputil.RespondWithError(c, apperrors.New(apperrors.KindForbidden,
			"bookings can only be created for the authenticated patient"))
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, booking)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking ID", err))
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, booking)
}

func (h *Handler) ListBookings(c *gin.Context) {
	filters, err := filtersFromQuery(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}

// CancelBooking releases a confirmed booking. Patients can cancel only
// their own; a foreign booking id answers not-found rather than
// disclosing that it exists.
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking ID", err))
		return
	}

	if !isAdmin(c) {
		booking, err := h.service.GetBooking(c.Request.Context(), id)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		if caller, ok := callerPatient(c); !ok || booking.PatientID != caller {
			httputil.RespondWithError(c, apperrors.NotFound("booking", nil))
			return
		}
	}

	if err := h.service.CancelBooking(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "booking cancelled"})
}

// callerPatient resolves the patient identity the auth middleware
// extracted from the token. Admin tokens may carry none.
func callerPatient(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(middleware.ContextPatientID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRole) == "admin"
}

func filtersFromQuery(c *gin.Context) (*model.BookingFilters, error) {
	filters := &model.BookingFilters{}

	if v := c.Query("service_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid service_id filter", err)
		}
		filters.ServiceID = id
	}
	if v := c.Query("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid patient_id filter", err)
		}
		filters.PatientID = id
	}
	if v := c.Query("status"); v != "" {
		if v != string(model.BookingStatusConfirmed) && v != string(model.BookingStatusCancelled) {
			return nil, apperrors.New(apperrors.KindBadRequest, "status must be confirmed or cancelled")
		}
		filters.Status = model.BookingStatus(v)
	}
	if v := c.Query("date"); v != "" {
		date, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date filter", err)
		}
		filters.Date = date
	}

	return filters, nil
}
