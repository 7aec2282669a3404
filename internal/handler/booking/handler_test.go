package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxbook/booking-api/internal/middleware"
	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository/memory"
	"github.com/vaxbook/booking-api/internal/scheduling"
	bookingService "github.com/vaxbook/booking-api/internal/service/booking"
	"github.com/vaxbook/booking-api/pkg/logger"
	"github.com/vaxbook/booking-api/pkg/metrics"
)

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.Metrics
)

// Prometheus collectors register globally, so tests share one set.
func newTestMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = metrics.NewMetrics("vaxbook_test", "booking_handler")
	})
	return sharedMetrics
}

// The fixture routes requests through gin's global binding validator,
// which only learns the custom timeofday rule in cmd/api/main.go;
// mirror that registration here so binding does not panic.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, err := model.ParseMinuteOfDay(fl.Field().String())
			return err == nil
		})
	}
}

var handlerNow = time.Date(2026, time.September, 11, 10, 0, 0, 0, time.UTC)

type handlerFixture struct {
	router   *gin.Engine
	bookings *memory.BookingRepository
	svc      *model.Service
}

// newHandlerFixture wires the handler behind a stand-in for the auth
// middleware that reads identity claims from test headers.
func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	services := memory.NewServiceRepository()
	slots := memory.NewTimeSlotRepository()
	bookings := memory.NewBookingRepository()

	intPtr := func(v int) *int { return &v }
	svc := &model.Service{
		Name:             "flu walk-in",
		MinAge:           intPtr(18),
		MaxAge:           intPtr(90),
		GenderConstraint: model.GenderConstraintAny,
		StartMinute:      9 * 60,
		EndMinute:        11 * 60,
		SlotDurationMin:  40,
		AggregateQuota:   10,
		BookingStartDate: time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC),
		BookingEndDate:   time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		AllowedWeekdays:  []int64{1, 2, 3, 4, 5},
		Enabled:          true,
	}
	svc.ID = uuid.New()
	require.NoError(t, services.Create(context.Background(), svc))

	bookingSvc := bookingService.NewService(
		services, slots, bookings,
		scheduling.FixedClock{Time: handlerNow},
		scheduling.WindowPolicy{},
		bookingService.DefaultCommitAttempts,
		logger.NewLogger(nil),
		newTestMetrics(),
	)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextPatientID, c.GetHeader("X-Test-Patient"))
		c.Set(middleware.ContextRole, c.GetHeader("X-Test-Role"))
		c.Next()
	})
	NewHandler(bookingSvc).RegisterRoutes(router.Group(""))

	return &handlerFixture{router: router, bookings: bookings, svc: svc}
}

func (f *handlerFixture) post(t *testing.T, path string, body interface{}, callerID uuid.UUID, role string) *httptest.ResponseRecorder {
	t.Helper()
	raw := []byte(nil)
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Patient", callerID.String())
	req.Header.Set("X-Test-Role", role)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func createBody(svc *model.Service, patientID uuid.UUID) map[string]interface{} {
	body := map[string]interface{}{
		"service_id": svc.ID.String(),
		"date":       "2026-09-14",
		"start_time": "09:00",
		"patient":    map[string]interface{}{"age": 30, "gender": "female"},
	}
	if patientID != uuid.Nil {
		body["patient_id"] = patientID.String()
	}
	return body
}

func TestCreateBooking_BoundToAuthenticatedPatient(t *testing.T) {
	f := newHandlerFixture(t)
	caller := uuid.New()

	// No patient_id in the body: the token's identity fills it in.
	w := f.post(t, "/bookings", createBody(f.svc, uuid.Nil), caller, "patient")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := f.bookings.FindConfirmed(context.Background(), f.svc.ID, caller)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, caller, stored.PatientID)
}

func TestCreateBooking_RejectsForeignPatientID(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.post(t, "/bookings", createBody(f.svc, uuid.New()), uuid.New(), "patient")

	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestCreateBooking_AdminBooksOnBehalf(t *testing.T) {
	f := newHandlerFixture(t)
	patient := uuid.New()

	w := f.post(t, "/bookings", createBody(f.svc, patient), uuid.New(), "admin")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := f.bookings.FindConfirmed(context.Background(), f.svc.ID, patient)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCancelBooking_OwnershipEnforced(t *testing.T) {
	f := newHandlerFixture(t)
	owner := uuid.New()

	w := f.post(t, "/bookings", createBody(f.svc, owner), owner, "patient")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stored, err := f.bookings.FindConfirmed(context.Background(), f.svc.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, stored)
	cancelPath := "/bookings/" + stored.ID.String() + "/cancel"

	// Another patient's token answers not-found and the booking stays
	// confirmed.
	w = f.post(t, cancelPath, nil, uuid.New(), "patient")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	still, err := f.bookings.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, still.Status)

	// The owner can cancel.
	w = f.post(t, cancelPath, nil, owner, "patient")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cancelled, err := f.bookings.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
}
