package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository/memory"
	"github.com/vaxbook/booking-api/internal/scheduling"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
	"github.com/vaxbook/booking-api/pkg/logger"
	"github.com/vaxbook/booking-api/pkg/metrics"
)

type fixture struct {
	services *memory.ServiceRepository
	slots    *memory.TimeSlotRepository
	bookings *memory.BookingRepository
	svc      *Service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	services := memory.NewServiceRepository()
	slots := memory.NewTimeSlotRepository()
	bookings := memory.NewBookingRepository()

	svc := NewService(
		services, slots, bookings,
		scheduling.FixedClock{Time: now},
		scheduling.WindowPolicy{},
		DefaultCommitAttempts,
		logger.NewLogger(nil),
		newTestMetrics(),
	)
	return &fixture{services: services, slots: slots, bookings: bookings, svc: svc}
}

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.Metrics
)

// Prometheus collectors register globally, so tests share one set.
func newTestMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = metrics.NewMetrics("vaxbook_test", "booking")
	})
	return sharedMetrics
}

func intPtr(v int) *int { return &v }

func generatedService() *model.Service {
	svc := &model.Service{
		Name:             "flu Q3 campaign",
		MinAge:           intPtr(18),
		MaxAge:           intPtr(90),
		GenderConstraint: model.GenderConstraintAny,
		StartMinute:      9 * 60,
		EndMinute:        11 * 60,
		SlotDurationMin:  40,
		AggregateQuota:   10,
		BookingStartDate: time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC),
		BookingEndDate:   time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		AdvanceDays:      3,
		AllowedWeekdays:  []int64{1, 2, 3, 4, 5},
		Enabled:          true,
	}
	svc.ID = uuid.New()
	return svc
}

func bookingRequest(svc *model.Service) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		ServiceID: svc.ID,
		PatientID: uuid.New(),
		Date:      "2026-09-14",
		StartTime: "09:00",
		Patient:   model.PatientProfile{Age: 30, Gender: model.GenderFemale},
	}
}

var testNow = time.Date(2026, time.September, 11, 10, 0, 0, 0, time.UTC)

func TestCreateBooking_Generated(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	booking, err := f.svc.CreateBooking(context.Background(), bookingRequest(svc))

	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, model.MinuteOfDay(9*60), booking.StartMinute)
	assert.Equal(t, model.MinuteOfDay(9*60+40), booking.EndMinute)
	assert.Nil(t, booking.SlotID)
}

func TestCreateBooking_IneligiblePatient(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	req.Patient.Age = 17

	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindIneligiblePatient))
}

func TestCreateBooking_WindowClosed(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	req.Date = "2026-09-26"

	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindWindowClosed))
}

func TestCreateBooking_StartMustMatchGrid(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	req.StartTime = "09:10"

	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindBadRequest))
}

func TestCreateBooking_DuplicateRejected(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	_, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	// Same patient, different slot on the same service.
	again := *req
	again.StartTime = "09:40"
	_, err = f.svc.CreateBooking(context.Background(), &again)

	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateBooking))
}

func TestCreateBooking_RebookAfterCancel(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	first, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelBooking(context.Background(), first.ID))

	second, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateBooking_SameDayCutoff(t *testing.T) {
	// 09:45 on the booking day with a 30-minute cutoff: 09:40 has
	// already started, and even 10:20 starting in 35 minutes is the
	// only slot far enough out.
	now := time.Date(2026, time.September, 14, 9, 45, 0, 0, time.UTC)
	f := newFixture(t, now)
	svc := generatedService()
	svc.CutoffMinutes = 30
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	req.StartTime = "09:40"
	_, err := f.svc.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindWindowClosed))

	req = bookingRequest(svc)
	req.StartTime = "10:20"
	_, err = f.svc.CreateBooking(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateBooking_AggregateQuotaConserved(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	svc.AggregateQuota = 4
	require.NoError(t, f.services.Create(context.Background(), svc))

	starts := []string{"09:00", "09:40", "10:20"}
	confirmed := 0
	for i := 0; i < 8; i++ {
		req := bookingRequest(svc)
		req.StartTime = starts[i%len(starts)]
		if _, err := f.svc.CreateBooking(context.Background(), req); err == nil {
			confirmed++
		} else {
			assert.True(t, apperrors.Is(err, apperrors.KindSlotFull))
		}
	}

	assert.LessOrEqual(t, confirmed, svc.AggregateQuota)
}

func TestCreateBooking_ExplicitSlot(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	svc.UsesExplicitSlots = true
	require.NoError(t, f.services.Create(context.Background(), svc))

	slot := &model.TimeSlot{
		ServiceID:   svc.ID,
		StartMinute: 9 * 60,
		EndMinute:   9*60 + 30,
		Quota:       1,
		Enabled:     true,
	}
	require.NoError(t, f.slots.Create(context.Background(), slot))

	req := bookingRequest(svc)
	req.StartTime = ""
	req.SlotID = &slot.ID

	booking, err := f.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, *booking.SlotID)
	assert.Equal(t, slot.StartMinute, booking.StartMinute)

	// Quota 1 is now exhausted.
	again := bookingRequest(svc)
	again.StartTime = ""
	again.SlotID = &slot.ID
	_, err = f.svc.CreateBooking(context.Background(), again)
	assert.True(t, apperrors.Is(err, apperrors.KindSlotFull))
}

func TestCreateBooking_ExplicitSlotValidation(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	svc.UsesExplicitSlots = true
	require.NoError(t, f.services.Create(context.Background(), svc))

	disabled := &model.TimeSlot{
		ServiceID:   svc.ID,
		StartMinute: 10 * 60,
		EndMinute:   10*60 + 30,
		Quota:       5,
		Enabled:     false,
	}
	require.NoError(t, f.slots.Create(context.Background(), disabled))

	other := generatedService()
	require.NoError(t, f.services.Create(context.Background(), other))
	foreign := &model.TimeSlot{
		ServiceID:   other.ID,
		StartMinute: 9 * 60,
		EndMinute:   9*60 + 30,
		Quota:       5,
		Enabled:     true,
	}
	require.NoError(t, f.slots.Create(context.Background(), foreign))

	// Missing slot ID.
	req := bookingRequest(svc)
	req.StartTime = ""
	_, err := f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindBadRequest))

	// Disabled slot.
	req = bookingRequest(svc)
	req.StartTime = ""
	req.SlotID = &disabled.ID
	_, err = f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindSlotDisabled))

	// Slot of another service.
	req = bookingRequest(svc)
	req.StartTime = ""
	req.SlotID = &foreign.ID
	_, err = f.svc.CreateBooking(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindBadRequest))
}

func TestCreateBooking_ConcurrentSamePatient(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	require.NoError(t, f.services.Create(context.Background(), svc))

	req := bookingRequest(svc)
	const attempts = 16

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := *req
			_, errs[i] = f.svc.CreateBooking(context.Background(), &r)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.Is(err, apperrors.KindDuplicateBooking))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestCreateBooking_ConcurrentCapacityConserved(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	svc.UsesExplicitSlots = true
	require.NoError(t, f.services.Create(context.Background(), svc))

	slot := &model.TimeSlot{
		ServiceID:   svc.ID,
		StartMinute: 9 * 60,
		EndMinute:   9*60 + 30,
		Quota:       3,
		Enabled:     true,
	}
	require.NoError(t, f.slots.Create(context.Background(), slot))

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := bookingRequest(svc)
			req.StartTime = ""
			req.SlotID = &slot.ID
			_, errs[i] = f.svc.CreateBooking(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, slot.Quota, succeeded)

	confirmed, err := f.bookings.ListConfirmed(context.Background(), svc.ID,
		time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, confirmed, slot.Quota)
}

func TestCancelBooking_NotFound(t *testing.T) {
	f := newFixture(t, testNow)
	err := f.svc.CancelBooking(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCreateBooking_WestOfUTCWindowEnd(t *testing.T) {
	f := newFixture(t, testNow)
	svc := generatedService()
	svc.Timezone = "America/New_York"
	svc.AllowedWeekdays = []int64{0, 1, 2, 3, 4, 5, 6}
	require.NoError(t, f.services.Create(context.Background(), svc))

	// The window end comes back from a DATE column as UTC midnight;
	// the last day of the window must still be bookable in New York.
	req := bookingRequest(svc)
	req.Date = "2026-09-20"

	booking, err := f.svc.CreateBooking(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "2026-09-20", booking.Date.Format(model.DateLayout))
}
