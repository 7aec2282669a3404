package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vaxbook/booking-api/internal/model"
)

func generatedService() *model.Service {
	svc := &model.Service{
		StartMinute:     minute(9, 0),
		EndMinute:       minute(11, 0),
		SlotDurationMin: 40,
		AggregateQuota:  10,
		Enabled:         true,
	}
	svc.ID = uuid.New()
	return svc
}

func booked(svc *model.Service, start model.MinuteOfDay) *model.Booking {
	return &model.Booking{
		ServiceID:   svc.ID,
		PatientID:   uuid.New(),
		StartMinute: start,
		EndMinute:   start + model.MinuteOfDay(svc.SlotDurationMin),
		Status:      model.BookingStatusConfirmed,
	}
}

func TestBuildAvailability_GeneratedSpreadsRemainder(t *testing.T) {
	svc := generatedService()
	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 10, 0, 0, 0, time.UTC)

	// 09:00-11:00 at 40 minutes gives 3 candidates. Quota 10 with 7
	// booked leaves 3, so each candidate advertises ceil(3/3) = 1.
	bookings := make([]*model.Booking, 0, 7)
	for i := 0; i < 7; i++ {
		bookings = append(bookings, booked(svc, minute(9, 0)))
	}

	slots := BuildAvailability(svc, day, now, bookings, nil)

	assert.Len(t, slots, 3)
	for _, s := range slots {
		assert.Equal(t, 1, s.Quota)
	}
	// All seven confirmed bookings sit on the first candidate.
	assert.Equal(t, 7, slots[0].Booked)
	assert.Equal(t, 0, slots[0].Remaining)
	assert.False(t, slots[0].Available)
	assert.True(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestBuildAvailability_GeneratedExhausted(t *testing.T) {
	svc := generatedService()
	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 10, 0, 0, 0, time.UTC)

	bookings := make([]*model.Booking, 0, 10)
	for i := 0; i < 10; i++ {
		bookings = append(bookings, booked(svc, minute(9, 40)))
	}

	slots := BuildAvailability(svc, day, now, bookings, nil)

	for _, s := range slots {
		assert.Equal(t, 0, s.Quota)
		assert.False(t, s.Available)
	}
}

func TestBuildAvailability_GeneratedOrderedByStart(t *testing.T) {
	svc := generatedService()
	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 10, 0, 0, 0, time.UTC)

	slots := BuildAvailability(svc, day, now, nil, nil)

	assert.Len(t, slots, 3)
	for i := 1; i < len(slots); i++ {
		assert.Less(t, int(slots[i-1].Start), int(slots[i].Start))
	}
}

func TestBuildAvailability_ExplicitSlots(t *testing.T) {
	svc := &model.Service{
		StartMinute:       minute(9, 0),
		EndMinute:         minute(17, 0),
		UsesExplicitSlots: true,
		Enabled:           true,
	}
	svc.ID = uuid.New()

	a := slot(minute(10, 0), minute(10, 30), true)
	a.Quota = 2
	b := slot(minute(9, 0), minute(9, 30), true)
	b.Quota = 1

	bookings := []*model.Booking{
		{ServiceID: svc.ID, SlotID: &a.ID, StartMinute: a.StartMinute, EndMinute: a.EndMinute},
	}

	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 10, 0, 0, 0, time.UTC)
	slots := BuildAvailability(svc, day, now, bookings, []*model.TimeSlot{a, b})

	assert.Len(t, slots, 2)
	// Sorted by start despite input order.
	assert.Equal(t, b.ID, *slots[0].SlotID)
	assert.Equal(t, a.ID, *slots[1].SlotID)

	assert.Equal(t, 0, slots[0].Booked)
	assert.Equal(t, 1, slots[0].Remaining)
	assert.True(t, slots[0].Available)

	assert.Equal(t, 1, slots[1].Booked)
	assert.Equal(t, 1, slots[1].Remaining)
	assert.True(t, slots[1].Available)
}

func TestBuildAvailability_DisabledExplicitSlotNeverAvailable(t *testing.T) {
	svc := &model.Service{
		StartMinute:       minute(9, 0),
		EndMinute:         minute(17, 0),
		UsesExplicitSlots: true,
		Enabled:           true,
	}
	svc.ID = uuid.New()

	s := slot(minute(9, 0), minute(9, 30), false)
	s.Quota = 5

	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 10, 0, 0, 0, time.UTC)
	slots := BuildAvailability(svc, day, now, nil, []*model.TimeSlot{s})

	assert.Len(t, slots, 1)
	assert.Equal(t, 5, slots[0].Remaining)
	assert.False(t, slots[0].Available)
}

func TestBuildAvailability_SameDayCutoff(t *testing.T) {
	svc := generatedService()
	svc.CutoffMinutes = 30
	day := date(2026, time.September, 14)

	// 09:20 on the day itself: the 09:00 slot is past, and the 09:40
	// slot starts in 20 minutes, inside the 30-minute cutoff. Only the
	// 10:20 slot is still bookable.
	now := time.Date(2026, time.September, 14, 9, 20, 0, 0, time.UTC)
	slots := BuildAvailability(svc, day, now, nil, nil)

	assert.Len(t, slots, 3)
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestBuildAvailability_CutoffIgnoredOnFutureDates(t *testing.T) {
	svc := generatedService()
	svc.CutoffMinutes = 30
	day := date(2026, time.September, 14)
	now := time.Date(2026, time.September, 10, 16, 59, 0, 0, time.UTC)

	slots := BuildAvailability(svc, day, now, nil, nil)
	for _, s := range slots {
		assert.True(t, s.Available)
	}
}

func TestBuildAvailability_CutoffWestOfUTC(t *testing.T) {
	svc := generatedService()
	svc.Timezone = "America/New_York"
	svc.CutoffMinutes = 30
	day := date(2026, time.September, 14)

	// 13:20 UTC is 09:20 in New York on the requested day: the 09:00
	// and 09:40 candidates are inside the cutoff, 10:20 is not. The
	// UTC-midnight date must still count as the same day.
	now := time.Date(2026, time.September, 14, 13, 20, 0, 0, time.UTC)

	slots := BuildAvailability(svc, day, now, nil, nil)

	assert.Len(t, slots, 3)
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}
