package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository"
	"github.com/vaxbook/booking-api/internal/scheduling"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
	"github.com/vaxbook/booking-api/pkg/logger"
	"github.com/vaxbook/booking-api/pkg/metrics"
)

// DefaultCommitAttempts bounds the optimistic retry around the atomic
// commit. Business rejections are terminal; only transient commit
// conflicts are retried.
const DefaultCommitAttempts = 3

type Service struct {
	services repository.ServiceRepository
	slots    repository.TimeSlotRepository
	bookings repository.BookingRepository
	clock    scheduling.Clock
	policy   scheduling.WindowPolicy
	attempts int
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(
	services repository.ServiceRepository,
	slots repository.TimeSlotRepository,
	bookings repository.BookingRepository,
	clock scheduling.Clock,
	policy scheduling.WindowPolicy,
	attempts int,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if attempts <= 0 {
		attempts = DefaultCommitAttempts
	}
	return &Service{
		services: services,
		slots:    slots,
		bookings: bookings,
		clock:    clock,
		policy:   policy,
		attempts: attempts,
		logger:   logger,
		metrics:  metrics,
	}
}

// CreateBooking runs the full validate-then-commit sequence. Every rule
// is re-checked against freshly read data on each attempt; availability
// seen earlier by the client carries no authority here.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	var booking *model.Booking
	var err error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		booking, err = s.tryCreate(ctx, req)
		if err == nil {
			s.metrics.BookingsCreated.Inc()
			return booking, nil
		}
		if !apperrors.Is(err, apperrors.KindCommitConflict) {
			s.metrics.BookingsRejected.WithLabelValues(string(apperrors.KindOf(err))).Inc()
			return nil, err
		}
		s.metrics.CommitRetries.Inc()
		s.logger.Info("retrying booking commit after conflict",
			"attempt", attempt,
			"service_id", req.ServiceID.String(),
			"patient_id", req.PatientID.String())
	}

	// Retries exhausted: the slot is being fought over; report it full
	// rather than leaking the transient conflict.
	s.metrics.BookingsRejected.WithLabelValues(string(apperrors.KindSlotFull)).Inc()
	return nil, apperrors.Wrap(apperrors.KindSlotFull, "slot contention persisted across retries", err)
}

func (s *Service) tryCreate(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	svc, err := s.services.Get(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	if !scheduling.Eligible(req.Patient, svc) {
		return nil, apperrors.New(apperrors.KindIneligiblePatient, "patient does not match the service's eligibility profile").
			WithDetail("min_age", svc.MinAge).
			WithDetail("max_age", svc.MaxAge).
			WithDetail("gender_constraint", svc.GenderConstraint)
	}

	loc := svc.Location()
	date, err := time.ParseInLocation(model.DateLayout, req.Date, loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}

	now := s.clock.Now()
	if ok, reason := s.policy.Evaluate(svc, date, now); !ok {
		return nil, apperrors.New(apperrors.KindWindowClosed, "date is not open for booking").
			WithDetail("reason", reason)
	}

	if existing, err := s.bookings.FindConfirmed(ctx, req.ServiceID, req.PatientID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperrors.New(apperrors.KindDuplicateBooking, "patient already has a confirmed booking for this service").
			WithDetail("conflicting_booking_id", existing.ID)
	}

	booking := &model.Booking{
		ServiceID: req.ServiceID,
		PatientID: req.PatientID,
		Date:      model.Civil(date, loc),
	}

	var chosenSlot *model.TimeSlot
	if svc.UsesExplicitSlots {
		chosenSlot, err = s.resolveExplicitSlot(ctx, svc, req, booking)
	} else {
		err = s.resolveGeneratedSlot(svc, req, booking)
	}
	if err != nil {
		return nil, err
	}

	if err := s.checkCutoff(svc, booking, now); err != nil {
		return nil, err
	}

	revalidate := func(confirmed []*model.Booking) error {
		return s.checkCapacity(svc, booking, chosenSlot, confirmed)
	}
	if err := s.bookings.CreateConfirmed(ctx, booking, revalidate); err != nil {
		return nil, err
	}

	s.logger.Info("booking confirmed",
		"booking_id", booking.ID.String(),
		"service_id", booking.ServiceID.String(),
		"date", req.Date,
		"start", booking.StartMinute.String())
	return booking, nil
}

func (s *Service) resolveExplicitSlot(ctx context.Context, svc *model.Service, req *model.CreateBookingRequest, booking *model.Booking) (*model.TimeSlot, error) {
	if req.SlotID == nil {
		return nil, apperrors.New(apperrors.KindBadRequest, "slot_id is required for this service")
	}

	slot, err := s.slots.Get(ctx, *req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.ServiceID != svc.ID {
		return nil, apperrors.New(apperrors.KindBadRequest, "slot does not belong to this service")
	}
	if !slot.Enabled {
		return nil, apperrors.New(apperrors.KindSlotDisabled, "the chosen slot has been disabled").
			WithDetail("slot_id", slot.ID)
	}

	booking.SlotID = &slot.ID
	booking.StartMinute = slot.StartMinute
	booking.EndMinute = slot.EndMinute
	return slot, nil
}

func (s *Service) resolveGeneratedSlot(svc *model.Service, req *model.CreateBookingRequest, booking *model.Booking) error {
	if req.StartTime == "" {
		return apperrors.New(apperrors.KindBadRequest, "start_time is required for this service")
	}
	start, err := model.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		return apperrors.BadRequest("invalid start time", err)
	}

	for _, c := range scheduling.GenerateGrid(svc.StartMinute, svc.EndMinute, svc.SlotDurationMin) {
		if c.Start == start {
			booking.StartMinute = c.Start
			booking.EndMinute = c.End
			return nil
		}
	}
	return apperrors.New(apperrors.KindBadRequest, "start_time does not match any candidate slot").
		WithDetail("start_time", req.StartTime)
}

// checkCutoff applies the per-slot half of the same-day rule with the
// commit-time clock.
func (s *Service) checkCutoff(svc *model.Service, booking *model.Booking, now time.Time) error {
	loc := svc.Location()
	if !model.SameDate(booking.Date, now, loc) {
		return nil
	}
	nowMin := scheduling.MinuteOf(now.In(loc))
	if nowMin >= booking.StartMinute-model.MinuteOfDay(svc.CutoffMinutes) {
		return apperrors.New(apperrors.KindWindowClosed, "the cutoff for this slot has passed").
			WithDetail("reason", scheduling.ReasonCutoff).
			WithDetail("cutoff_minutes", svc.CutoffMinutes)
	}
	return nil
}

// checkCapacity runs inside the commit transaction against the
// confirmed bookings read under lock.
func (s *Service) checkCapacity(svc *model.Service, booking *model.Booking, slot *model.TimeSlot, confirmed []*model.Booking) error {
	if svc.UsesExplicitSlots {
		booked := 0
		for _, b := range confirmed {
			if b.SlotID != nil && *b.SlotID == slot.ID {
				booked++
			}
		}
		if booked >= slot.Quota {
			return apperrors.New(apperrors.KindSlotFull, "the chosen slot is fully booked").
				WithDetail("slot_id", slot.ID).
				WithDetail("quota", slot.Quota)
		}
		return nil
	}

	if len(confirmed) >= svc.AggregateQuota {
		return apperrors.New(apperrors.KindSlotFull, "the service's daily capacity is exhausted").
			WithDetail("aggregate_quota", svc.AggregateQuota)
	}

	grid := scheduling.GenerateGrid(svc.StartMinute, svc.EndMinute, svc.SlotDurationMin)
	if len(grid) == 0 {
		return apperrors.New(apperrors.KindConfiguration, "service hours and slot duration produce no candidate slots")
	}

	remainingCap := svc.AggregateQuota - len(confirmed)
	perSlot := (remainingCap + len(grid) - 1) / len(grid)
	if perSlot < 1 {
		perSlot = 1
	}

	booked := 0
	for _, b := range confirmed {
		if b.StartMinute == booking.StartMinute {
			booked++
		}
	}
	if booked >= perSlot {
		return apperrors.New(apperrors.KindSlotFull, "the chosen slot is fully booked").
			WithDetail("start", booking.StartMinute.String()).
			WithDetail("quota", perSlot)
	}
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookings.Get(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	return s.bookings.List(ctx, filters)
}

// CancelBooking releases the patient's confirmed booking, freeing the
// one-active-booking constraint for a future booking.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	if err := s.bookings.Cancel(ctx, id); err != nil {
		return err
	}
	s.metrics.BookingsCancelled.Inc()
	s.logger.Info("booking cancelled", "booking_id", id.String())
	return nil
}
