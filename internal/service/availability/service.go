package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository"
	"github.com/vaxbook/booking-api/internal/scheduling"
	"github.com/vaxbook/booking-api/internal/service/catalog"
)

// Service answers read-only availability queries. Results may be stale
// relative to in-flight commits; the booking path re-validates against
// fresh reads, so staleness here is acceptable.
type Service struct {
	catalog  *catalog.Service
	slots    repository.TimeSlotRepository
	bookings repository.BookingRepository
	clock    scheduling.Clock
	policy   scheduling.WindowPolicy
}

func NewService(
	catalog *catalog.Service,
	slots repository.TimeSlotRepository,
	bookings repository.BookingRepository,
	clock scheduling.Clock,
	policy scheduling.WindowPolicy,
) *Service {
	return &Service{
		catalog:  catalog,
		slots:    slots,
		bookings: bookings,
		clock:    clock,
		policy:   policy,
	}
}

type Availability struct {
	Bookable bool                          `json:"bookable"`
	Reason   scheduling.Reason             `json:"reason,omitempty"`
	Slots    []scheduling.SlotAvailability `json:"slots"`
}

// GetAvailability gates the date through the booking-window rules, then
// annotates the service's slots with remaining capacity. A profile, if
// supplied, is matched against the eligibility constraints first. An
// inconsistently configured service yields zero slots, not an error.
func (s *Service) GetAvailability(ctx context.Context, serviceID uuid.UUID, date time.Time, profile *model.PatientProfile) (*Availability, error) {
	svc, err := s.catalog.GetCached(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	if profile != nil && !scheduling.Eligible(*profile, svc) {
		return &Availability{Bookable: false, Reason: scheduling.ReasonIneligible, Slots: []scheduling.SlotAvailability{}}, nil
	}

	now := s.clock.Now()
	if ok, reason := s.policy.Evaluate(svc, date, now); !ok {
		return &Availability{Bookable: false, Reason: reason, Slots: []scheduling.SlotAvailability{}}, nil
	}

	bookings, err := s.bookings.ListConfirmed(ctx, serviceID, model.Civil(date, svc.Location()))
	if err != nil {
		return nil, err
	}

	var explicit []*model.TimeSlot
	if svc.UsesExplicitSlots {
		explicit, err = s.slots.ListEnabled(ctx, serviceID)
		if err != nil {
			return nil, err
		}
	}

	slots := scheduling.BuildAvailability(svc, date, now, bookings, explicit)
	if slots == nil {
		slots = []scheduling.SlotAvailability{}
	}
	return &Availability{Bookable: true, Slots: slots}, nil
}
