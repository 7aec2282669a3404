// Package memory provides map-backed repository implementations that
// mirror the postgres store's commit semantics: one lock serializes
// booking commits, revalidation runs against the confirmed set under
// that lock, and the one-confirmed-booking rule is enforced the way
// the partial unique index enforces it. Service and handler tests run
// against these.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

type ServiceRepository struct {
	mu       sync.RWMutex
	services map[uuid.UUID]*model.Service
}

func NewServiceRepository() *ServiceRepository {
	return &ServiceRepository{services: make(map[uuid.UUID]*model.Service)}
}

func (r *ServiceRepository) Create(_ context.Context, svc *model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	svc.CreatedAt = time.Now()
	svc.UpdatedAt = svc.CreatedAt
	r.services[svc.ID] = svc
	return nil
}

func (r *ServiceRepository) Get(_ context.Context, id uuid.UUID) (*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, apperrors.NotFound("service", nil)
	}
	return svc, nil
}

func (r *ServiceRepository) Update(_ context.Context, svc *model.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[svc.ID]; !ok {
		return apperrors.NotFound("service", nil)
	}
	svc.UpdatedAt = time.Now()
	r.services[svc.ID] = svc
	return nil
}

func (r *ServiceRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return apperrors.NotFound("service", nil)
	}
	delete(r.services, id)
	return nil
}

func (r *ServiceRepository) List(_ context.Context) ([]*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Service, 0, len(r.services))
	for _, svc := range r.services {
		out = append(out, svc)
	}
	return out, nil
}

type TimeSlotRepository struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*model.TimeSlot
}

func NewTimeSlotRepository() *TimeSlotRepository {
	return &TimeSlotRepository{slots: make(map[uuid.UUID]*model.TimeSlot)}
}

func (r *TimeSlotRepository) Create(_ context.Context, slot *model.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	r.slots[slot.ID] = slot
	return nil
}

func (r *TimeSlotRepository) Get(_ context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, apperrors.NotFound("time slot", nil)
	}
	return slot, nil
}

func (r *TimeSlotRepository) ListEnabled(_ context.Context, serviceID uuid.UUID) ([]*model.TimeSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.TimeSlot
	for _, s := range r.slots {
		if s.ServiceID == serviceID && s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *TimeSlotRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return apperrors.NotFound("time slot", nil)
	}
	delete(r.slots, id)
	return nil
}

type BookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*model.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[uuid.UUID]*model.Booking)}
}

func (r *BookingRepository) Get(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking", nil)
	}
	return b, nil
}

func (r *BookingRepository) List(_ context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if filters.ServiceID != uuid.Nil && b.ServiceID != filters.ServiceID {
			continue
		}
		if filters.PatientID != uuid.Nil && b.PatientID != filters.PatientID {
			continue
		}
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		if !filters.Date.IsZero() && !model.SameCivil(b.Date, filters.Date) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *BookingRepository) ListConfirmed(_ context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirmedLocked(serviceID, date), nil
}

func (r *BookingRepository) confirmedLocked(serviceID uuid.UUID, date time.Time) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && b.Status == model.BookingStatusConfirmed && model.SameCivil(b.Date, date) {
			out = append(out, b)
		}
	}
	return out
}

func (r *BookingRepository) FindConfirmed(_ context.Context, serviceID, patientID uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && b.PatientID == patientID && b.Status == model.BookingStatusConfirmed {
			return b, nil
		}
	}
	return nil, nil
}

func (r *BookingRepository) CreateConfirmed(_ context.Context, booking *model.Booking, revalidate func(confirmed []*model.Booking) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.ServiceID == booking.ServiceID && b.PatientID == booking.PatientID && b.Status == model.BookingStatusConfirmed {
			return apperrors.New(apperrors.KindDuplicateBooking, "patient already has a confirmed booking for this service").
				WithDetail("conflicting_booking_id", b.ID)
		}
	}

	if err := revalidate(r.confirmedLocked(booking.ServiceID, booking.Date)); err != nil {
		return err
	}

	booking.ID = uuid.New()
	booking.Status = model.BookingStatusConfirmed
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	r.bookings[booking.ID] = booking
	return nil
}

func (r *BookingRepository) Cancel(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != model.BookingStatusConfirmed {
		return apperrors.NotFound("booking", nil)
	}
	b.Status = model.BookingStatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.New()
	event.Status = string(model.OutboxStatusPending)
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	r.events = append(r.events, event)
	return nil
}

func (r *OutboxRepository) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, e := range r.events {
		if e.Status == string(model.OutboxStatusPending) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Status = string(status)
			e.ErrorMessage = errorMessage
			if status == model.OutboxStatusProcessed {
				now := time.Now()
				e.ProcessedAt = &now
			}
			if status == model.OutboxStatusFailed {
				e.RetryCount++
			}
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}

func (r *OutboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	var deleted int64
	for _, e := range r.events {
		if e.Status == string(model.OutboxStatusProcessed) && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

// Interface conformance.
var (
	_ repository.ServiceRepository  = (*ServiceRepository)(nil)
	_ repository.TimeSlotRepository = (*TimeSlotRepository)(nil)
	_ repository.BookingRepository  = (*BookingRepository)(nil)
	_ repository.OutboxRepository   = (*OutboxRepository)(nil)
)
