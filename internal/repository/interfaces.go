package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// ServiceRepository stores bookable service definitions. Services
	// are written by administrators and read-only to the engine.
	ServiceRepository interface {
		Create(ctx context.Context, svc *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, svc *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Service, error)
	}

	TimeSlotRepository interface {
		Create(ctx context.Context, slot *model.TimeSlot) error
		Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
		ListEnabled(ctx context.Context, serviceID uuid.UUID) ([]*model.TimeSlot, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	BookingRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)
		ListConfirmed(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Booking, error)
		// FindConfirmed returns the patient's active booking for the
		// service, or nil when none exists.
		FindConfirmed(ctx context.Context, serviceID, patientID uuid.UUID) (*model.Booking, error)
		// CreateConfirmed inserts the booking atomically. Inside the
		// transaction it serializes writers on the service (and slot,
		// when set), re-reads the confirmed bookings for the date, and
		// calls revalidate with them; a non-nil result aborts the
		// insert. Concurrent duplicates for the same (service, patient)
		// surface as a DuplicateBooking error backed by the store's
		// partial unique index. The outbox event is written in the same
		// transaction.
		CreateConfirmed(ctx context.Context, booking *model.Booking, revalidate func(confirmed []*model.Booking) error) error
		Cancel(ctx context.Context, id uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
