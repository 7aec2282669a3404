package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vaxbook/booking-api/internal/repository"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

type serviceRepository struct {
	db *sqlx.DB
}

type timeSlotRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db     *sqlx.DB
	outbox *outboxRepository
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{db: db}
}

func NewTimeSlotRepository(db *sqlx.DB) repository.TimeSlotRepository {
	return &timeSlotRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db, outbox: &outboxRepository{db: db}}
}

// withTx executes fn within a transaction.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// storeErr classifies infrastructure failures. Timeouts and cancelled
// contexts surface as StoreUnavailable so they are never mistaken for
// a full slot; serialization conflicts surface as CommitConflict so the
// booking path can retry them.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.StoreUnavailable(err).WithDetail("operation", op)
	}
	switch pqCode(err) {
	case pqSerializationFailure, pqDeadlockDetected:
		return apperrors.Wrap(apperrors.KindCommitConflict, "commit conflict during "+op, err)
	}
	return apperrors.Wrap(apperrors.KindInternal, "failed to "+op, err)
}

// Postgres error codes relevant to the booking commit path.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func pqCode(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return ""
}
