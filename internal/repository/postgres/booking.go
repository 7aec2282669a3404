package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vaxbook/booking-api/internal/model"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

const bookingColumns = `
	id, service_id, patient_id, date, start_minute, end_minute,
	slot_id, status, created_at, updated_at
`

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b model.Booking
	err := r.db.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("booking", err)
	}
	if err != nil {
		return nil, storeErr("get booking", err)
	}
	return &b, nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.ServiceID != uuid.Nil {
		query += fmt.Sprintf(" AND service_id = $%d", argCount)
		args = append(args, filters.ServiceID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.Date.IsZero() {
		query += fmt.Sprintf(" AND date = $%d", argCount)
		args = append(args, filters.Date)
		argCount++
	}

	query += " ORDER BY date ASC, start_minute ASC"

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, storeErr("list bookings", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListConfirmed(ctx context.Context, serviceID uuid.UUID, date time.Time) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE service_id = $1 AND date = $2 AND status = 'confirmed'
		ORDER BY start_minute ASC
	`
	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, serviceID, date); err != nil {
		return nil, storeErr("list confirmed bookings", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindConfirmed(ctx context.Context, serviceID, patientID uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE service_id = $1 AND patient_id = $2 AND status = 'confirmed'
	`
	var b model.Booking
	err := r.db.GetContext(ctx, &b, query, serviceID, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find confirmed booking", err)
	}
	return &b, nil
}

// CreateConfirmed is the atomic commit primitive. Writers for the same
// service are serialized on the service row (and the slot row in
// explicit mode), the confirmed bookings for the date are re-read under
// that lock and handed to revalidate, and the insert relies on the
// partial unique index uniq_confirmed_booking to turn a concurrent
// duplicate into a classified conflict. The booking.created outbox
// event commits with the booking or not at all.
func (r *bookingRepository) CreateConfirmed(ctx context.Context, booking *model.Booking, revalidate func(confirmed []*model.Booking) error) error {
	booking.ID = uuid.New()
	booking.Status = model.BookingStatusConfirmed
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var locked uuid.UUID
		err := tx.GetContext(ctx, &locked,
			`SELECT id FROM services WHERE id = $1 FOR UPDATE`, booking.ServiceID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("service", err)
		}
		if err != nil {
			return storeErr("lock service", err)
		}

		if booking.SlotID != nil {
			err = tx.GetContext(ctx, &locked,
				`SELECT id FROM time_slots WHERE id = $1 FOR UPDATE`, *booking.SlotID)
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("time slot", err)
			}
			if err != nil {
				return storeErr("lock time slot", err)
			}
		}

		// Writers for this service are serialized by the row lock above,
		// so this check cannot race another CreateConfirmed.
		var existingID uuid.UUID
		err = tx.GetContext(ctx, &existingID, `
			SELECT id FROM bookings
			WHERE service_id = $1 AND patient_id = $2 AND status = 'confirmed'
		`, booking.ServiceID, booking.PatientID)
		if err == nil {
			return apperrors.New(apperrors.KindDuplicateBooking,
				"patient already has a confirmed booking for this service").
				WithDetail("conflicting_booking_id", existingID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storeErr("check duplicate booking", err)
		}

		var confirmed []*model.Booking
		err = tx.SelectContext(ctx, &confirmed, `
			SELECT `+bookingColumns+`
			FROM bookings
			WHERE service_id = $1 AND date = $2 AND status = 'confirmed'
			ORDER BY start_minute ASC
		`, booking.ServiceID, booking.Date)
		if err != nil {
			return storeErr("read confirmed bookings", err)
		}

		if err := revalidate(confirmed); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bookings (
				id, service_id, patient_id, date, start_minute, end_minute,
				slot_id, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			booking.ID,
			booking.ServiceID,
			booking.PatientID,
			booking.Date,
			booking.StartMinute,
			booking.EndMinute,
			booking.SlotID,
			booking.Status,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if pqCode(err) == pqUniqueViolation {
			// A writer outside this path slipped in; the transaction is
			// aborted so the winner's id cannot be resolved here.
			return apperrors.Wrap(apperrors.KindDuplicateBooking,
				"patient already has a confirmed booking for this service", err)
		}
		if err != nil {
			return storeErr("insert booking", err)
		}

		payload, err := json.Marshal(booking)
		if err != nil {
			return storeErr("marshal booking event", err)
		}
		if err := r.outbox.createTx(ctx, tx, model.EventBookingCreated, payload); err != nil {
			return err
		}
		return nil
	})
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE bookings
			SET status = 'cancelled', updated_at = $1
			WHERE id = $2 AND status = 'confirmed'
		`, time.Now(), id)
		if err != nil {
			return storeErr("cancel booking", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return storeErr("get rows affected", err)
		}
		if rows == 0 {
			return apperrors.NotFound("confirmed booking", nil)
		}

		payload, err := json.Marshal(map[string]interface{}{"id": id})
		if err != nil {
			return storeErr("marshal cancellation event", err)
		}
		return r.outbox.createTx(ctx, tx, model.EventBookingCancelled, payload)
	})
}
