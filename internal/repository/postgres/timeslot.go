package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

func (r *timeSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO time_slots (
			id, service_id, start_minute, end_minute, quota, enabled,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.ServiceID,
		slot.StartMinute,
		slot.EndMinute,
		slot.Quota,
		slot.Enabled,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return storeErr("create time slot", err)
	}
	return nil
}

func (r *timeSlotRepository) Get(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	query := `
		SELECT id, service_id, start_minute, end_minute, quota, enabled,
			   created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`
	var slot model.TimeSlot
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("time slot", err)
	}
	if err != nil {
		return nil, storeErr("get time slot", err)
	}
	return &slot, nil
}

func (r *timeSlotRepository) ListEnabled(ctx context.Context, serviceID uuid.UUID) ([]*model.TimeSlot, error) {
	query := `
		SELECT id, service_id, start_minute, end_minute, quota, enabled,
			   created_at, updated_at
		FROM time_slots
		WHERE service_id = $1 AND enabled = true
		ORDER BY start_minute ASC
	`
	var slots []*model.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, serviceID); err != nil {
		return nil, storeErr("list time slots", err)
	}
	return slots, nil
}

func (r *timeSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete time slot", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NotFound("time slot", nil)
	}
	return nil
}
