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

const serviceColumns = `
	id, name, description, min_age, max_age, gender_constraint,
	start_minute, end_minute, slot_duration_min, uses_explicit_slots,
	aggregate_quota, booking_start_date, booking_end_date,
	advance_booking_days, cutoff_minutes, allowed_weekdays,
	timezone, enabled, created_at, updated_at
`

func (r *serviceRepository) Create(ctx context.Context, svc *model.Service) error {
	query := `
		INSERT INTO services (
			id, name, description, min_age, max_age, gender_constraint,
			start_minute, end_minute, slot_duration_min, uses_explicit_slots,
			aggregate_quota, booking_start_date, booking_end_date,
			advance_booking_days, cutoff_minutes, allowed_weekdays,
			timezone, enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	svc.ID = uuid.New()
	svc.CreatedAt = time.Now()
	svc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		svc.ID,
		svc.Name,
		svc.Description,
		svc.MinAge,
		svc.MaxAge,
		svc.GenderConstraint,
		svc.StartMinute,
		svc.EndMinute,
		svc.SlotDurationMin,
		svc.UsesExplicitSlots,
		svc.AggregateQuota,
		svc.BookingStartDate,
		svc.BookingEndDate,
		svc.AdvanceDays,
		svc.CutoffMinutes,
		svc.AllowedWeekdays,
		svc.Timezone,
		svc.Enabled,
		svc.CreatedAt,
		svc.UpdatedAt,
	)
	if err != nil {
		return storeErr("create service", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	var svc model.Service
	err := r.db.GetContext(ctx, &svc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("service", err)
	}
	if err != nil {
		return nil, storeErr("get service", err)
	}
	return &svc, nil
}

func (r *serviceRepository) Update(ctx context.Context, svc *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, min_age = $3, max_age = $4,
			gender_constraint = $5, start_minute = $6, end_minute = $7,
			slot_duration_min = $8, uses_explicit_slots = $9,
			aggregate_quota = $10, booking_start_date = $11,
			booking_end_date = $12, advance_booking_days = $13,
			cutoff_minutes = $14, allowed_weekdays = $15,
			timezone = $16, enabled = $17, updated_at = $18
		WHERE id = $19
	`
	svc.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		svc.Name,
		svc.Description,
		svc.MinAge,
		svc.MaxAge,
		svc.GenderConstraint,
		svc.StartMinute,
		svc.EndMinute,
		svc.SlotDurationMin,
		svc.UsesExplicitSlots,
		svc.AggregateQuota,
		svc.BookingStartDate,
		svc.BookingEndDate,
		svc.AdvanceDays,
		svc.CutoffMinutes,
		svc.AllowedWeekdays,
		svc.Timezone,
		svc.Enabled,
		svc.UpdatedAt,
		svc.ID,
	)
	if err != nil {
		return storeErr("update service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NotFound("service", nil)
	}
	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete service", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NotFound("service", nil)
	}
	return nil
}

func (r *serviceRepository) List(ctx context.Context) ([]*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY name ASC`

	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, storeErr("list services", err)
	}
	return services, nil
}
