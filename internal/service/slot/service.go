package slot

import (
	"context"

	"github.com/google/uuid"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository"
	"github.com/vaxbook/booking-api/internal/scheduling"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

// Service manages administrator-defined explicit slots. Every write is
// gated by the overlap validator so no two enabled slots of a service
// ever overlap.
type Service struct {
	services repository.ServiceRepository
	slots    repository.TimeSlotRepository
}

func NewService(services repository.ServiceRepository, slots repository.TimeSlotRepository) *Service {
	return &Service{services: services, slots: slots}
}

// ValidationResult reports every conflicting slot, not just the first,
// so the caller can surface all of them at once.
type ValidationResult struct {
	Overlap   bool              `json:"overlap"`
	Conflicts []model.SlotRange `json:"conflicts"`
}

func (s *Service) Validate(ctx context.Context, serviceID uuid.UUID, start, end model.MinuteOfDay, excludeSlotID *uuid.UUID) (*ValidationResult, error) {
	existing, err := s.slots.ListEnabled(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	conflicts := scheduling.Conflicts(start, end, existing, excludeSlotID)
	result := &ValidationResult{
		Overlap:   len(conflicts) > 0,
		Conflicts: make([]model.SlotRange, 0, len(conflicts)),
	}
	for _, c := range conflicts {
		result.Conflicts = append(result.Conflicts, model.SlotRange{
			ID:    c.ID,
			Start: c.StartMinute,
			End:   c.EndMinute,
		})
	}
	return result, nil
}

func (s *Service) CreateSlot(ctx context.Context, serviceID uuid.UUID, req *model.CreateTimeSlotRequest) (*model.TimeSlot, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	start, err := model.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start time", err)
	}
	end, err := model.ParseMinuteOfDay(req.EndTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid end time", err)
	}

	if end <= start {
		return nil, apperrors.New(apperrors.KindConfiguration, "slot end time must be after start time")
	}
	if start < svc.StartMinute || end > svc.EndMinute {
		return nil, apperrors.New(apperrors.KindConfiguration, "slot must lie within service hours").
			WithDetail("service_start", svc.StartMinute.String()).
			WithDetail("service_end", svc.EndMinute.String())
	}

	result, err := s.Validate(ctx, serviceID, start, end, nil)
	if err != nil {
		return nil, err
	}
	if result.Overlap {
		return nil, apperrors.New(apperrors.KindOverlapConflict, "slot overlaps existing slots").
			WithDetail("conflicts", result.Conflicts)
	}

	slot := &model.TimeSlot{
		ServiceID:   serviceID,
		StartMinute: start,
		EndMinute:   end,
		Quota:       req.Quota,
		Enabled:     true,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) ListSlots(ctx context.Context, serviceID uuid.UUID) ([]*model.TimeSlot, error) {
	return s.slots.ListEnabled(ctx, serviceID)
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Delete(ctx, id)
}
