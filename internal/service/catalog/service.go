package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"

	"github.com/vaxbook/booking-api/internal/model"
	"github.com/vaxbook/booking-api/internal/repository"
	apperrors "github.com/vaxbook/booking-api/pkg/errors"
)

// Service manages the catalog of bookable vaccination services. Reads
// on the availability path go through a short-lived cache; the booking
// commit path always reads fresh.
type Service struct {
	repo  repository.ServiceRepository
	cache *cache.Cache
}

func NewService(repo repository.ServiceRepository, cacheTTL time.Duration) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.repo.Get(ctx, id)
}

// GetCached serves the read-heavy availability path. Staleness up to
// the TTL is acceptable there; commits re-validate against the store.
func (s *Service) GetCached(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if v, ok := s.cache.Get(id.String()); ok {
		return v.(*model.Service), nil
	}

	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(id.String(), svc)
	return svc, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Service, error) {
	return s.repo.List(ctx)
}

func (s *Service) CreateService(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	start, err := model.ParseMinuteOfDay(req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start time", err)
	}
	end, err := model.ParseMinuteOfDay(req.EndTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid end time", err)
	}
	bookingStart, err := time.Parse(model.DateLayout, req.BookingStartDate)
	if err != nil {
		return nil, apperrors.BadRequest("invalid booking start date", err)
	}
	bookingEnd, err := time.Parse(model.DateLayout, req.BookingEndDate)
	if err != nil {
		return nil, apperrors.BadRequest("invalid booking end date", err)
	}

	svc := &model.Service{
		Name:              req.Name,
		Description:       req.Description,
		MinAge:            req.MinAge,
		MaxAge:            req.MaxAge,
		GenderConstraint:  model.GenderConstraint(req.GenderConstraint),
		StartMinute:       start,
		EndMinute:         end,
		SlotDurationMin:   req.SlotDurationMin,
		UsesExplicitSlots: req.UsesExplicit,
		AggregateQuota:    req.AggregateQuota,
		BookingStartDate:  bookingStart,
		BookingEndDate:    bookingEnd,
		AdvanceDays:       req.AdvanceDays,
		CutoffMinutes:     req.CutoffMinutes,
		AllowedWeekdays:   pq.Int64Array(req.AllowedWeekdays),
		Timezone:          req.Timezone,
		Enabled:           true,
	}
	if req.Enabled != nil {
		svc.Enabled = *req.Enabled
	}

	if err := validateConfig(svc); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.MinAge != nil {
		svc.MinAge = req.MinAge
	}
	if req.MaxAge != nil {
		svc.MaxAge = req.MaxAge
	}
	if req.AggregateQuota != nil {
		svc.AggregateQuota = *req.AggregateQuota
	}
	if req.CutoffMinutes != nil {
		svc.CutoffMinutes = *req.CutoffMinutes
	}
	if req.AdvanceDays != nil {
		svc.AdvanceDays = *req.AdvanceDays
	}
	if req.AllowedWeekdays != nil {
		svc.AllowedWeekdays = pq.Int64Array(*req.AllowedWeekdays)
	}
	if req.Enabled != nil {
		svc.Enabled = *req.Enabled
	}

	if err := validateConfig(svc); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, err
	}
	s.cache.Delete(id.String())
	return svc, nil
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

// validateConfig rejects service definitions the engine would only be
// able to answer with permanent zero availability.
func validateConfig(svc *model.Service) error {
	if svc.EndMinute <= svc.StartMinute {
		return apperrors.New(apperrors.KindConfiguration, "service end time must be after start time")
	}
	if !svc.UsesExplicitSlots && svc.SlotDurationMin <= 0 {
		return apperrors.New(apperrors.KindConfiguration, "slot duration must be positive")
	}
	if !svc.UsesExplicitSlots && svc.AggregateQuota < 0 {
		return apperrors.New(apperrors.KindConfiguration, "aggregate quota must not be negative")
	}
	if svc.BookingEndDate.Before(svc.BookingStartDate) {
		return apperrors.New(apperrors.KindConfiguration, "booking end date must not precede booking start date")
	}
	if svc.MinAge != nil && svc.MaxAge != nil && *svc.MaxAge < *svc.MinAge {
		return apperrors.New(apperrors.KindConfiguration, "max age must not be below min age")
	}
	if svc.Timezone != "" {
		if _, err := time.LoadLocation(svc.Timezone); err != nil {
			return apperrors.Wrap(apperrors.KindConfiguration, "unknown timezone", err)
		}
	}
	return nil
}
