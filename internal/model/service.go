package model

import (
	"time"

	"github.com/lib/pq"
)

type GenderConstraint string

const (
	GenderConstraintMale   GenderConstraint = "male"
	GenderConstraintFemale GenderConstraint = "female"
	GenderConstraintAny    GenderConstraint = "any"
)

// Service is a bookable vaccination offering with its own hours,
// eligibility profile, and capacity rules.
type Service struct {
	Base
	Name              string           `db:"name" json:"name"`
	Description       string           `db:"description" json:"description,omitempty"`
	MinAge            *int             `db:"min_age" json:"min_age,omitempty"`
	MaxAge            *int             `db:"max_age" json:"max_age,omitempty"`
	GenderConstraint  GenderConstraint `db:"gender_constraint" json:"gender_constraint"`
	StartMinute       MinuteOfDay      `db:"start_minute" json:"start_time"`
	EndMinute         MinuteOfDay      `db:"end_minute" json:"end_time"`
	SlotDurationMin   int              `db:"slot_duration_min" json:"slot_duration_min"`
	UsesExplicitSlots bool             `db:"uses_explicit_slots" json:"uses_explicit_slots"`
	AggregateQuota    int              `db:"aggregate_quota" json:"aggregate_quota"`
	BookingStartDate  time.Time        `db:"booking_start_date" json:"booking_start_date"`
	BookingEndDate    time.Time        `db:"booking_end_date" json:"booking_end_date"`
	AdvanceDays       int              `db:"advance_booking_days" json:"advance_booking_days"`
	CutoffMinutes     int              `db:"cutoff_minutes" json:"cutoff_minutes"`
	AllowedWeekdays   pq.Int64Array    `db:"allowed_weekdays" json:"allowed_weekdays"`
	Timezone          string           `db:"timezone" json:"timezone"`
	Enabled           bool             `db:"enabled" json:"enabled"`
}

// Location resolves the service's timezone, falling back to UTC when
// the stored name is empty or unknown.
func (s *Service) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WeekdayConfigured reports whether any weekday restriction is set.
func (s *Service) WeekdayConfigured() bool {
	return len(s.AllowedWeekdays) > 0
}

// WeekdayAllowed reports membership of d in the allowed set. Callers
// must consult WeekdayConfigured first; an empty set answers false here.
func (s *Service) WeekdayAllowed(d time.Weekday) bool {
	for _, wd := range s.AllowedWeekdays {
		if int(wd) == int(d) {
			return true
		}
	}
	return false
}

type CreateServiceRequest struct {
	Name             string   `json:"name" binding:"required,max=200"`
	Description      string   `json:"description" binding:"max=1000"`
	MinAge           *int     `json:"min_age" binding:"omitempty,min=0"`
	MaxAge           *int     `json:"max_age" binding:"omitempty,min=0"`
	GenderConstraint string   `json:"gender_constraint" binding:"required,oneof=male female any"`
	StartTime        string   `json:"start_time" binding:"required,timeofday"`
	EndTime          string   `json:"end_time" binding:"required,timeofday"`
	SlotDurationMin  int      `json:"slot_duration_min" binding:"omitempty,min=1"`
	UsesExplicit     bool     `json:"uses_explicit_slots"`
	AggregateQuota   int      `json:"aggregate_quota" binding:"omitempty,min=0"`
	BookingStartDate string   `json:"booking_start_date" binding:"required,datetime=2006-01-02"`
	BookingEndDate   string   `json:"booking_end_date" binding:"required,datetime=2006-01-02"`
	AdvanceDays      int      `json:"advance_booking_days" binding:"omitempty,min=0"`
	CutoffMinutes    int      `json:"cutoff_minutes" binding:"omitempty,min=0"`
	AllowedWeekdays  []int64  `json:"allowed_weekdays" binding:"omitempty,dive,min=0,max=6"`
	Timezone         string   `json:"timezone"`
	Enabled          *bool    `json:"enabled"`
}

type UpdateServiceRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	MinAge          *int     `json:"min_age"`
	MaxAge          *int     `json:"max_age"`
	AggregateQuota  *int     `json:"aggregate_quota"`
	CutoffMinutes   *int     `json:"cutoff_minutes"`
	AdvanceDays     *int     `json:"advance_booking_days"`
	AllowedWeekdays *[]int64 `json:"allowed_weekdays"`
	Enabled         *bool    `json:"enabled"`
}
