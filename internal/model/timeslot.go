package model

import "github.com/google/uuid"

// TimeSlot is an administrator-defined time range with its own quota,
// used by services configured with explicit slots.
type TimeSlot struct {
	Base
	ServiceID   uuid.UUID   `db:"service_id" json:"service_id"`
	StartMinute MinuteOfDay `db:"start_minute" json:"start_time"`
	EndMinute   MinuteOfDay `db:"end_minute" json:"end_time"`
	Quota       int         `db:"quota" json:"quota"`
	Enabled     bool        `db:"enabled" json:"enabled"`
}

type CreateTimeSlotRequest struct {
	StartTime string `json:"start_time" binding:"required,timeofday"`
	EndTime   string `json:"end_time" binding:"required,timeofday"`
	Quota     int    `json:"quota" binding:"required,min=1"`
}

type ValidateTimeSlotRequest struct {
	StartTime     string     `json:"start_time" binding:"required,timeofday"`
	EndTime       string     `json:"end_time" binding:"required,timeofday"`
	ExcludeSlotID *uuid.UUID `json:"exclude_slot_id"`
}

// SlotRange is the user-facing shape of a conflicting slot.
type SlotRange struct {
	ID    uuid.UUID   `json:"id"`
	Start MinuteOfDay `json:"start"`
	End   MinuteOfDay `json:"end"`
}
