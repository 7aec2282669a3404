package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a patient's appointment against a service. At most one
// confirmed booking may exist per (service, patient) pair; a partial
// unique index enforces this at the store.
type Booking struct {
	Base
	ServiceID   uuid.UUID     `db:"service_id" json:"service_id"`
	PatientID   uuid.UUID     `db:"patient_id" json:"patient_id"`
	Date        time.Time     `db:"date" json:"date"`
	StartMinute MinuteOfDay   `db:"start_minute" json:"start_time"`
	EndMinute   MinuteOfDay   `db:"end_minute" json:"end_time"`
	SlotID      *uuid.UUID    `db:"slot_id" json:"slot_id,omitempty"`
	Status      BookingStatus `db:"status" json:"status"`
}

type CreateBookingRequest struct {
	ServiceID uuid.UUID      `json:"service_id" binding:"required"`
	PatientID uuid.UUID      `json:"patient_id"`
	Date      string         `json:"date" binding:"required,datetime=2006-01-02"`
	SlotID    *uuid.UUID     `json:"slot_id"`
	StartTime string         `json:"start_time" binding:"omitempty,timeofday"`
	Patient   PatientProfile `json:"patient" binding:"required"`
}

type BookingFilters struct {
	ServiceID uuid.UUID
	PatientID uuid.UUID
	Status    BookingStatus
	Date      time.Time
}
